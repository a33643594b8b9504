package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder orden de compra de un producto para una tienda.
// Se crea en el flujo de compras; solo el conciliador de llegadas la marca como validada.
// IsValidated=false implica ValidatedBy, ValidatedAt y ValidatedQuantity en nil.
type PurchaseOrder struct {
	ID                string
	StoreID           string
	SupplierID        string
	ProductID         string
	OrderedQuantity   int64
	UnitPrice         decimal.Decimal
	IsValidated       bool
	CreatedBy         string
	ValidatedBy       *string
	ValidatedAt       *time.Time
	ValidatedQuantity *int64
	CreatedAt         time.Time
}

// Total valor de la orden (cantidad pedida * precio unitario).
func (p *PurchaseOrder) Total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(p.OrderedQuantity))
}

// MarkValidated registra la validación con la cantidad que acreditó el stock.
func (p *PurchaseOrder) MarkValidated(quantity int64, validator string, now time.Time) {
	p.IsValidated = true
	p.ValidatedQuantity = &quantity
	p.ValidatedBy = &validator
	p.ValidatedAt = &now
}
