package entity

import "time"

// AdjustmentType causa de un cambio de stock.
type AdjustmentType string

// Tipos de ajuste de stock.
const (
	AdjustmentPurchase    AdjustmentType = "purchase"
	AdjustmentSale        AdjustmentType = "sale"
	AdjustmentManual      AdjustmentType = "manual"
	AdjustmentTransferIn  AdjustmentType = "transfer_in"
	AdjustmentTransferOut AdjustmentType = "transfer_out"
	AdjustmentLoss        AdjustmentType = "loss"
	AdjustmentCorrection  AdjustmentType = "correction"
)

// IsValid indica si el tipo pertenece al catálogo de ajustes.
func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentPurchase, AdjustmentSale, AdjustmentManual, AdjustmentTransferIn,
		AdjustmentTransferOut, AdjustmentLoss, AdjustmentCorrection:
		return true
	}
	return false
}

// AllowsNegative solo una corrección explícita puede dejar el stock en negativo.
func (t AdjustmentType) AllowsNegative() bool { return t == AdjustmentCorrection }

// Reserved los ajustes de traslado solo los emite el coordinador de traslados.
func (t AdjustmentType) Reserved() bool {
	return t == AdjustmentTransferIn || t == AdjustmentTransferOut
}

// Tipos de referencia de un ajuste.
const (
	ReferenceTransfer = "transfer"
	ReferencePurchase = "purchase"
	ReferenceSale     = "sale"
	ReferenceRecount  = "recount"
)

// Reference documento que originó el ajuste (traslado, orden de compra, venta...).
type Reference struct {
	ID   string
	Type string
}

// AdjustmentRecord entrada inmutable del libro de stock.
// Para cada (tienda, producto) la suma de Delta reproduce StockRecord.Quantity.
type AdjustmentRecord struct {
	ID               string
	Sequence         int64 // orden total por par, consistente con el orden de commit
	StoreID          string
	ProductID        string
	Type             AdjustmentType
	PreviousQuantity int64
	NewQuantity      int64
	Delta            int64
	Reason           string
	ReferenceID      string
	ReferenceType    string
	ActorID          string
	CreatedAt        time.Time
}
