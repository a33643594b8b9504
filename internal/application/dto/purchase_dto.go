package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseOrderRequest entrada para registrar una orden de compra.
type CreatePurchaseOrderRequest struct {
	StoreID         string          `json:"store_id" validate:"required"`
	SupplierID      string          `json:"supplier_id" validate:"required,max=100"`
	ProductID       string          `json:"product_id" validate:"required"`
	OrderedQuantity int64           `json:"ordered_quantity" validate:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// SubmitArrivalRequest cantidad física recibida contra la orden.
type SubmitArrivalRequest struct {
	ReceivedQuantity int64  `json:"received_quantity" validate:"required,gt=0"`
	Notes            string `json:"notes" validate:"max=500"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID                string          `json:"id"`
	StoreID           string          `json:"store_id"`
	SupplierID        string          `json:"supplier_id"`
	ProductID         string          `json:"product_id"`
	OrderedQuantity   int64           `json:"ordered_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Total             decimal.Decimal `json:"total"`
	IsValidated       bool            `json:"is_validated"`
	CreatedBy         string          `json:"created_by"`
	ValidatedBy       *string         `json:"validated_by,omitempty"`
	ValidatedAt       *time.Time      `json:"validated_at,omitempty"`
	ValidatedQuantity *int64          `json:"validated_quantity,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	// Movements solo en el detalle: ajustes del libro emitidos al validar la orden.
	Movements []AdjustmentResponse `json:"movements,omitempty"`
}

// PurchaseOrderListResponse lista paginada de órdenes.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// ArrivalResponse salida de una llegada.
type ArrivalResponse struct {
	ID               string    `json:"id"`
	PurchaseID       string    `json:"purchase_id"`
	ReceivedQuantity int64     `json:"received_quantity"`
	ValidatedBy      string    `json:"validated_by"`
	Notes            string    `json:"notes,omitempty"`
	Accepted         bool      `json:"accepted"`
	CreatedAt        time.Time `json:"created_at"`
}

// ArrivalMismatchResponse cuerpo 422 cuando la cantidad no coincide; la llegada quedó registrada.
type ArrivalMismatchResponse struct {
	ErrorResponse
	Ordered  int64           `json:"ordered"`
	Received int64           `json:"received"`
	Arrival  ArrivalResponse `json:"arrival"`
}
