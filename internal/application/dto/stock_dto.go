package dto

import "time"

// AdjustStockRequest entrada para registrar un ajuste de stock.
// Los tipos transfer_in y transfer_out los emite solo el coordinador de traslados.
type AdjustStockRequest struct {
	StoreID       string `json:"store_id" validate:"required"`
	ProductID     string `json:"product_id" validate:"required"`
	Delta         int64  `json:"delta" validate:"required,ne=0"`
	Type          string `json:"type" validate:"required,oneof=purchase sale manual loss correction"`
	Reason        string `json:"reason" validate:"max=500"`
	ReferenceID   string `json:"reference_id" validate:"max=100"`
	ReferenceType string `json:"reference_type" validate:"max=50"`
}

// RecountRequest conteo físico de un producto en una tienda.
type RecountRequest struct {
	StoreID   string `json:"store_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	Counted   *int64 `json:"counted" validate:"required,min=0"`
	Reason    string `json:"reason" validate:"max=500"`
}

// StockResponse cantidad actual de un par tienda/producto.
type StockResponse struct {
	StoreID   string    `json:"store_id"`
	ProductID string    `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockListResponse existencias paginadas de una tienda.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// AvailabilityResponse resultado de checkAvailability.
type AvailabilityResponse struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Current   int64  `json:"current"`
	Required  int64  `json:"required"`
	Available bool   `json:"available"`
}

// AdjustmentResponse entrada del historial.
type AdjustmentResponse struct {
	ID               string    `json:"id"`
	Sequence         int64     `json:"sequence"`
	Type             string    `json:"type"`
	PreviousQuantity int64     `json:"previous_quantity"`
	NewQuantity      int64     `json:"new_quantity"`
	Delta            int64     `json:"delta"`
	Reason           string    `json:"reason"`
	ReferenceID      string    `json:"reference_id,omitempty"`
	ReferenceType    string    `json:"reference_type,omitempty"`
	ActorID          string    `json:"actor_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// HistoryResponse historial paginado, más reciente primero.
type HistoryResponse struct {
	StoreID   string               `json:"store_id"`
	ProductID string               `json:"product_id"`
	Items     []AdjustmentResponse `json:"items"`
	Page      PageResponse         `json:"page"`
}

// LedgerCheckResponse comparación entre la cantidad y la suma del historial.
type LedgerCheckResponse struct {
	StoreID    string `json:"store_id"`
	ProductID  string `json:"product_id"`
	Quantity   int64  `json:"quantity"`
	LedgerSum  int64  `json:"ledger_sum"`
	Entries    int64  `json:"entries"`
	Consistent bool   `json:"consistent"`
}
