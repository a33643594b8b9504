package dto

import "time"

// CreateTransferRequest entrada para crear un traslado; el débito en origen es inmediato.
type CreateTransferRequest struct {
	SourceStoreID      string `json:"source_store_id" validate:"required"`
	DestinationStoreID string `json:"destination_store_id" validate:"required,nefield=SourceStoreID"`
	ProductID          string `json:"product_id" validate:"required"`
	Quantity           int64  `json:"quantity" validate:"required,gt=0"`
	Notes              string `json:"notes" validate:"max=500"`
}

// ReceiveTransferRequest cantidad contada en destino.
type ReceiveTransferRequest struct {
	ReceivedQuantity int64 `json:"received_quantity" validate:"required,gt=0"`
}

// CancelTransferRequest motivo de la cancelación.
type CancelTransferRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID                 string     `json:"id"`
	SourceStoreID      string     `json:"source_store_id"`
	DestinationStoreID string     `json:"destination_store_id"`
	ProductID          string     `json:"product_id"`
	Quantity           int64      `json:"quantity"`
	ReceivedQuantity   *int64     `json:"received_quantity,omitempty"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	RequestedBy        string     `json:"requested_by"`
	ReceivedBy         *string    `json:"received_by,omitempty"`
	CancelledBy        *string    `json:"cancelled_by,omitempty"`
	CancelReason       string     `json:"cancel_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	DispatchedAt       *time.Time `json:"dispatched_at,omitempty"`
	ReceivedAt         *time.Time `json:"received_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	// Movements solo en el detalle: ajustes del libro emitidos por el traslado.
	Movements []AdjustmentResponse `json:"movements,omitempty"`
}

// TransferRejectedResponse cuerpo 409 cuando el débito en origen se rechazó; el traslado quedó cancelado.
type TransferRejectedResponse struct {
	ErrorResponse
	Transfer TransferResponse `json:"transfer"`
}

// TransferListResponse lista paginada de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
