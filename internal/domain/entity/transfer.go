package entity

import (
	"time"

	"github.com/jhoicas/retail-stock/internal/domain"
)

// TransferStatus estado de un traslado entre tiendas.
type TransferStatus string

// Estados del traslado: pending -> in_transit -> received, con salida a cancelled.
const (
	TransferPending   TransferStatus = "pending"
	TransferInTransit TransferStatus = "in_transit"
	TransferReceived  TransferStatus = "received"
	TransferCancelled TransferStatus = "cancelled"
)

// IsValid indica si el estado existe.
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferPending, TransferInTransit, TransferReceived, TransferCancelled:
		return true
	}
	return false
}

// IsTerminal received y cancelled no admiten más transiciones.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferReceived || s == TransferCancelled
}

// CanTransitionTo reglas de la máquina de estados.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	switch s {
	case TransferPending:
		return target == TransferInTransit || target == TransferCancelled
	case TransferInTransit:
		return target == TransferReceived || target == TransferCancelled
	}
	return false
}

// Transfer movimiento de stock en dos fases: débito en origen al crear, crédito en destino al recibir.
type Transfer struct {
	ID                 string
	SourceStoreID      string
	DestinationStoreID string
	ProductID          string
	Quantity           int64
	ReceivedQuantity   *int64
	Status             TransferStatus
	Notes              string
	RequestedBy        string
	ReceivedBy         *string
	CancelledBy        *string
	CancelReason       string
	CreatedAt          time.Time
	DispatchedAt       *time.Time
	ReceivedAt         *time.Time
	CancelledAt        *time.Time
	UpdatedAt          time.Time
}

// NewTransfer construye un traslado en estado pending validando sus invariantes básicos.
func NewTransfer(id, source, destination, productID string, quantity int64, notes, requester string, now time.Time) (*Transfer, error) {
	if source == "" || destination == "" || productID == "" || requester == "" {
		return nil, domain.ErrInvalidInput
	}
	if source == destination || quantity <= 0 {
		return nil, domain.ErrInvalidTransfer
	}
	return &Transfer{
		ID:                 id,
		SourceStoreID:      source,
		DestinationStoreID: destination,
		ProductID:          productID,
		Quantity:           quantity,
		Status:             TransferPending,
		Notes:              notes,
		RequestedBy:        requester,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (t *Transfer) transition(target TransferStatus, now time.Time) error {
	if !t.Status.CanTransitionTo(target) {
		return domain.ErrInvalidTransition
	}
	t.Status = target
	t.UpdatedAt = now
	return nil
}

// MarkDispatched el débito en origen fue aplicado.
func (t *Transfer) MarkDispatched(now time.Time) error {
	if err := t.transition(TransferInTransit, now); err != nil {
		return err
	}
	t.DispatchedAt = &now
	return nil
}

// MarkReceived el destino confirmó la recepción de quantity unidades.
func (t *Transfer) MarkReceived(quantity int64, receiver string, now time.Time) error {
	if t.Status != TransferInTransit {
		return domain.ErrInvalidTransition
	}
	if quantity <= 0 || quantity > t.Quantity {
		return domain.ErrInvalidTransfer
	}
	if err := t.transition(TransferReceived, now); err != nil {
		return err
	}
	t.ReceivedQuantity = &quantity
	t.ReceivedBy = &receiver
	t.ReceivedAt = &now
	return nil
}

// MarkCancelled cancela el traslado (débito fallido o cancelación administrativa).
func (t *Transfer) MarkCancelled(actor, reason string, now time.Time) error {
	if err := t.transition(TransferCancelled, now); err != nil {
		return err
	}
	if actor != "" {
		t.CancelledBy = &actor
	}
	t.CancelReason = reason
	t.CancelledAt = &now
	return nil
}
