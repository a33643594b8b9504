package repository

import (
	"context"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

// PurchaseOrderRepository puerto de persistencia de órdenes de compra.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// MarkValidated persiste la validación; falla con domain.ErrAlreadyValidated si ya lo estaba.
	MarkValidated(ctx context.Context, po *entity.PurchaseOrder) error
	List(ctx context.Context, storeID string, validated *bool, limit, offset int) ([]*entity.PurchaseOrder, error)
}

// ArrivalRepository puerto de persistencia de llegadas (inmutables).
type ArrivalRepository interface {
	Create(ctx context.Context, a *entity.Arrival) error
	ListByPurchase(ctx context.Context, purchaseID string) ([]*entity.Arrival, error)
}
