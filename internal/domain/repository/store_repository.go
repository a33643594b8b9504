package repository

import (
	"context"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

// StoreRepository define el puerto de persistencia para Store (DIP).
type StoreRepository interface {
	Create(ctx context.Context, store *entity.Store) error
	GetByID(ctx context.Context, id string) (*entity.Store, error)
	Update(ctx context.Context, store *entity.Store) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Store, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Store, error)
}

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}

// StoreAccessRepository asignaciones usuario -> tienda que alimentan la puerta de permisos.
type StoreAccessRepository interface {
	Grant(ctx context.Context, userID, storeID string) error
	HasAccess(ctx context.Context, userID, storeID string) (bool, error)
	StoreIDsByUser(ctx context.Context, userID string) ([]string, error)
}
