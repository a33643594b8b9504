// Package access puerta de permisos basada en asignaciones usuario -> tienda.
package access

import (
	"context"
	"fmt"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var _ inventory.PermissionGate = (*StoreGate)(nil)

const allStoresLimit = 1000

// StoreGate el administrador accede a todas las tiendas; el resto solo a las asignadas.
type StoreGate struct {
	stores repository.StoreRepository
	access repository.StoreAccessRepository
}

// NewStoreGate construye la puerta sobre los repositorios de tiendas y asignaciones.
func NewStoreGate(stores repository.StoreRepository, access repository.StoreAccessRepository) *StoreGate {
	return &StoreGate{stores: stores, access: access}
}

// CanAccessStore una tienda inexistente nunca es accesible.
func (g *StoreGate) CanAccessStore(ctx context.Context, userID, storeID, role string) (bool, error) {
	if userID == "" || storeID == "" {
		return false, nil
	}
	if role == entity.RoleAdmin {
		s, err := g.stores.GetByID(ctx, storeID)
		if err != nil {
			return false, err
		}
		return s != nil, nil
	}
	return g.access.HasAccess(ctx, userID, storeID)
}

// UserAccessibleStores tiendas visibles para el usuario, activas o no.
func (g *StoreGate) UserAccessibleStores(ctx context.Context, userID, role string) ([]*entity.Store, error) {
	if role == entity.RoleAdmin {
		return g.stores.List(ctx, false, allStoresLimit, 0)
	}
	ids, err := g.access.StoreIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("tiendas asignadas: %w", err)
	}
	return g.stores.ListByIDs(ctx, ids)
}
