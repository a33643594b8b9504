package repository

import (
	"context"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

// TransferFilter filtros para listar traslados.
type TransferFilter struct {
	StoreID string // origen o destino
	Status  entity.TransferStatus
	Limit   int
	Offset  int
}

// TransferRepository puerto de persistencia de traslados.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	// GetForUpdate bloquea el traslado hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	// Update persiste estado, receptor, cancelación y marcas de tiempo.
	Update(ctx context.Context, t *entity.Transfer) error
	List(ctx context.Context, filter TransferFilter) ([]*entity.Transfer, error)
}
