package repository

import (
	"context"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

// AdjustmentRepository puerto del historial de ajustes. Solo inserción: no hay Update ni Delete.
type AdjustmentRepository interface {
	// Append persiste el ajuste y asigna Sequence.
	Append(ctx context.Context, adj *entity.AdjustmentRecord) error
	// ListByStoreProduct devuelve el historial más reciente primero.
	ListByStoreProduct(ctx context.Context, storeID, productID string, limit, offset int) ([]*entity.AdjustmentRecord, error)
	// ListByReference ajustes emitidos por un documento (traslado, compra).
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.AdjustmentRecord, error)
	// Sum devuelve la suma de deltas y la cantidad de entradas del par.
	Sum(ctx context.Context, storeID, productID string) (sum int64, entries int64, err error)
}
