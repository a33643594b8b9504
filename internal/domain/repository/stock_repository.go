package repository

import (
	"context"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

// StockRepository puerto para consultar y modificar el stock por tienda+producto.
// Las implementaciones atadas a una transacción garantizan que ApplyDelta sea atómico.
type StockRepository interface {
	// Get devuelve el stock actual; si no existe la fila devuelve cantidad 0.
	Get(ctx context.Context, storeID, productID string) (*entity.StockRecord, error)
	// GetForUpdate igual que Get pero bloquea la fila, si existe, hasta el fin de la transacción.
	// Nunca crea la fila.
	GetForUpdate(ctx context.Context, storeID, productID string) (*entity.StockRecord, error)
	// LockForWrite crea la fila en cero si falta y la bloquea. Solo para caminos que van a escribir.
	LockForWrite(ctx context.Context, storeID, productID string) (*entity.StockRecord, error)
	// ApplyDelta suma delta a la cantidad en una sola sentencia condicional.
	// Si el resultado fuera negativo y allowNegative es false no escribe nada y
	// devuelve *domain.InsufficientStockError.
	ApplyDelta(ctx context.Context, storeID, productID string, delta int64, allowNegative bool) (previous, current int64, err error)
	ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.StockRecord, error)
}
