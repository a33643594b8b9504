package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una tienda; cantidad 0 si no existe.
func (r *StockRepo) Get(ctx context.Context, storeID, productID string) (*entity.StockRecord, error) {
	query := `
		SELECT store_id, product_id, quantity, updated_at
		FROM stock_records WHERE store_id = $1 AND product_id = $2`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, storeID, productID).Scan(&s.StoreID, &s.ProductID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockRecord{StoreID: storeID, ProductID: productID}, nil
		}
		return nil, mapError("get stock", err)
	}
	return &s, nil
}

// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx. Sin fila devuelve
// cantidad 0 y no inserta nada.
func (r *StockRepo) GetForUpdate(ctx context.Context, storeID, productID string) (*entity.StockRecord, error) {
	query := `
		SELECT store_id, product_id, quantity, updated_at
		FROM stock_records WHERE store_id = $1 AND product_id = $2
		FOR UPDATE`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, storeID, productID).Scan(&s.StoreID, &s.ProductID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockRecord{StoreID: storeID, ProductID: productID}, nil
		}
		return nil, mapError("get stock for update", err)
	}
	return &s, nil
}

// LockForWrite materializa la fila en cero si falta y la bloquea. Dos escritores sobre un par
// sin fila quedan serializados por el INSERT ... ON CONFLICT.
func (r *StockRepo) LockForWrite(ctx context.Context, storeID, productID string) (*entity.StockRecord, error) {
	if err := r.ensureRow(ctx, storeID, productID); err != nil {
		return nil, err
	}
	return r.GetForUpdate(ctx, storeID, productID)
}

// ApplyDelta UPDATE condicional con RETURNING: la comprobación y la escritura son una sola sentencia
// y el bloqueo de fila queda tomado hasta el commit.
func (r *StockRepo) ApplyDelta(ctx context.Context, storeID, productID string, delta int64, allowNegative bool) (int64, int64, error) {
	if delta > 0 || allowNegative {
		if err := r.ensureRow(ctx, storeID, productID); err != nil {
			return 0, 0, err
		}
	}

	query := `
		UPDATE stock_records
		SET quantity = quantity + $3, updated_at = now()
		WHERE store_id = $1 AND product_id = $2 AND ($4::boolean OR quantity + $3 >= 0)
		RETURNING quantity`
	var current int64
	err := r.q.QueryRow(ctx, query, storeID, productID, delta, allowNegative).Scan(&current)
	if err == nil {
		return current - delta, current, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, mapError("apply stock delta", err)
	}

	rec, gerr := r.Get(ctx, storeID, productID)
	if gerr != nil {
		return 0, 0, gerr
	}
	return 0, 0, &domain.InsufficientStockError{
		StoreID:   storeID,
		ProductID: productID,
		Current:   rec.Quantity,
		Requested: -delta,
	}
}

// ListByStore existencias de la tienda ordenadas por producto.
func (r *StockRepo) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.StockRecord, error) {
	query := `
		SELECT store_id, product_id, quantity, updated_at
		FROM stock_records WHERE store_id = $1
		ORDER BY product_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, storeID, limit, offset)
	if err != nil {
		return nil, mapError("list stock", err)
	}
	defer rows.Close()

	var list []*entity.StockRecord
	for rows.Next() {
		var s entity.StockRecord
		if err := rows.Scan(&s.StoreID, &s.ProductID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, mapError("scan stock", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

func (r *StockRepo) ensureRow(ctx context.Context, storeID, productID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_records (store_id, product_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (store_id, product_id) DO NOTHING`, storeID, productID)
	if err != nil {
		return mapError("init stock", err)
	}
	return nil
}
