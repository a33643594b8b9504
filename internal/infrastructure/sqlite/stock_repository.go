package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre SQLite.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar db o tx.
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual; cantidad 0 si el par no existe.
func (r *StockRepo) Get(ctx context.Context, storeID, productID string) (*entity.StockRecord, error) {
	query := `
		SELECT store_id, product_id, quantity, updated_at
		FROM stock_records WHERE store_id = ? AND product_id = ?`
	var (
		s         entity.StockRecord
		updatedAt string
	)
	err := r.q.QueryRowContext(ctx, query, storeID, productID).Scan(&s.StoreID, &s.ProductID, &s.Quantity, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &entity.StockRecord{StoreID: storeID, ProductID: productID}, nil
		}
		return nil, mapError("get stock", err)
	}
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

// GetForUpdate en SQLite la transacción ya tiene la base en exclusiva; equivale a Get.
func (r *StockRepo) GetForUpdate(ctx context.Context, storeID, productID string) (*entity.StockRecord, error) {
	return r.Get(ctx, storeID, productID)
}

// LockForWrite no necesita materializar la fila: ApplyDelta la crea al acreditar.
func (r *StockRepo) LockForWrite(ctx context.Context, storeID, productID string) (*entity.StockRecord, error) {
	return r.Get(ctx, storeID, productID)
}

// ApplyDelta suma delta con un UPDATE condicional. La fila se crea en cero solo cuando el
// cambio puede aplicarse sobre ella (crédito o corrección).
func (r *StockRepo) ApplyDelta(ctx context.Context, storeID, productID string, delta int64, allowNegative bool) (int64, int64, error) {
	now := formatTime(time.Now())
	if delta > 0 || allowNegative {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO stock_records (store_id, product_id, quantity, updated_at)
			VALUES (?, ?, 0, ?)
			ON CONFLICT (store_id, product_id) DO NOTHING`, storeID, productID, now)
		if err != nil {
			return 0, 0, mapError("init stock", err)
		}
	}

	var current int64
	err := r.q.QueryRowContext(ctx, `
		UPDATE stock_records
		SET quantity = quantity + ?, updated_at = ?
		WHERE store_id = ? AND product_id = ? AND (? OR quantity + ? >= 0)
		RETURNING quantity`,
		delta, now, storeID, productID, allowNegative, delta,
	).Scan(&current)
	if err == nil {
		return current - delta, current, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
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
	rows, err := r.q.QueryContext(ctx, `
		SELECT store_id, product_id, quantity, updated_at
		FROM stock_records WHERE store_id = ?
		ORDER BY product_id LIMIT ? OFFSET ?`, storeID, limit, offset)
	if err != nil {
		return nil, mapError("list stock", err)
	}
	defer rows.Close()

	var list []*entity.StockRecord
	for rows.Next() {
		var (
			s         entity.StockRecord
			updatedAt string
		)
		if err := rows.Scan(&s.StoreID, &s.ProductID, &s.Quantity, &updatedAt); err != nil {
			return nil, mapError("scan stock", err)
		}
		s.UpdatedAt = parseTime(updatedAt)
		list = append(list, &s)
	}
	return list, rows.Err()
}
