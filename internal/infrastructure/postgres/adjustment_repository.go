package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo historial de ajustes sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

const adjustmentColumns = `sequence, id, store_id, product_id, type, previous_quantity, new_quantity, delta,
	reason, reference_id, reference_type, actor_id, created_at`

// Append persiste el ajuste. La secuencia (identity) se asigna después del bloqueo de la fila de stock,
// por lo que sigue el orden de commit del par.
func (r *AdjustmentRepo) Append(ctx context.Context, adj *entity.AdjustmentRecord) error {
	query := `
		INSERT INTO adjustment_records (id, store_id, product_id, type, previous_quantity, new_quantity,
			delta, reason, reference_id, reference_type, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		adj.ID, adj.StoreID, adj.ProductID, string(adj.Type), adj.PreviousQuantity, adj.NewQuantity,
		adj.Delta, adj.Reason, adj.ReferenceID, adj.ReferenceType, adj.ActorID, adj.CreatedAt,
	).Scan(&adj.Sequence)
	if err != nil {
		return mapError("append adjustment", err)
	}
	return nil
}

// ListByStoreProduct historial del par, más reciente primero.
func (r *AdjustmentRepo) ListByStoreProduct(ctx context.Context, storeID, productID string, limit, offset int) ([]*entity.AdjustmentRecord, error) {
	rows, err := r.q.Query(ctx, `SELECT `+adjustmentColumns+`
		FROM adjustment_records WHERE store_id = $1 AND product_id = $2
		ORDER BY sequence DESC LIMIT $3 OFFSET $4`, storeID, productID, limit, offset)
	if err != nil {
		return nil, mapError("list adjustments", err)
	}
	return scanAdjustments(rows)
}

// ListByReference ajustes emitidos por un documento, en orden de aplicación.
func (r *AdjustmentRepo) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.AdjustmentRecord, error) {
	rows, err := r.q.Query(ctx, `SELECT `+adjustmentColumns+`
		FROM adjustment_records WHERE reference_type = $1 AND reference_id = $2
		ORDER BY sequence`, referenceType, referenceID)
	if err != nil {
		return nil, mapError("list adjustments by reference", err)
	}
	return scanAdjustments(rows)
}

// Sum suma de deltas y cantidad de entradas del par.
func (r *AdjustmentRepo) Sum(ctx context.Context, storeID, productID string) (int64, int64, error) {
	var sum, entries int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(delta), 0)::bigint, COUNT(*)
		FROM adjustment_records WHERE store_id = $1 AND product_id = $2`, storeID, productID,
	).Scan(&sum, &entries)
	if err != nil {
		return 0, 0, mapError("sum adjustments", err)
	}
	return sum, entries, nil
}

func scanAdjustments(rows pgx.Rows) ([]*entity.AdjustmentRecord, error) {
	defer rows.Close()
	var list []*entity.AdjustmentRecord
	for rows.Next() {
		var (
			a   entity.AdjustmentRecord
			typ string
		)
		if err := rows.Scan(&a.Sequence, &a.ID, &a.StoreID, &a.ProductID, &typ, &a.PreviousQuantity,
			&a.NewQuantity, &a.Delta, &a.Reason, &a.ReferenceID, &a.ReferenceType, &a.ActorID, &a.CreatedAt); err != nil {
			return nil, mapError("scan adjustment", err)
		}
		a.Type = entity.AdjustmentType(typ)
		list = append(list, &a)
	}
	return list, rows.Err()
}
