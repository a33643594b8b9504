package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var (
	_ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)
	_ repository.ArrivalRepository       = (*ArrivalRepo)(nil)
)

// PurchaseOrderRepo órdenes de compra sobre PostgreSQL. unit_price es NUMERIC (codec shopspring/decimal).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const purchaseColumns = `id, store_id, supplier_id, product_id, ordered_quantity, unit_price, is_validated,
	created_by, validated_by, validated_at, validated_quantity, created_at`

// Create inserta una orden.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `INSERT INTO purchase_orders (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		po.ID, po.StoreID, po.SupplierID, po.ProductID, po.OrderedQuantity, po.UnitPrice, po.IsValidated,
		po.CreatedBy, po.ValidatedBy, po.ValidatedAt, po.ValidatedQuantity, po.CreatedAt,
	)
	if err != nil {
		return mapError("create purchase order", err)
	}
	return nil
}

// GetByID nil, nil si no existe.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la orden hasta el fin de la tx; serializa validaciones concurrentes.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, query, id string) (*entity.PurchaseOrder, error) {
	po, err := scanPurchase(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get purchase order", err)
	}
	return po, nil
}

// MarkValidated solo actualiza si la orden seguía sin validar.
func (r *PurchaseOrderRepo) MarkValidated(ctx context.Context, po *entity.PurchaseOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_orders
		SET is_validated = true, validated_by = $2, validated_at = $3, validated_quantity = $4
		WHERE id = $1 AND NOT is_validated`,
		po.ID, po.ValidatedBy, po.ValidatedAt, po.ValidatedQuantity,
	)
	if err != nil {
		return mapError("validate purchase order", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyValidated
	}
	return nil
}

// List órdenes de la tienda, más recientes primero.
func (r *PurchaseOrderRepo) List(ctx context.Context, storeID string, validated *bool, limit, offset int) ([]*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchase_orders WHERE store_id = $1`
	args := []any{storeID}
	if validated != nil {
		args = append(args, *validated)
		query += fmt.Sprintf(" AND is_validated = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list purchase orders", err)
	}
	defer rows.Close()

	var list []*entity.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchase(rows)
		if err != nil {
			return nil, mapError("scan purchase order", err)
		}
		list = append(list, po)
	}
	return list, rows.Err()
}

func scanPurchase(row pgx.Row) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := row.Scan(&po.ID, &po.StoreID, &po.SupplierID, &po.ProductID, &po.OrderedQuantity, &po.UnitPrice,
		&po.IsValidated, &po.CreatedBy, &po.ValidatedBy, &po.ValidatedAt, &po.ValidatedQuantity, &po.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// ArrivalRepo llegadas sobre PostgreSQL (solo inserción).
type ArrivalRepo struct {
	q Querier
}

// NewArrivalRepository construye el adaptador.
func NewArrivalRepository(q Querier) *ArrivalRepo {
	return &ArrivalRepo{q: q}
}

// Create inserta la llegada.
func (r *ArrivalRepo) Create(ctx context.Context, a *entity.Arrival) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO arrivals (id, purchase_id, received_quantity, validated_by, notes, accepted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PurchaseID, a.ReceivedQuantity, a.ValidatedBy, a.Notes, a.Accepted, a.CreatedAt,
	)
	if err != nil {
		return mapError("create arrival", err)
	}
	return nil
}

// ListByPurchase llegadas de la orden en orden cronológico.
func (r *ArrivalRepo) ListByPurchase(ctx context.Context, purchaseID string) ([]*entity.Arrival, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_id, received_quantity, validated_by, notes, accepted, created_at
		FROM arrivals WHERE purchase_id = $1 ORDER BY created_at, id`, purchaseID)
	if err != nil {
		return nil, mapError("list arrivals", err)
	}
	defer rows.Close()

	var list []*entity.Arrival
	for rows.Next() {
		var a entity.Arrival
		if err := rows.Scan(&a.ID, &a.PurchaseID, &a.ReceivedQuantity, &a.ValidatedBy, &a.Notes, &a.Accepted, &a.CreatedAt); err != nil {
			return nil, mapError("scan arrival", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
