package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var (
	_ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)
	_ repository.ArrivalRepository       = (*ArrivalRepo)(nil)
)

// PurchaseOrderRepo órdenes de compra sobre SQLite. El precio se guarda como texto decimal.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador.
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const purchaseColumns = `id, store_id, supplier_id, product_id, ordered_quantity, unit_price, is_validated,
	created_by, validated_by, validated_at, validated_quantity, created_at`

// Create inserta una orden sin validar.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO purchase_orders (`+purchaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		po.ID, po.StoreID, po.SupplierID, po.ProductID, po.OrderedQuantity, po.UnitPrice.String(), po.IsValidated,
		po.CreatedBy, nullString(po.ValidatedBy), formatNullTime(po.ValidatedAt), nullInt(po.ValidatedQuantity),
		formatTime(po.CreatedAt),
	)
	if err != nil {
		return mapError("create purchase order", err)
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := scanPurchase(r.q.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchase_orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get purchase order", err)
	}
	return po, nil
}

// GetForUpdate la transacción SQLite ya es exclusiva.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

// MarkValidated solo actualiza si la orden seguía sin validar.
func (r *PurchaseOrderRepo) MarkValidated(ctx context.Context, po *entity.PurchaseOrder) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE purchase_orders
		SET is_validated = 1, validated_by = ?, validated_at = ?, validated_quantity = ?
		WHERE id = ? AND is_validated = 0`,
		nullString(po.ValidatedBy), formatNullTime(po.ValidatedAt), nullInt(po.ValidatedQuantity), po.ID,
	)
	if err != nil {
		return mapError("validate purchase order", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError("validate purchase order", err)
	}
	if n == 0 {
		return domain.ErrAlreadyValidated
	}
	return nil
}

// List órdenes de la tienda, más recientes primero.
func (r *PurchaseOrderRepo) List(ctx context.Context, storeID string, validated *bool, limit, offset int) ([]*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchase_orders WHERE store_id = ?`
	args := []any{storeID}
	if validated != nil {
		query += " AND is_validated = ?"
		args = append(args, *validated)
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
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

func scanPurchase(row rowScanner) (*entity.PurchaseOrder, error) {
	var (
		po                   entity.PurchaseOrder
		unitPrice, createdAt string
		validatedBy          sql.NullString
		validatedAt          sql.NullString
		validatedQty         sql.NullInt64
	)
	err := row.Scan(&po.ID, &po.StoreID, &po.SupplierID, &po.ProductID, &po.OrderedQuantity, &unitPrice,
		&po.IsValidated, &po.CreatedBy, &validatedBy, &validatedAt, &validatedQty, &createdAt)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return nil, fmt.Errorf("precio unitario inválido %q: %w", unitPrice, err)
	}
	po.UnitPrice = price
	po.ValidatedBy = stringPtr(validatedBy)
	po.ValidatedAt = parseNullTime(validatedAt)
	po.ValidatedQuantity = int64Ptr(validatedQty)
	po.CreatedAt = parseTime(createdAt)
	return &po, nil
}

// ArrivalRepo llegadas sobre SQLite (solo inserción).
type ArrivalRepo struct {
	q Querier
}

// NewArrivalRepository construye el adaptador.
func NewArrivalRepository(q Querier) *ArrivalRepo {
	return &ArrivalRepo{q: q}
}

// Create inserta la llegada.
func (r *ArrivalRepo) Create(ctx context.Context, a *entity.Arrival) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO arrivals (id, purchase_id, received_quantity, validated_by, notes, accepted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PurchaseID, a.ReceivedQuantity, a.ValidatedBy, a.Notes, a.Accepted, formatTime(a.CreatedAt),
	)
	if err != nil {
		return mapError("create arrival", err)
	}
	return nil
}

// ListByPurchase llegadas de la orden en orden cronológico.
func (r *ArrivalRepo) ListByPurchase(ctx context.Context, purchaseID string) ([]*entity.Arrival, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, purchase_id, received_quantity, validated_by, notes, accepted, created_at
		FROM arrivals WHERE purchase_id = ? ORDER BY created_at, id`, purchaseID)
	if err != nil {
		return nil, mapError("list arrivals", err)
	}
	defer rows.Close()

	var list []*entity.Arrival
	for rows.Next() {
		var (
			a         entity.Arrival
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.PurchaseID, &a.ReceivedQuantity, &a.ValidatedBy, &a.Notes, &a.Accepted, &createdAt); err != nil {
			return nil, mapError("scan arrival", err)
		}
		a.CreatedAt = parseTime(createdAt)
		list = append(list, &a)
	}
	return list, rows.Err()
}
