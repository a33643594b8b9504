package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados sobre SQLite.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador.
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, source_store_id, destination_store_id, product_id, quantity, received_quantity,
	status, notes, requested_by, received_by, cancelled_by, cancel_reason,
	created_at, dispatched_at, received_at, cancelled_at, updated_at`

// Create inserta el traslado.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO transfers (`+transferColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SourceStoreID, t.DestinationStoreID, t.ProductID, t.Quantity, nullInt(t.ReceivedQuantity),
		string(t.Status), t.Notes, t.RequestedBy, nullString(t.ReceivedBy), nullString(t.CancelledBy), t.CancelReason,
		formatTime(t.CreatedAt), formatNullTime(t.DispatchedAt), formatNullTime(t.ReceivedAt),
		formatNullTime(t.CancelledAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return mapError("create transfer", err)
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get transfer", err)
	}
	return t, nil
}

// GetForUpdate la transacción SQLite ya es exclusiva.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

// Update persiste el estado y los datos de recepción o cancelación.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE transfers SET status = ?, received_quantity = ?, received_by = ?, cancelled_by = ?,
			cancel_reason = ?, dispatched_at = ?, received_at = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ?`,
		string(t.Status), nullInt(t.ReceivedQuantity), nullString(t.ReceivedBy), nullString(t.CancelledBy),
		t.CancelReason, formatNullTime(t.DispatchedAt), formatNullTime(t.ReceivedAt),
		formatNullTime(t.CancelledAt), formatTime(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return mapError("update transfer", err)
	}
	return nil
}

// List traslados más recientes primero.
func (r *TransferRepo) List(ctx context.Context, filter repository.TransferFilter) ([]*entity.Transfer, error) {
	var (
		where []string
		args  []any
	)
	if filter.StoreID != "" {
		where = append(where, "(source_store_id = ? OR destination_store_id = ?)")
		args = append(args, filter.StoreID, filter.StoreID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := `SELECT ` + transferColumns + ` FROM transfers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list transfers", err)
	}
	defer rows.Close()

	var list []*entity.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, mapError("scan transfer", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*entity.Transfer, error) {
	var (
		t                                     entity.Transfer
		status, createdAt, updatedAt          string
		received                              sql.NullInt64
		receivedBy, cancelledBy               sql.NullString
		dispatchedAt, receivedAt, cancelledAt sql.NullString
	)
	err := row.Scan(&t.ID, &t.SourceStoreID, &t.DestinationStoreID, &t.ProductID, &t.Quantity, &received,
		&status, &t.Notes, &t.RequestedBy, &receivedBy, &cancelledBy, &t.CancelReason,
		&createdAt, &dispatchedAt, &receivedAt, &cancelledAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	t.ReceivedQuantity = int64Ptr(received)
	t.ReceivedBy = stringPtr(receivedBy)
	t.CancelledBy = stringPtr(cancelledBy)
	t.CreatedAt = parseTime(createdAt)
	t.DispatchedAt = parseNullTime(dispatchedAt)
	t.ReceivedAt = parseNullTime(receivedAt)
	t.CancelledAt = parseNullTime(cancelledAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}
