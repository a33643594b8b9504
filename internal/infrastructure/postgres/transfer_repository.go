package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, source_store_id, destination_store_id, product_id, quantity, received_quantity,
	status, notes, requested_by, received_by, cancelled_by, cancel_reason,
	created_at, dispatched_at, received_at, cancelled_at, updated_at`

// Create inserta el traslado.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.SourceStoreID, t.DestinationStoreID, t.ProductID, t.Quantity, t.ReceivedQuantity,
		string(t.Status), t.Notes, t.RequestedBy, t.ReceivedBy, t.CancelledBy, t.CancelReason,
		t.CreatedAt, t.DispatchedAt, t.ReceivedAt, t.CancelledAt, t.UpdatedAt,
	)
	if err != nil {
		return mapError("create transfer", err)
	}
	return nil
}

// GetByID obtiene un traslado por ID; nil, nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id)
}

// GetForUpdate bloquea el traslado (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRepo) get(ctx context.Context, query, id string) (*entity.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get transfer", err)
	}
	return t, nil
}

// Update persiste estado, recepción y cancelación.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE transfers SET status = $2, received_quantity = $3, received_by = $4, cancelled_by = $5,
			cancel_reason = $6, dispatched_at = $7, received_at = $8, cancelled_at = $9, updated_at = $10
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		t.ID, string(t.Status), t.ReceivedQuantity, t.ReceivedBy, t.CancelledBy,
		t.CancelReason, t.DispatchedAt, t.ReceivedAt, t.CancelledAt, t.UpdatedAt,
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
		args = append(args, filter.StoreID)
		where = append(where, fmt.Sprintf("(source_store_id = $%d OR destination_store_id = $%d)", len(args), len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + transferColumns + ` FROM transfers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
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

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var (
		t      entity.Transfer
		status string
	)
	err := row.Scan(&t.ID, &t.SourceStoreID, &t.DestinationStoreID, &t.ProductID, &t.Quantity, &t.ReceivedQuantity,
		&status, &t.Notes, &t.RequestedBy, &t.ReceivedBy, &t.CancelledBy, &t.CancelReason,
		&t.CreatedAt, &t.DispatchedAt, &t.ReceivedAt, &t.CancelledAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	return &t, nil
}
