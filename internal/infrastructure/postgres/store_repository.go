package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var (
	_ repository.StoreRepository       = (*StoreRepo)(nil)
	_ repository.StoreAccessRepository = (*StoreAccessRepo)(nil)
)

// StoreRepo implementación del puerto StoreRepository sobre PostgreSQL.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador de persistencia para tiendas.
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

const storeColumns = `id, name, address, active, created_at, updated_at`

// Create persiste una nueva tienda. Nombre duplicado devuelve domain.ErrInvalidInput.
func (r *StoreRepo) Create(ctx context.Context, s *entity.Store) error {
	query := `
		INSERT INTO stores (` + storeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, s.ID, s.Name, s.Address, s.Active, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe una tienda con ese nombre", domain.ErrInvalidInput)
		}
		return mapError("insert store", err)
	}
	return nil
}

// GetByID obtiene una tienda por ID.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	var s entity.Store
	err := r.q.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id).Scan(
		&s.ID, &s.Name, &s.Address, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get store", err)
	}
	return &s, nil
}

// Update actualiza nombre, dirección y estado.
func (r *StoreRepo) Update(ctx context.Context, s *entity.Store) error {
	s.UpdatedAt = time.Now().UTC()
	cmd, err := r.q.Exec(ctx, `
		UPDATE stores SET name = $2, address = $3, active = $4, updated_at = $5
		WHERE id = $1`,
		s.ID, s.Name, s.Address, s.Active, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe una tienda con ese nombre", domain.ErrInvalidInput)
		}
		return mapError("update store", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista tiendas por nombre con paginación.
func (r *StoreRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Store, error) {
	query := `
		SELECT ` + storeColumns + ` FROM stores
		WHERE ($1 = false OR active) ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, activeOnly, limit, offset)
	if err != nil {
		return nil, mapError("list stores", err)
	}
	return scanStores(rows)
}

// ListByIDs tiendas cuyos IDs están en ids; los inexistentes se omiten.
func (r *StoreRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Store, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, mapError("list stores by ids", err)
	}
	return scanStores(rows)
}

func scanStores(rows pgx.Rows) ([]*entity.Store, error) {
	defer rows.Close()
	var list []*entity.Store
	for rows.Next() {
		var s entity.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, mapError("scan store", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// StoreAccessRepo asignaciones usuario -> tienda.
type StoreAccessRepo struct {
	q Querier
}

// NewStoreAccessRepository construye el adaptador.
func NewStoreAccessRepository(q Querier) *StoreAccessRepo {
	return &StoreAccessRepo{q: q}
}

// Grant es idempotente.
func (r *StoreAccessRepo) Grant(ctx context.Context, userID, storeID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_store_access (user_id, store_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, store_id) DO NOTHING`,
		userID, storeID, time.Now().UTC(),
	)
	if err != nil {
		return mapError("grant store access", err)
	}
	return nil
}

// HasAccess indica si el usuario tiene asignada la tienda.
func (r *StoreAccessRepo) HasAccess(ctx context.Context, userID, storeID string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_store_access WHERE user_id = $1 AND store_id = $2)`,
		userID, storeID,
	).Scan(&ok)
	if err != nil {
		return false, mapError("check store access", err)
	}
	return ok, nil
}

// StoreIDsByUser tiendas asignadas al usuario.
func (r *StoreAccessRepo) StoreIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT store_id FROM user_store_access WHERE user_id = $1 ORDER BY store_id`, userID)
	if err != nil {
		return nil, mapError("list store access", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapError("scan store access", err)
	}
	return ids, nil
}
