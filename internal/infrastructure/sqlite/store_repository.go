package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var (
	_ repository.StoreRepository       = (*StoreRepo)(nil)
	_ repository.ProductRepository     = (*ProductRepo)(nil)
	_ repository.StoreAccessRepository = (*StoreAccessRepo)(nil)
)

// StoreRepo catálogo de tiendas.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador.
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

const storeColumns = `id, name, address, active, created_at, updated_at`

// Create inserta la tienda. Nombre duplicado devuelve domain.ErrInvalidInput.
func (r *StoreRepo) Create(ctx context.Context, s *entity.Store) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO stores (`+storeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Address, s.Active, formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe una tienda con ese nombre", domain.ErrInvalidInput)
		}
		return mapError("create store", err)
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	s, err := scanStore(r.q.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get store", err)
	}
	return s, nil
}

// Update nombre, dirección y estado.
func (r *StoreRepo) Update(ctx context.Context, s *entity.Store) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.q.ExecContext(ctx, `UPDATE stores SET name = ?, address = ?, active = ?, updated_at = ? WHERE id = ?`,
		s.Name, s.Address, s.Active, formatTime(s.UpdatedAt), s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe una tienda con ese nombre", domain.ErrInvalidInput)
		}
		return mapError("update store", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List tiendas por nombre.
func (r *StoreRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name LIMIT ? OFFSET ?`
	rows, err := r.q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list stores", err)
	}
	return collectStores(rows)
}

// ListByIDs tiendas con los IDs dados; los inexistentes se omiten.
func (r *StoreRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Store, error) {
	if len(ids) == 0 {
		return []*entity.Store{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	rows, err := r.q.QueryContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id IN (`+placeholders+`) ORDER BY name`, args...)
	if err != nil {
		return nil, mapError("list stores by id", err)
	}
	return collectStores(rows)
}

func collectStores(rows *sql.Rows) ([]*entity.Store, error) {
	defer rows.Close()
	list := []*entity.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, mapError("scan store", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanStore(row rowScanner) (*entity.Store, error) {
	var (
		s                    entity.Store
		createdAt, updatedAt string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Address, &s.Active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

// ProductRepo catálogo mínimo de productos.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create inserta el producto. SKU duplicado devuelve domain.ErrInvalidInput.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO products (id, sku, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.SKU, p.Name, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe un producto con ese SKU", domain.ErrInvalidInput)
		}
		return mapError("create product", err)
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var (
		p                    entity.Product
		createdAt, updatedAt string
	)
	err := r.q.QueryRowContext(ctx, `SELECT id, sku, name, created_at, updated_at FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get product", err)
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// List productos por SKU.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, sku, name, created_at, updated_at FROM products
		ORDER BY sku LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, mapError("list products", err)
	}
	defer rows.Close()

	list := []*entity.Product{}
	for rows.Next() {
		var (
			p                    entity.Product
			createdAt, updatedAt string
		)
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &createdAt, &updatedAt); err != nil {
			return nil, mapError("scan product", err)
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		list = append(list, &p)
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

// Grant asigna la tienda al usuario. Repetir la asignación no falla.
func (r *StoreAccessRepo) Grant(ctx context.Context, userID, storeID string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO user_store_access (user_id, store_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, store_id) DO NOTHING`, userID, storeID, formatTime(time.Now()))
	if err != nil {
		return mapError("grant store access", err)
	}
	return nil
}

// HasAccess indica si el usuario tiene asignada la tienda.
func (r *StoreAccessRepo) HasAccess(ctx context.Context, userID, storeID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_store_access WHERE user_id = ? AND store_id = ?`,
		userID, storeID).Scan(&n)
	if err != nil {
		return false, mapError("check store access", err)
	}
	return n > 0, nil
}

// StoreIDsByUser tiendas asignadas al usuario.
func (r *StoreAccessRepo) StoreIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT store_id FROM user_store_access WHERE user_id = ? ORDER BY store_id`, userID)
	if err != nil {
		return nil, mapError("list store access", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError("scan store access", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
