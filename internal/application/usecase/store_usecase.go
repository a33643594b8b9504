package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-stock/internal/application/dto"
	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

// StoreUseCase casos de uso de tiendas. Crear y (des)activar es exclusivo de administradores.
type StoreUseCase struct {
	repo   repository.StoreRepository
	access repository.StoreAccessRepository
	gate   inventory.PermissionGate
}

// NewStoreUseCase construye el caso de uso.
func NewStoreUseCase(repo repository.StoreRepository, access repository.StoreAccessRepository, gate inventory.PermissionGate) *StoreUseCase {
	return &StoreUseCase{repo: repo, access: access, gate: gate}
}

// Create crea una nueva tienda activa.
func (uc *StoreUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	store := &entity.Store{
		ID:        uuid.New().String(),
		Name:      name,
		Address:   strings.TrimSpace(in.Address),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, store); err != nil {
		return nil, err
	}
	return toStoreResponse(store), nil
}

// GetByID obtiene una tienda visible para el usuario.
func (uc *StoreUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.StoreResponse, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	store, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}
	if err := inventory.Authorize(ctx, uc.gate, actor, id); err != nil {
		return nil, err
	}
	return toStoreResponse(store), nil
}

// List tiendas visibles: todas para admin, las asignadas para el resto.
func (uc *StoreUseCase) List(ctx context.Context, actor entity.Actor, activeOnly bool, page dto.PageRequest) (*dto.StoreListResponse, error) {
	if actor.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	page = clampPage(page)

	var (
		list []*entity.Store
		err  error
	)
	if actor.Role == entity.RoleAdmin {
		list, err = uc.repo.List(ctx, activeOnly, page.Limit, page.Offset)
	} else {
		list, err = uc.gate.UserAccessibleStores(ctx, actor.ID, actor.Role)
		list = paginate(filterActive(list, activeOnly), page.Limit, page.Offset)
	}
	if err != nil {
		return nil, err
	}
	items := make([]dto.StoreResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toStoreResponse(s))
	}
	return &dto.StoreListResponse{
		Items: items,
		Page:  page.Response(),
	}, nil
}

// SetActive activa o desactiva la tienda. Una tienda inactiva no envía ni recibe traslados.
func (uc *StoreUseCase) SetActive(ctx context.Context, actor entity.Actor, id string, active bool) (*dto.StoreResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	store, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}
	store.Active = active
	if err := uc.repo.Update(ctx, store); err != nil {
		return nil, err
	}
	return toStoreResponse(store), nil
}

// GrantAccess asigna una tienda a un usuario.
func (uc *StoreUseCase) GrantAccess(ctx context.Context, actor entity.Actor, userID, storeID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == "" || storeID == "" {
		return domain.ErrInvalidInput
	}
	store, err := uc.repo.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	if store == nil {
		return domain.ErrNotFound
	}
	return uc.access.Grant(ctx, userID, storeID)
}

func requireAdmin(actor entity.Actor) error {
	if actor.ID == "" {
		return domain.ErrUnauthorized
	}
	if actor.Role != entity.RoleAdmin {
		return domain.ErrPermissionDenied
	}
	return nil
}

func filterActive(list []*entity.Store, activeOnly bool) []*entity.Store {
	if !activeOnly {
		return list
	}
	out := list[:0:0]
	for _, s := range list {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// clampPage aplica el límite por defecto y los topes de página para llamadas fuera de HTTP.
func clampPage(p dto.PageRequest) dto.PageRequest {
	p = p.WithDefaults()
	if p.Limit < 1 {
		p.Limit = dto.DefaultPageLimit
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

func toStoreResponse(s *entity.Store) *dto.StoreResponse {
	if s == nil {
		return nil
	}
	return &dto.StoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
