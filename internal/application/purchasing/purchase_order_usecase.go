package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

// CreatePurchaseOrderCommand alta de una orden de compra.
type CreatePurchaseOrderCommand struct {
	StoreID         string
	SupplierID      string
	ProductID       string
	OrderedQuantity int64
	UnitPrice       decimal.Decimal
}

// PurchaseOrderUseCase alta y consulta de órdenes de compra. La validación la hace ArrivalReconciler.
type PurchaseOrderUseCase struct {
	tx       inventory.TxRunner
	gate     inventory.PermissionGate
	stores   repository.StoreRepository
	products repository.ProductRepository
	retry    inventory.RetryPolicy
}

// NewPurchaseOrderUseCase crea el caso de uso.
func NewPurchaseOrderUseCase(
	tx inventory.TxRunner,
	gate inventory.PermissionGate,
	stores repository.StoreRepository,
	products repository.ProductRepository,
	retry inventory.RetryPolicy,
) *PurchaseOrderUseCase {
	if retry.MaxAttempts < 1 {
		retry = inventory.DefaultRetryPolicy()
	}
	return &PurchaseOrderUseCase{tx: tx, gate: gate, stores: stores, products: products, retry: retry}
}

// Create registra una orden sin validar.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, actor entity.Actor, cmd CreatePurchaseOrderCommand) (*entity.PurchaseOrder, error) {
	if cmd.StoreID == "" || cmd.SupplierID == "" || cmd.ProductID == "" {
		return nil, fmt.Errorf("%w: tienda, proveedor y producto son obligatorios", domain.ErrInvalidInput)
	}
	if cmd.OrderedQuantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad pedida debe ser positiva", domain.ErrInvalidInput)
	}
	if cmd.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: el precio unitario no puede ser negativo", domain.ErrInvalidInput)
	}
	if err := inventory.Authorize(ctx, uc.gate, actor, cmd.StoreID); err != nil {
		return nil, err
	}
	store, err := uc.stores.GetByID(ctx, cmd.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: tienda %s", domain.ErrNotFound, cmd.StoreID)
	}
	product, err := uc.products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, cmd.ProductID)
	}

	po := &entity.PurchaseOrder{
		ID:              uuid.New().String(),
		StoreID:         cmd.StoreID,
		SupplierID:      cmd.SupplierID,
		ProductID:       cmd.ProductID,
		OrderedQuantity: cmd.OrderedQuantity,
		UnitPrice:       cmd.UnitPrice,
		CreatedBy:       actor.ID,
		CreatedAt:       time.Now().UTC(),
	}
	err = inventory.RunInTx(ctx, uc.tx, uc.retry, nil, func(repos inventory.Repositories) error {
		return repos.PurchaseOrders().Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// Get orden por ID si el usuario tiene acceso a su tienda.
func (uc *PurchaseOrderUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*entity.PurchaseOrder, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	var po *entity.PurchaseOrder
	err := inventory.RunInTx(ctx, uc.tx, uc.retry, nil, func(repos inventory.Repositories) error {
		var err error
		po, err = repos.PurchaseOrders().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	if err := inventory.Authorize(ctx, uc.gate, actor, po.StoreID); err != nil {
		return nil, err
	}
	return po, nil
}

// List órdenes de una tienda, opcionalmente filtradas por estado de validación.
func (uc *PurchaseOrderUseCase) List(ctx context.Context, actor entity.Actor, storeID string, validated *bool, limit, offset int) ([]*entity.PurchaseOrder, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: indique la tienda", domain.ErrInvalidInput)
	}
	if err := inventory.Authorize(ctx, uc.gate, actor, storeID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var out []*entity.PurchaseOrder
	err := inventory.RunInTx(ctx, uc.tx, uc.retry, nil, func(repos inventory.Repositories) error {
		var err error
		out, err = repos.PurchaseOrders().List(ctx, storeID, validated, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Movements entradas de stock que la validación de la orden dejó en el libro.
func (uc *PurchaseOrderUseCase) Movements(ctx context.Context, actor entity.Actor, purchaseID string) ([]*entity.AdjustmentRecord, error) {
	if _, err := uc.Get(ctx, actor, purchaseID); err != nil {
		return nil, err
	}
	var out []*entity.AdjustmentRecord
	err := inventory.RunInTx(ctx, uc.tx, uc.retry, nil, func(repos inventory.Repositories) error {
		var err error
		out, err = repos.Adjustments().ListByReference(ctx, entity.ReferencePurchase, purchaseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListArrivals historial de llegadas registradas contra la orden.
func (uc *PurchaseOrderUseCase) ListArrivals(ctx context.Context, actor entity.Actor, purchaseID string) ([]*entity.Arrival, error) {
	if _, err := uc.Get(ctx, actor, purchaseID); err != nil {
		return nil, err
	}
	var out []*entity.Arrival
	err := inventory.RunInTx(ctx, uc.tx, uc.retry, nil, func(repos inventory.Repositories) error {
		var err error
		out, err = repos.Arrivals().ListByPurchase(ctx, purchaseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
