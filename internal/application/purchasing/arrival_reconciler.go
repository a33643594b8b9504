package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/pkg/logger"
)

// SubmitArrivalCommand llegada física de mercancía contra una orden de compra.
type SubmitArrivalCommand struct {
	PurchaseID       string
	ReceivedQuantity int64
	Notes            string
}

// ArrivalReconciler valida llegadas contra la orden de compra y acredita el stock
// exactamente una vez por orden.
type ArrivalReconciler struct {
	tx      inventory.TxRunner
	gate    inventory.PermissionGate
	ledger  *inventory.StockLedger
	retry   inventory.RetryPolicy
	metrics inventory.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// NewArrivalReconciler crea el conciliador.
func NewArrivalReconciler(
	tx inventory.TxRunner,
	gate inventory.PermissionGate,
	ledger *inventory.StockLedger,
	retry inventory.RetryPolicy,
	log *logger.Logger,
) *ArrivalReconciler {
	if retry.MaxAttempts < 1 {
		retry = inventory.DefaultRetryPolicy()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ArrivalReconciler{
		tx:      tx,
		gate:    gate,
		ledger:  ledger,
		retry:   retry,
		metrics: inventory.NopMetrics(),
		log:     log.Named("arrival_reconciler"),
		now:     time.Now,
	}
}

// SetMetrics reemplaza los contadores.
func (r *ArrivalReconciler) SetMetrics(m inventory.Metrics) {
	if m != nil {
		r.metrics = m
	}
}

// SubmitArrival registra la llegada. Si la cantidad coincide con la pedida marca la orden como
// validada y acredita el stock en la misma transacción. Si no coincide, la llegada queda registrada
// sin acreditar y se devuelve junto con *domain.QuantityMismatchError.
func (r *ArrivalReconciler) SubmitArrival(ctx context.Context, actor entity.Actor, cmd SubmitArrivalCommand) (*entity.Arrival, error) {
	if cmd.PurchaseID == "" {
		return nil, domain.ErrInvalidInput
	}
	if cmd.ReceivedQuantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad recibida debe ser positiva", domain.ErrInvalidInput)
	}
	if actor.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !actor.CanValidateArrivals() {
		return nil, domain.ErrPermissionDenied
	}

	// El permiso se resuelve fuera de la transacción: la puerta de permisos usa su propia conexión.
	var storeID string
	err := inventory.RunInTx(ctx, r.tx, r.retry, r.log, func(repos inventory.Repositories) error {
		po, err := repos.PurchaseOrders().GetByID(ctx, cmd.PurchaseID)
		if err != nil {
			return err
		}
		if po == nil {
			return fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, cmd.PurchaseID)
		}
		storeID = po.StoreID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := inventory.Authorize(ctx, r.gate, actor, storeID); err != nil {
		return nil, err
	}

	var (
		arrival     *entity.Arrival
		adj         *entity.AdjustmentRecord
		mismatchErr error
	)
	err = inventory.RunInTx(ctx, r.tx, r.retry, r.log, func(repos inventory.Repositories) error {
		arrival, adj, mismatchErr = nil, nil, nil

		po, err := repos.PurchaseOrders().GetForUpdate(ctx, cmd.PurchaseID)
		if err != nil {
			return err
		}
		if po == nil {
			return fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, cmd.PurchaseID)
		}
		if po.IsValidated {
			return domain.ErrAlreadyValidated
		}

		now := r.now().UTC()
		a := &entity.Arrival{
			ID:               uuid.New().String(),
			PurchaseID:       po.ID,
			ReceivedQuantity: cmd.ReceivedQuantity,
			ValidatedBy:      actor.ID,
			Notes:            strings.TrimSpace(cmd.Notes),
			Accepted:         cmd.ReceivedQuantity == po.OrderedQuantity,
			CreatedAt:        now,
		}
		if err := repos.Arrivals().Create(ctx, a); err != nil {
			return fmt.Errorf("registrar llegada: %w", err)
		}
		arrival = a

		if !a.Accepted {
			// Se confirma la llegada sin tocar stock ni la orden.
			mismatchErr = &domain.QuantityMismatchError{
				PurchaseID: po.ID,
				Ordered:    po.OrderedQuantity,
				Received:   cmd.ReceivedQuantity,
			}
			return nil
		}

		po.MarkValidated(cmd.ReceivedQuantity, actor.ID, now)
		if err := repos.PurchaseOrders().MarkValidated(ctx, po); err != nil {
			return err
		}
		adj, err = r.ledger.AdjustInTx(ctx, repos, inventory.AdjustCommand{
			StoreID:   po.StoreID,
			ProductID: po.ProductID,
			Delta:     cmd.ReceivedQuantity,
			Type:      entity.AdjustmentPurchase,
			Reason:    "llegada de compra validada",
			Reference: entity.Reference{ID: po.ID, Type: entity.ReferencePurchase},
			ActorID:   actor.ID,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModificationRetryExhausted) {
			r.metrics.RetriesExhausted("submit_arrival")
		}
		return nil, err
	}
	r.metrics.ArrivalSubmitted(arrival.Accepted)
	if mismatchErr != nil {
		r.log.Warn().
			Str("purchase_id", cmd.PurchaseID).
			Int64("received", cmd.ReceivedQuantity).
			Msg("llegada con cantidad distinta a la pedida")
		return arrival, mismatchErr
	}
	r.ledger.Observe(adj)
	r.log.Info().Str("purchase_id", cmd.PurchaseID).Str("arrival_id", arrival.ID).Msg("orden de compra validada")
	return arrival, nil
}
