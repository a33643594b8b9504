package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

// CreateTransferCommand solicitud de traslado entre tiendas.
type CreateTransferCommand struct {
	SourceStoreID      string
	DestinationStoreID string
	ProductID          string
	Quantity           int64
	Notes              string
}

// ReceiveTransferCommand confirmación de recepción en destino.
type ReceiveTransferCommand struct {
	TransferID       string
	ReceivedQuantity int64
}

// CancelTransferCommand cancelación administrativa de un traslado en tránsito.
type CancelTransferCommand struct {
	TransferID string
	Reason     string
}

// TransferCoordinator mueve stock entre tiendas en dos fases: débito en origen al crear,
// crédito en destino al recibir. Todas las escrituras de stock pasan por StockLedger.
type TransferCoordinator struct {
	ledger *StockLedger
	slips  SlipRenderer
}

// NewTransferCoordinator usa la transacción, permisos y catálogos del libro.
// slips puede ser nil si no se generan guías de despacho.
func NewTransferCoordinator(ledger *StockLedger, slips SlipRenderer) *TransferCoordinator {
	return &TransferCoordinator{ledger: ledger, slips: slips}
}

// Create valida, comprueba disponibilidad en origen y debita en la misma transacción.
// Sin stock suficiente en la comprobación previa no persiste nada. Si el débito falla después
// de crear el traslado, éste queda cancelado y se devuelve junto con el error.
func (c *TransferCoordinator) Create(ctx context.Context, actor entity.Actor, cmd CreateTransferCommand) (*entity.Transfer, error) {
	if cmd.SourceStoreID == "" || cmd.DestinationStoreID == "" || cmd.ProductID == "" {
		return nil, fmt.Errorf("%w: origen, destino y producto son obligatorios", domain.ErrInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidTransfer)
	}
	if cmd.SourceStoreID == cmd.DestinationStoreID {
		return nil, fmt.Errorf("%w: origen y destino deben ser distintos", domain.ErrInvalidTransfer)
	}
	if err := Authorize(ctx, c.ledger.gate, actor, cmd.SourceStoreID); err != nil {
		return nil, err
	}
	if err := c.ensureActiveStore(ctx, cmd.SourceStoreID); err != nil {
		return nil, err
	}
	if err := c.ensureActiveStore(ctx, cmd.DestinationStoreID); err != nil {
		return nil, err
	}
	product, err := c.ledger.products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, cmd.ProductID)
	}

	var (
		transfer *entity.Transfer
		adj      *entity.AdjustmentRecord
		debitErr error
	)
	err = c.ledger.run(ctx, "create_transfer", func(repos Repositories) error {
		transfer, adj, debitErr = nil, nil, nil

		avail, err := c.ledger.CheckAvailabilityInTx(ctx, repos, cmd.SourceStoreID, cmd.ProductID, cmd.Quantity)
		if err != nil {
			return err
		}
		if !avail.Available {
			return &domain.InsufficientStockError{
				StoreID:   cmd.SourceStoreID,
				ProductID: cmd.ProductID,
				Current:   avail.Current,
				Requested: cmd.Quantity,
			}
		}

		now := c.ledger.now().UTC()
		t, err := entity.NewTransfer(uuid.New().String(), cmd.SourceStoreID, cmd.DestinationStoreID,
			cmd.ProductID, cmd.Quantity, strings.TrimSpace(cmd.Notes), actor.ID, now)
		if err != nil {
			return err
		}
		if err := repos.Transfers().Create(ctx, t); err != nil {
			return fmt.Errorf("crear traslado: %w", err)
		}

		adj, err = c.ledger.AdjustInTx(ctx, repos, AdjustCommand{
			StoreID:   t.SourceStoreID,
			ProductID: t.ProductID,
			Delta:     -t.Quantity,
			Type:      entity.AdjustmentTransferOut,
			Reason:    "salida por traslado a " + t.DestinationStoreID,
			Reference: entity.Reference{ID: t.ID, Type: entity.ReferenceTransfer},
			ActorID:   actor.ID,
		})
		if errors.Is(err, domain.ErrInsufficientStock) {
			// Otra transacción consumió el stock entre la comprobación y el débito.
			debitErr = err
			if err := t.MarkCancelled("", "débito en origen rechazado: "+err.Error(), now); err != nil {
				return err
			}
			transfer = t
			return repos.Transfers().Update(ctx, t)
		}
		if err != nil {
			return err
		}
		if err := t.MarkDispatched(now); err != nil {
			return err
		}
		transfer = t
		return repos.Transfers().Update(ctx, t)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			c.ledger.metrics.AdjustmentRejected(entity.AdjustmentTransferOut, "insufficient_stock")
		}
		return nil, err
	}
	if debitErr != nil {
		c.ledger.metrics.AdjustmentRejected(entity.AdjustmentTransferOut, "insufficient_stock")
		c.ledger.metrics.TransferTransition(entity.TransferCancelled)
		c.ledger.log.Warn().Err(debitErr).Str("transfer_id", transfer.ID).Msg("traslado cancelado: débito rechazado")
		return transfer, debitErr
	}
	c.ledger.Observe(adj)
	c.ledger.metrics.TransferTransition(entity.TransferInTransit)
	c.ledger.log.Info().
		Str("transfer_id", transfer.ID).
		Str("source", transfer.SourceStoreID).
		Str("destination", transfer.DestinationStoreID).
		Int64("quantity", transfer.Quantity).
		Msg("traslado despachado")
	return transfer, nil
}

// Receive acredita en destino la cantidad recibida y cierra el traslado.
// Una recepción parcial deja la diferencia fuera del stock (merma en tránsito).
func (c *TransferCoordinator) Receive(ctx context.Context, actor entity.Actor, cmd ReceiveTransferCommand) (*entity.Transfer, error) {
	if cmd.TransferID == "" {
		return nil, domain.ErrInvalidInput
	}
	if cmd.ReceivedQuantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad recibida debe ser positiva", domain.ErrInvalidTransfer)
	}
	current, err := c.getTransfer(ctx, cmd.TransferID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(ctx, c.ledger.gate, actor, current.DestinationStoreID); err != nil {
		return nil, err
	}

	var (
		transfer *entity.Transfer
		adj      *entity.AdjustmentRecord
	)
	err = c.ledger.run(ctx, "receive_transfer", func(repos Repositories) error {
		transfer, adj = nil, nil
		t, err := repos.Transfers().GetForUpdate(ctx, cmd.TransferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if err := t.MarkReceived(cmd.ReceivedQuantity, actor.ID, c.ledger.now().UTC()); err != nil {
			return err
		}
		adj, err = c.ledger.AdjustInTx(ctx, repos, AdjustCommand{
			StoreID:   t.DestinationStoreID,
			ProductID: t.ProductID,
			Delta:     cmd.ReceivedQuantity,
			Type:      entity.AdjustmentTransferIn,
			Reason:    "entrada por traslado desde " + t.SourceStoreID,
			Reference: entity.Reference{ID: t.ID, Type: entity.ReferenceTransfer},
			ActorID:   actor.ID,
		})
		if err != nil {
			return err
		}
		transfer = t
		return repos.Transfers().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	c.ledger.Observe(adj)
	c.ledger.metrics.TransferTransition(entity.TransferReceived)
	if shortfall := transfer.Quantity - cmd.ReceivedQuantity; shortfall > 0 {
		c.ledger.log.Warn().
			Str("transfer_id", transfer.ID).
			Int64("shortfall", shortfall).
			Msg("traslado recibido con faltante")
	}
	return transfer, nil
}

// Cancel cancela un traslado en tránsito y devuelve el stock al origen.
// Solo administradores o encargados con acceso a la tienda de origen.
func (c *TransferCoordinator) Cancel(ctx context.Context, actor entity.Actor, cmd CancelTransferCommand) (*entity.Transfer, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if cmd.TransferID == "" || reason == "" {
		return nil, fmt.Errorf("%w: traslado y motivo son obligatorios", domain.ErrInvalidInput)
	}
	if !actor.CanCancelTransfers() {
		return nil, domain.ErrPermissionDenied
	}
	current, err := c.getTransfer(ctx, cmd.TransferID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(ctx, c.ledger.gate, actor, current.SourceStoreID); err != nil {
		return nil, err
	}

	var (
		transfer *entity.Transfer
		adj      *entity.AdjustmentRecord
	)
	err = c.ledger.run(ctx, "cancel_transfer", func(repos Repositories) error {
		transfer, adj = nil, nil
		t, err := repos.Transfers().GetForUpdate(ctx, cmd.TransferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if t.Status != entity.TransferInTransit {
			return fmt.Errorf("%w: el traslado está %s", domain.ErrInvalidTransition, t.Status)
		}
		if err := t.MarkCancelled(actor.ID, reason, c.ledger.now().UTC()); err != nil {
			return err
		}
		adj, err = c.ledger.AdjustInTx(ctx, repos, AdjustCommand{
			StoreID:   t.SourceStoreID,
			ProductID: t.ProductID,
			Delta:     t.Quantity,
			Type:      entity.AdjustmentTransferIn,
			Reason:    "devolución por traslado cancelado: " + reason,
			Reference: entity.Reference{ID: t.ID, Type: entity.ReferenceTransfer},
			ActorID:   actor.ID,
		})
		if err != nil {
			return err
		}
		transfer = t
		return repos.Transfers().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	c.ledger.Observe(adj)
	c.ledger.metrics.TransferTransition(entity.TransferCancelled)
	return transfer, nil
}

// Get devuelve el traslado si el usuario tiene acceso al origen o al destino.
func (c *TransferCoordinator) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Transfer, error) {
	t, err := c.getTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.authorizeEither(ctx, actor, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Movements salida y entrada registradas en el libro para el traslado.
func (c *TransferCoordinator) Movements(ctx context.Context, actor entity.Actor, id string) ([]*entity.AdjustmentRecord, error) {
	t, err := c.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return c.ledger.Movements(ctx, entity.Reference{ID: t.ID, Type: entity.ReferenceTransfer})
}

// List traslados filtrados. Fuera de administración el filtro por tienda es obligatorio.
func (c *TransferCoordinator) List(ctx context.Context, actor entity.Actor, filter repository.TransferFilter) ([]*entity.Transfer, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, filter.Status)
	}
	if filter.StoreID == "" {
		if actor.Role != entity.RoleAdmin {
			return nil, fmt.Errorf("%w: indique la tienda", domain.ErrInvalidInput)
		}
	} else if err := Authorize(ctx, c.ledger.gate, actor, filter.StoreID); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = c.ledger.page(filter.Limit, filter.Offset)

	var out []*entity.Transfer
	err := c.ledger.run(ctx, "list_transfers", func(repos Repositories) error {
		var err error
		out, err = repos.Transfers().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SourceStores tiendas activas desde las que el usuario puede despachar.
func (c *TransferCoordinator) SourceStores(ctx context.Context, actor entity.Actor) ([]*entity.Store, error) {
	if actor.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	stores, err := c.ledger.gate.UserAccessibleStores(ctx, actor.ID, actor.Role)
	if err != nil {
		return nil, fmt.Errorf("tiendas accesibles: %w", err)
	}
	out := make([]*entity.Store, 0, len(stores))
	for _, s := range stores {
		if s != nil && s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

// DispatchSlip genera la guía de despacho (PDF) de un traslado.
func (c *TransferCoordinator) DispatchSlip(ctx context.Context, actor entity.Actor, id string) ([]byte, error) {
	if c.slips == nil {
		return nil, errors.New("generador de guías no configurado")
	}
	t, err := c.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	source, err := c.ledger.stores.GetByID(ctx, t.SourceStoreID)
	if err != nil {
		return nil, err
	}
	destination, err := c.ledger.stores.GetByID(ctx, t.DestinationStoreID)
	if err != nil {
		return nil, err
	}
	product, err := c.ledger.products.GetByID(ctx, t.ProductID)
	if err != nil {
		return nil, err
	}
	if source == nil || destination == nil || product == nil {
		return nil, domain.ErrNotFound
	}
	return c.slips.RenderTransferSlip(ctx, TransferSlip{
		Transfer:    t,
		Source:      source,
		Destination: destination,
		Product:     product,
	})
}

func (c *TransferCoordinator) getTransfer(ctx context.Context, id string) (*entity.Transfer, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	var t *entity.Transfer
	err := c.ledger.run(ctx, "get_transfer", func(repos Repositories) error {
		var err error
		t, err = repos.Transfers().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (c *TransferCoordinator) authorizeEither(ctx context.Context, actor entity.Actor, t *entity.Transfer) error {
	err := Authorize(ctx, c.ledger.gate, actor, t.SourceStoreID)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		return err
	}
	return Authorize(ctx, c.ledger.gate, actor, t.DestinationStoreID)
}

func (c *TransferCoordinator) ensureActiveStore(ctx context.Context, id string) error {
	s, err := c.ledger.stores.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, id)
	}
	if !s.Active {
		return fmt.Errorf("%w: la tienda %s está inactiva", domain.ErrInvalidTransfer, id)
	}
	return nil
}
