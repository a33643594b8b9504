package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
	"github.com/jhoicas/retail-stock/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	defaultHistoryMax   = 200
)

// LedgerConfig parámetros del libro de stock.
type LedgerConfig struct {
	Retry      RetryPolicy
	HistoryMax int // tope de entradas por página de historial
}

// AdjustCommand cambio de stock a aplicar. Delta positivo acredita, negativo debita.
type AdjustCommand struct {
	StoreID   string
	ProductID string
	Delta     int64
	Type      entity.AdjustmentType
	Reason    string
	Reference entity.Reference
	ActorID   string
}

// RecountCommand conteo físico que reemplaza la cantidad registrada.
type RecountCommand struct {
	StoreID   string
	ProductID string
	Counted   int64
	Reason    string
}

// Availability resultado de consultar disponibilidad.
type Availability struct {
	StoreID   string
	ProductID string
	Current   int64
	Required  int64
	Available bool
}

// LedgerCheck compara la cantidad registrada con la suma del historial.
type LedgerCheck struct {
	StoreID    string
	ProductID  string
	Quantity   int64
	LedgerSum  int64
	Entries    int64
	Consistent bool
}

// StockLedger única vía de escritura de StockRecord. Cada cambio deja un AdjustmentRecord
// en la misma transacción.
type StockLedger struct {
	tx         TxRunner
	gate       PermissionGate
	stores     repository.StoreRepository
	products   repository.ProductRepository
	retry      RetryPolicy
	historyMax int
	log        *logger.Logger
	metrics    Metrics
	now        func() time.Time
}

// NewStockLedger construye el libro. stores y products se usan para validar en el borde.
func NewStockLedger(
	tx TxRunner,
	gate PermissionGate,
	stores repository.StoreRepository,
	products repository.ProductRepository,
	cfg LedgerConfig,
	log *logger.Logger,
) *StockLedger {
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.HistoryMax <= 0 {
		cfg.HistoryMax = defaultHistoryMax
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StockLedger{
		tx:         tx,
		gate:       gate,
		stores:     stores,
		products:   products,
		retry:      cfg.Retry,
		historyMax: cfg.HistoryMax,
		log:        log.Named("stock_ledger"),
		metrics:    NopMetrics(),
		now:        time.Now,
	}
}

// SetMetrics reemplaza los contadores (por defecto no hace nada).
func (l *StockLedger) SetMetrics(m Metrics) {
	if m != nil {
		l.metrics = m
	}
}

// Adjust aplica un ajuste en su propia transacción. Es la entrada de los flujos internos
// (ventas, pérdidas) y no verifica permisos de usuario.
func (l *StockLedger) Adjust(ctx context.Context, cmd AdjustCommand) (*entity.StockRecord, error) {
	var adj *entity.AdjustmentRecord
	err := l.run(ctx, "adjust", func(repos Repositories) error {
		var err error
		adj, err = l.AdjustInTx(ctx, repos, cmd)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			l.metrics.AdjustmentRejected(cmd.Type, "insufficient_stock")
		}
		return nil, err
	}
	l.Observe(adj)
	return recordFrom(adj), nil
}

// AdjustStock ajuste solicitado por un usuario. Los tipos de traslado quedan reservados al
// coordinador de traslados y el usuario debe tener acceso a la tienda.
func (l *StockLedger) AdjustStock(ctx context.Context, actor entity.Actor, cmd AdjustCommand) (*entity.StockRecord, error) {
	if err := validateAdjust(cmd); err != nil {
		return nil, err
	}
	if cmd.Type.Reserved() {
		return nil, fmt.Errorf("%w: el tipo %s solo lo emiten los traslados", domain.ErrInvalidInput, cmd.Type)
	}
	if err := Authorize(ctx, l.gate, actor, cmd.StoreID); err != nil {
		return nil, err
	}
	if err := l.ensureStoreProduct(ctx, cmd.StoreID, cmd.ProductID); err != nil {
		return nil, err
	}
	cmd.ActorID = actor.ID
	return l.Adjust(ctx, cmd)
}

// AdjustInTx aplica el ajuste con repositorios de una transacción abierta por el llamador.
// Los coordinadores lo usan para que el cambio de stock y su documento se confirmen juntos.
// El llamador debe invocar Observe tras el commit.
func (l *StockLedger) AdjustInTx(ctx context.Context, repos Repositories, cmd AdjustCommand) (*entity.AdjustmentRecord, error) {
	if err := validateAdjust(cmd); err != nil {
		return nil, err
	}
	previous, current, err := repos.Stock().ApplyDelta(ctx, cmd.StoreID, cmd.ProductID, cmd.Delta, cmd.Type.AllowsNegative())
	if err != nil {
		return nil, err
	}
	adj := &entity.AdjustmentRecord{
		ID:               uuid.New().String(),
		StoreID:          cmd.StoreID,
		ProductID:        cmd.ProductID,
		Type:             cmd.Type,
		PreviousQuantity: previous,
		NewQuantity:      current,
		Delta:            cmd.Delta,
		Reason:           cmd.Reason,
		ReferenceID:      cmd.Reference.ID,
		ReferenceType:    cmd.Reference.Type,
		ActorID:          cmd.ActorID,
		CreatedAt:        l.now().UTC(),
	}
	if err := repos.Adjustments().Append(ctx, adj); err != nil {
		return nil, fmt.Errorf("registrar ajuste: %w", err)
	}
	return adj, nil
}

// Observe registra métricas y log de ajustes ya confirmados.
func (l *StockLedger) Observe(adjs ...*entity.AdjustmentRecord) {
	for _, adj := range adjs {
		if adj == nil {
			continue
		}
		l.metrics.AdjustmentApplied(adj.Type, adj.Delta)
		l.log.Info().
			Str("store_id", adj.StoreID).
			Str("product_id", adj.ProductID).
			Str("type", string(adj.Type)).
			Int64("delta", adj.Delta).
			Int64("quantity", adj.NewQuantity).
			Str("reference", adj.ReferenceType+":"+adj.ReferenceID).
			Msg("ajuste de stock aplicado")
	}
}

// Movements ajustes emitidos por un documento (traslado, compra) en orden de aplicación.
// No autoriza: el llamador ya validó el acceso al documento.
func (l *StockLedger) Movements(ctx context.Context, ref entity.Reference) ([]*entity.AdjustmentRecord, error) {
	if ref.ID == "" || ref.Type == "" {
		return nil, domain.ErrInvalidInput
	}
	var out []*entity.AdjustmentRecord
	err := l.run(ctx, "movements", func(repos Repositories) error {
		var err error
		out, err = repos.Adjustments().ListByReference(ctx, ref.Type, ref.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckAvailability indica si la tienda tiene al menos required unidades. No escribe nada.
func (l *StockLedger) CheckAvailability(ctx context.Context, storeID, productID string, required int64) (*Availability, error) {
	var out *Availability
	err := l.run(ctx, "check_availability", func(repos Repositories) error {
		var err error
		out, err = l.CheckAvailabilityInTx(ctx, repos, storeID, productID, required)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckStoreAvailability CheckAvailability para un usuario; requiere acceso a la tienda.
func (l *StockLedger) CheckStoreAvailability(ctx context.Context, actor entity.Actor, storeID, productID string, required int64) (*Availability, error) {
	if storeID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := Authorize(ctx, l.gate, actor, storeID); err != nil {
		return nil, err
	}
	return l.CheckAvailability(ctx, storeID, productID, required)
}

// CheckAvailabilityInTx variante dentro de una transacción abierta.
func (l *StockLedger) CheckAvailabilityInTx(ctx context.Context, repos Repositories, storeID, productID string, required int64) (*Availability, error) {
	if storeID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if required < 0 {
		return nil, fmt.Errorf("%w: la cantidad requerida no puede ser negativa", domain.ErrInvalidInput)
	}
	rec, err := repos.Stock().Get(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return &Availability{
		StoreID:   storeID,
		ProductID: productID,
		Current:   rec.Quantity,
		Required:  required,
		Available: rec.Quantity >= required,
	}, nil
}

// GetStock stock actual del par; 0 si nunca hubo movimientos.
func (l *StockLedger) GetStock(ctx context.Context, actor entity.Actor, storeID, productID string) (*entity.StockRecord, error) {
	if storeID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := Authorize(ctx, l.gate, actor, storeID); err != nil {
		return nil, err
	}
	var rec *entity.StockRecord
	err := l.run(ctx, "get_stock", func(repos Repositories) error {
		var err error
		rec, err = repos.Stock().Get(ctx, storeID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// History historial del par, más reciente primero.
func (l *StockLedger) History(ctx context.Context, actor entity.Actor, storeID, productID string, limit, offset int) ([]*entity.AdjustmentRecord, error) {
	if storeID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := Authorize(ctx, l.gate, actor, storeID); err != nil {
		return nil, err
	}
	limit, offset = l.page(limit, offset)
	var out []*entity.AdjustmentRecord
	err := l.run(ctx, "history", func(repos Repositories) error {
		var err error
		out, err = repos.Adjustments().ListByStoreProduct(ctx, storeID, productID, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListStock existencias de una tienda.
func (l *StockLedger) ListStock(ctx context.Context, actor entity.Actor, storeID string, limit, offset int) ([]*entity.StockRecord, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := Authorize(ctx, l.gate, actor, storeID); err != nil {
		return nil, err
	}
	limit, offset = l.page(limit, offset)
	var out []*entity.StockRecord
	err := l.run(ctx, "list_stock", func(repos Repositories) error {
		var err error
		out, err = repos.Stock().ListByStore(ctx, storeID, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Recount fija la cantidad al conteo físico mediante un ajuste manual por la diferencia.
// Si el conteo coincide no escribe nada y devuelve el registro actual.
func (l *StockLedger) Recount(ctx context.Context, actor entity.Actor, cmd RecountCommand) (*entity.StockRecord, error) {
	if cmd.StoreID == "" || cmd.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if cmd.Counted < 0 {
		return nil, fmt.Errorf("%w: el conteo no puede ser negativo", domain.ErrInvalidInput)
	}
	if err := Authorize(ctx, l.gate, actor, cmd.StoreID); err != nil {
		return nil, err
	}
	if err := l.ensureStoreProduct(ctx, cmd.StoreID, cmd.ProductID); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "conteo físico"
	}

	var (
		rec *entity.StockRecord
		adj *entity.AdjustmentRecord
	)
	err := l.run(ctx, "recount", func(repos Repositories) error {
		rec, adj = nil, nil
		// Un conteo en cero sobre un par sin movimientos no escribe; no hace falta crear la fila.
		read := repos.Stock().GetForUpdate
		if cmd.Counted != 0 {
			read = repos.Stock().LockForWrite
		}
		current, err := read(ctx, cmd.StoreID, cmd.ProductID)
		if err != nil {
			return err
		}
		delta := cmd.Counted - current.Quantity
		if delta == 0 {
			rec = current
			return nil
		}
		adj, err = l.AdjustInTx(ctx, repos, AdjustCommand{
			StoreID:   cmd.StoreID,
			ProductID: cmd.ProductID,
			Delta:     delta,
			Type:      entity.AdjustmentManual,
			Reason:    reason,
			Reference: entity.Reference{ID: uuid.New().String(), Type: entity.ReferenceRecount},
			ActorID:   actor.ID,
		})
		if err != nil {
			return err
		}
		rec = recordFrom(adj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.Observe(adj)
	return rec, nil
}

// Verify recalcula la suma del historial y la compara con la cantidad registrada.
func (l *StockLedger) Verify(ctx context.Context, actor entity.Actor, storeID, productID string) (*LedgerCheck, error) {
	if storeID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := Authorize(ctx, l.gate, actor, storeID); err != nil {
		return nil, err
	}
	var out *LedgerCheck
	err := l.run(ctx, "verify", func(repos Repositories) error {
		rec, err := repos.Stock().GetForUpdate(ctx, storeID, productID)
		if err != nil {
			return err
		}
		sum, entries, err := repos.Adjustments().Sum(ctx, storeID, productID)
		if err != nil {
			return err
		}
		out = &LedgerCheck{
			StoreID:    storeID,
			ProductID:  productID,
			Quantity:   rec.Quantity,
			LedgerSum:  sum,
			Entries:    entries,
			Consistent: sum == rec.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Consistent {
		l.log.Error().
			Str("store_id", storeID).
			Str("product_id", productID).
			Int64("quantity", out.Quantity).
			Int64("ledger_sum", out.LedgerSum).
			Msg("stock y libro no coinciden")
	}
	return out, nil
}

// run envuelve RunInTx y cuenta los reintentos agotados.
func (l *StockLedger) run(ctx context.Context, operation string, fn func(repos Repositories) error) error {
	err := RunInTx(ctx, l.tx, l.retry, l.log, fn)
	if errors.Is(err, domain.ErrConcurrentModificationRetryExhausted) {
		l.metrics.RetriesExhausted(operation)
		l.log.Error().Err(err).Str("operation", operation).Msg("reintentos agotados")
	}
	return err
}

func (l *StockLedger) page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > l.historyMax {
		limit = l.historyMax
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (l *StockLedger) ensureStoreProduct(ctx context.Context, storeID, productID string) error {
	store, err := l.stores.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, storeID)
	}
	product, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	return nil
}

// Authorize consulta la puerta de permisos y traduce una negativa a domain.ErrPermissionDenied.
func Authorize(ctx context.Context, gate PermissionGate, actor entity.Actor, storeID string) error {
	if actor.ID == "" {
		return domain.ErrUnauthorized
	}
	ok, err := gate.CanAccessStore(ctx, actor.ID, storeID, actor.Role)
	if err != nil {
		return fmt.Errorf("verificar acceso a tienda: %w", err)
	}
	if !ok {
		return domain.ErrPermissionDenied
	}
	return nil
}

func validateAdjust(cmd AdjustCommand) error {
	if cmd.StoreID == "" || cmd.ProductID == "" {
		return fmt.Errorf("%w: tienda y producto son obligatorios", domain.ErrInvalidInput)
	}
	if cmd.Delta == 0 {
		return fmt.Errorf("%w: el delta no puede ser cero", domain.ErrInvalidInput)
	}
	if !cmd.Type.IsValid() {
		return fmt.Errorf("%w: tipo de ajuste %q", domain.ErrInvalidInput, cmd.Type)
	}
	return nil
}

func recordFrom(adj *entity.AdjustmentRecord) *entity.StockRecord {
	return &entity.StockRecord{
		StoreID:   adj.StoreID,
		ProductID: adj.ProductID,
		Quantity:  adj.NewQuantity,
		UpdatedAt: adj.CreatedAt,
	}
}
