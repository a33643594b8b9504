package inventory_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/infrastructure/access"
	"github.com/jhoicas/retail-stock/internal/infrastructure/sqlite"
	"github.com/jhoicas/retail-stock/pkg/logger"
)

var (
	admin   = entity.Actor{ID: "admin-1", Role: entity.RoleAdmin}
	manager = entity.Actor{ID: "manager-1", Role: entity.RoleManager}
	seller  = entity.Actor{ID: "seller-1", Role: entity.RoleSeller}
)

type fixture struct {
	db          *sql.DB
	ledger      *inventory.StockLedger
	transfers   *inventory.TransferCoordinator
	metrics     *countingMetrics
	storeAccess *sqlite.StoreAccessRepo
}

// newFixture base SQLite en memoria con tiendas s1, s2 (activas), s3 (inactiva) y producto p1.
// manager-1 tiene acceso a s1; seller-1 a s2.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	stores := sqlite.NewStoreRepository(db)
	products := sqlite.NewProductRepository(db)
	accessRepo := sqlite.NewStoreAccessRepository(db)
	now := time.Now().UTC()
	for _, s := range []struct {
		id     string
		active bool
	}{{"s1", true}, {"s2", true}, {"s3", false}} {
		require.NoError(t, stores.Create(ctx, &entity.Store{ID: s.id, Name: "Tienda " + s.id, Active: s.active, CreatedAt: now, UpdatedAt: now}))
	}
	require.NoError(t, products.Create(ctx, &entity.Product{ID: "p1", SKU: "SKU-1", Name: "Camiseta", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, accessRepo.Grant(ctx, manager.ID, "s1"))
	require.NoError(t, accessRepo.Grant(ctx, seller.ID, "s2"))

	ledger := inventory.NewStockLedger(
		sqlite.NewTxRunner(db),
		access.NewStoreGate(stores, accessRepo),
		stores,
		products,
		inventory.LedgerConfig{Retry: inventory.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}},
		logger.Nop(),
	)
	m := &countingMetrics{}
	ledger.SetMetrics(m)
	return &fixture{
		db:          db,
		ledger:      ledger,
		transfers:   inventory.NewTransferCoordinator(ledger, nil),
		metrics:     m,
		storeAccess: accessRepo,
	}
}

// seed acredita stock inicial con una compra.
func (f *fixture) seed(t *testing.T, storeID string, qty int64) {
	t.Helper()
	_, err := f.ledger.Adjust(context.Background(), inventory.AdjustCommand{
		StoreID: storeID, ProductID: "p1", Delta: qty, Type: entity.AdjustmentPurchase, Reason: "stock inicial",
	})
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, storeID string) int64 {
	t.Helper()
	rec, err := f.ledger.GetStock(context.Background(), admin, storeID, "p1")
	require.NoError(t, err)
	return rec.Quantity
}

// requireConsistent la suma del historial reproduce la cantidad.
func (f *fixture) requireConsistent(t *testing.T, storeID string) {
	t.Helper()
	check, err := f.ledger.Verify(context.Background(), admin, storeID, "p1")
	require.NoError(t, err)
	require.True(t, check.Consistent, "cantidad %d, suma del libro %d", check.Quantity, check.LedgerSum)
}

type countingMetrics struct {
	mu        sync.Mutex
	applied   int
	rejected  int
	statuses  []entity.TransferStatus
	exhausted int
}

func (m *countingMetrics) AdjustmentApplied(entity.AdjustmentType, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied++
}

func (m *countingMetrics) AdjustmentRejected(entity.AdjustmentType, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected++
}

func (m *countingMetrics) TransferTransition(s entity.TransferStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, s)
}

func (m *countingMetrics) ArrivalSubmitted(bool) {}

func (m *countingMetrics) RetriesExhausted(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exhausted++
}
