//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/application/purchasing"
	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
	"github.com/jhoicas/retail-stock/internal/infrastructure/access"
	"github.com/jhoicas/retail-stock/internal/infrastructure/migration"
	"github.com/jhoicas/retail-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/retail-stock/pkg/config"
	"github.com/jhoicas/retail-stock/pkg/logger"
)

const migrationsDir = "../../../migrations"

// newPool levanta un PostgreSQL efímero, aplica las migraciones y devuelve el pool.
func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("retail_stock_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "iniciar contenedor PostgreSQL")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminar contenedor: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.New(dsn, migrationsDir, logger.Nop(), false)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 30})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type fixture struct {
	ledger    *inventory.StockLedger
	transfers *inventory.TransferCoordinator
	purchases *purchasing.PurchaseOrderUseCase
	arrivals  *purchasing.ArrivalReconciler
}

// seed s1 y s2 activas, producto p1; manager-1 accede a s1 y seller-1 a s2.
func seed(t *testing.T, pool *pgxpool.Pool) fixture {
	t.Helper()
	ctx := context.Background()
	stores := postgres.NewStoreRepository(pool)
	products := postgres.NewProductRepository(pool)
	accessRepo := postgres.NewStoreAccessRepository(pool)

	now := time.Now().UTC()
	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, stores.Create(ctx, &entity.Store{ID: id, Name: "Tienda " + id, Active: true, CreatedAt: now, UpdatedAt: now}))
	}
	require.NoError(t, products.Create(ctx, &entity.Product{ID: "p1", SKU: "SKU-1", Name: "Camiseta", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, accessRepo.Grant(ctx, "manager-1", "s1"))
	require.NoError(t, accessRepo.Grant(ctx, "seller-1", "s2"))
	require.NoError(t, accessRepo.Grant(ctx, "manager-1", "s1"), "Grant es idempotente")

	tx := postgres.NewTxRunner(pool)
	gate := access.NewStoreGate(stores, accessRepo)
	retry := inventory.RetryPolicy{MaxAttempts: 5, Backoff: 5 * time.Millisecond}
	ledger := inventory.NewStockLedger(tx, gate, stores, products, inventory.LedgerConfig{Retry: retry}, logger.Nop())
	return fixture{
		ledger:    ledger,
		transfers: inventory.NewTransferCoordinator(ledger, nil),
		purchases: purchasing.NewPurchaseOrderUseCase(tx, gate, stores, products, retry),
		arrivals:  purchasing.NewArrivalReconciler(tx, gate, ledger, retry, logger.Nop()),
	}
}

func TestPostgres_ConcurrentDebitsNeverOversell(t *testing.T) {
	pool := newPool(t)
	f := seed(t, pool)
	ctx := context.Background()

	_, err := f.ledger.Adjust(ctx, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: 10, Type: entity.AdjustmentPurchase})
	require.NoError(t, err)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Adjust(ctx, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: -1, Type: entity.AdjustmentSale})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, rejected)

	admin := entity.Actor{ID: "admin-1", Role: entity.RoleAdmin}
	check, err := f.ledger.Verify(ctx, admin, "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), check.Quantity)
	assert.True(t, check.Consistent)
	assert.Equal(t, int64(11), check.Entries, "los débitos rechazados no dejan registro")
}

func TestPostgres_TransferLifecycle(t *testing.T) {
	pool := newPool(t)
	f := seed(t, pool)
	ctx := context.Background()
	manager := entity.Actor{ID: "manager-1", Role: entity.RoleManager}
	seller := entity.Actor{ID: "seller-1", Role: entity.RoleSeller}

	_, err := f.ledger.Adjust(ctx, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: 8, Type: entity.AdjustmentPurchase})
	require.NoError(t, err)

	tr, err := f.transfers.Create(ctx, manager, inventory.CreateTransferCommand{
		SourceStoreID: "s1", DestinationStoreID: "s2", ProductID: "p1", Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, tr.Status)

	got, err := f.transfers.Receive(ctx, seller, inventory.ReceiveTransferCommand{TransferID: tr.ID, ReceivedQuantity: 5})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferReceived, got.Status)

	_, err = f.transfers.Receive(ctx, seller, inventory.ReceiveTransferCommand{TransferID: tr.ID, ReceivedQuantity: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	src, err := f.ledger.GetStock(ctx, manager, "s1", "p1")
	require.NoError(t, err)
	dst, err := f.ledger.GetStock(ctx, seller, "s2", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), src.Quantity)
	assert.Equal(t, int64(5), dst.Quantity)

	list, err := f.transfers.List(ctx, seller, repository.TransferFilter{StoreID: "s2", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostgres_ArrivalValidatesOnce(t *testing.T) {
	pool := newPool(t)
	f := seed(t, pool)
	ctx := context.Background()
	manager := entity.Actor{ID: "manager-1", Role: entity.RoleManager}

	po, err := f.purchases.Create(ctx, manager, purchasing.CreatePurchaseOrderCommand{
		StoreID: "s1", SupplierID: "prov-1", ProductID: "p1", OrderedQuantity: 6, UnitPrice: decimal.RequireFromString("1999.99"),
	})
	require.NoError(t, err)

	stored, err := f.purchases.Get(ctx, manager, po.ID)
	require.NoError(t, err)
	assert.True(t, stored.UnitPrice.Equal(decimal.RequireFromString("1999.99")), "NUMERIC se conserva exacto")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.arrivals.SubmitArrival(ctx, manager, purchasing.SubmitArrivalCommand{PurchaseID: po.ID, ReceivedQuantity: 6})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyValidated)
	}
	assert.Equal(t, 1, accepted)

	rec, err := f.ledger.GetStock(ctx, manager, "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.Quantity)
}

func TestPostgres_ReadsDoNotMaterializeStockRows(t *testing.T) {
	pool := newPool(t)
	f := seed(t, pool)
	ctx := context.Background()
	manager := entity.Actor{ID: "manager-1", Role: entity.RoleManager}

	check, err := f.ledger.Verify(ctx, manager, "s1", "p1")
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	_, err = f.ledger.Recount(ctx, manager, inventory.RecountCommand{StoreID: "s1", ProductID: "p1", Counted: 0})
	require.NoError(t, err)

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM stock_records WHERE store_id = 's1'`).Scan(&rows))
	assert.Zero(t, rows)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Recount(ctx, manager, inventory.RecountCommand{StoreID: "s1", ProductID: "p1", Counted: 6})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := f.ledger.GetStock(ctx, manager, "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.Quantity, "conteos concurrentes sobre un par nuevo no se suman")
	check, err = f.ledger.Verify(ctx, manager, "s1", "p1")
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.Equal(t, int64(1), check.Entries)
}
