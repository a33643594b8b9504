package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

func TestAdjust_CreditDebitAndReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.ledger.Adjust(ctx, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: 10, Type: entity.AdjustmentPurchase})
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Quantity)

	rec, err = f.ledger.Adjust(ctx, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: -10, Type: entity.AdjustmentSale})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Quantity)

	_, err = f.ledger.Adjust(ctx, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: -1, Type: entity.AdjustmentSale})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(0), insufficient.Current)
	assert.Equal(t, int64(1), insufficient.Requested)

	assert.Equal(t, int64(0), f.quantity(t, "s1"))
	history, err := f.ledger.History(ctx, admin, "s1", "p1", 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 2, "el débito rechazado no deja entrada")
	assert.Equal(t, int64(-10), history[0].Delta)
	assert.Equal(t, int64(10), history[0].PreviousQuantity)
	assert.Equal(t, int64(0), history[0].NewQuantity)
	assert.Equal(t, 1, f.metrics.rejected)
	f.requireConsistent(t, "s1")
}

func TestAdjust_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]inventory.AdjustCommand{
		"delta cero":    {StoreID: "s1", ProductID: "p1", Delta: 0, Type: entity.AdjustmentManual},
		"tipo inválido": {StoreID: "s1", ProductID: "p1", Delta: 1, Type: "gift"},
		"sin tienda":    {ProductID: "p1", Delta: 1, Type: entity.AdjustmentManual},
		"sin producto":  {StoreID: "s1", Delta: 1, Type: entity.AdjustmentManual},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ledger.Adjust(ctx, cmd)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAdjust_CorrectionMayGoNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "s1", 2)

	rec, err := f.ledger.Adjust(ctx, inventory.AdjustCommand{
		StoreID: "s1", ProductID: "p1", Delta: -5, Type: entity.AdjustmentCorrection, Reason: "error de carga",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), rec.Quantity)

	_, err = f.ledger.Adjust(ctx, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: -1, Type: entity.AdjustmentLoss})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	f.requireConsistent(t, "s1")
}

func TestAdjust_ConcurrentDebitsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "s1", 5)

	const workers = 2
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Adjust(ctx, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: -5, Type: entity.AdjustmentSale})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			fail++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, fail)
	assert.Equal(t, int64(0), f.quantity(t, "s1"))
	f.requireConsistent(t, "s1")
}

func TestAdjustStock_Boundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("tipos de traslado reservados", func(t *testing.T) {
		_, err := f.ledger.AdjustStock(ctx, admin, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: 3, Type: entity.AdjustmentTransferIn})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("sin acceso a la tienda", func(t *testing.T) {
		_, err := f.ledger.AdjustStock(ctx, seller, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: 3, Type: entity.AdjustmentManual})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("producto inexistente", func(t *testing.T) {
		_, err := f.ledger.AdjustStock(ctx, admin, inventory.AdjustCommand{StoreID: "s1", ProductID: "nope", Delta: 3, Type: entity.AdjustmentManual})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("encargado con acceso registra actor", func(t *testing.T) {
		rec, err := f.ledger.AdjustStock(ctx, manager, inventory.AdjustCommand{StoreID: "s1", ProductID: "p1", Delta: 3, Type: entity.AdjustmentManual, Reason: "hallazgo"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), rec.Quantity)

		history, err := f.ledger.History(ctx, manager, "s1", "p1", 1, 0)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, manager.ID, history[0].ActorID)
		assert.Equal(t, "hallazgo", history[0].Reason)
	})
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "s1", 4)

	avail, err := f.ledger.CheckAvailability(ctx, "s1", "p1", 4)
	require.NoError(t, err)
	assert.True(t, avail.Available, "disponibilidad exacta")
	assert.Equal(t, int64(4), avail.Current)

	avail, err = f.ledger.CheckAvailability(ctx, "s1", "p1", 5)
	require.NoError(t, err)
	assert.False(t, avail.Available)

	avail, err = f.ledger.CheckAvailability(ctx, "s2", "p1", 0)
	require.NoError(t, err)
	assert.True(t, avail.Available, "cero requerido siempre disponible")

	_, err = f.ledger.CheckAvailability(ctx, "s1", "p1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "s1", 10)

	rec, err := f.ledger.Recount(ctx, manager, inventory.RecountCommand{StoreID: "s1", ProductID: "p1", Counted: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.Quantity)

	history, err := f.ledger.History(ctx, admin, "s1", "p1", 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.AdjustmentManual, history[0].Type)
	assert.Equal(t, int64(-3), history[0].Delta)
	assert.Equal(t, entity.ReferenceRecount, history[0].ReferenceType)

	rec, err = f.ledger.Recount(ctx, manager, inventory.RecountCommand{StoreID: "s1", ProductID: "p1", Counted: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.Quantity)
	all, err := f.ledger.History(ctx, admin, "s1", "p1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2, "un conteo igual no escribe")

	_, err = f.ledger.Recount(ctx, manager, inventory.RecountCommand{StoreID: "s1", ProductID: "p1", Counted: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.Recount(ctx, seller, inventory.RecountCommand{StoreID: "s1", ProductID: "p1", Counted: 1})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	f.requireConsistent(t, "s1")
}

func TestVerifyAndZeroRecountDoNotCreateStockRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	check, err := f.ledger.Verify(ctx, manager, "s1", "p1")
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.Zero(t, check.Entries)

	rec, err := f.ledger.Recount(ctx, manager, inventory.RecountCommand{StoreID: "s1", ProductID: "p1", Counted: 0})
	require.NoError(t, err)
	assert.Zero(t, rec.Quantity)

	stock, err := f.ledger.ListStock(ctx, manager, "s1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, stock, "consultar un par sin movimientos no lo da de alta")

	rec, err = f.ledger.Recount(ctx, manager, inventory.RecountCommand{StoreID: "s1", ProductID: "p1", Counted: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Quantity)
	stock, err = f.ledger.ListStock(ctx, manager, "s1", 10, 0)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	f.requireConsistent(t, "s1")
}

func TestListStockAndHistoryPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.seed(t, "s1", 1)
	}

	page, err := f.ledger.History(ctx, admin, "s1", "p1", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].NewQuantity)

	stock, err := f.ledger.ListStock(ctx, manager, "s1", 10, 0)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, int64(5), stock[0].Quantity)

	_, err = f.ledger.ListStock(ctx, seller, "s1", 10, 0)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}
