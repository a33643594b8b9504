package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// Los débitos se serializan por el bloqueo de fila del UPDATE condicional.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(txRepos{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

type txRepos struct {
	q Querier
}

func (t txRepos) Stock() repository.StockRepository            { return NewStockRepository(t.q) }
func (t txRepos) Adjustments() repository.AdjustmentRepository { return NewAdjustmentRepository(t.q) }
func (t txRepos) Transfers() repository.TransferRepository     { return NewTransferRepository(t.q) }
func (t txRepos) Arrivals() repository.ArrivalRepository       { return NewArrivalRepository(t.q) }

func (t txRepos) PurchaseOrders() repository.PurchaseOrderRepository {
	return NewPurchaseOrderRepository(t.q)
}
