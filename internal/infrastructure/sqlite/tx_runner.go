package sqlite

import (
	"context"
	"database/sql"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción SQLite.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner construye el runner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run inicia la transacción, ejecuta fn con repos atados a ella y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(txRepos{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
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
func (t txRepos) PurchaseOrders() repository.PurchaseOrderRepository {
	return NewPurchaseOrderRepository(t.q)
}
func (t txRepos) Arrivals() repository.ArrivalRepository { return NewArrivalRepository(t.q) }
