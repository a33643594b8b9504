package inventory

import (
	"context"

	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

// Repositories repositorios atados a una misma transacción de BD.
type Repositories interface {
	Stock() repository.StockRepository
	Adjustments() repository.AdjustmentRepository
	Transfers() repository.TransferRepository
	PurchaseOrders() repository.PurchaseOrderRepository
	Arrivals() repository.ArrivalRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil, Rollback en cualquier otro caso. Un conflicto de serialización se
// reporta como domain.ErrConcurrentModification para que el llamador pueda reintentar.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}

// PermissionGate colaborador externo que decide la visibilidad de tiendas por usuario.
type PermissionGate interface {
	CanAccessStore(ctx context.Context, userID, storeID, role string) (bool, error)
	UserAccessibleStores(ctx context.Context, userID, role string) ([]*entity.Store, error)
}

// Metrics contadores de negocio del libro de stock. La implementación Prometheus vive en infraestructura.
type Metrics interface {
	AdjustmentApplied(t entity.AdjustmentType, delta int64)
	AdjustmentRejected(t entity.AdjustmentType, reason string)
	TransferTransition(status entity.TransferStatus)
	ArrivalSubmitted(accepted bool)
	RetriesExhausted(operation string)
}

// SlipRenderer genera la guía de despacho imprimible de un traslado.
type SlipRenderer interface {
	RenderTransferSlip(ctx context.Context, slip TransferSlip) ([]byte, error)
}

// TransferSlip datos que acompañan la mercancía en tránsito.
type TransferSlip struct {
	Transfer    *entity.Transfer
	Source      *entity.Store
	Destination *entity.Store
	Product     *entity.Product
}

type nopMetrics struct{}

func (nopMetrics) AdjustmentApplied(entity.AdjustmentType, int64)   {}
func (nopMetrics) AdjustmentRejected(entity.AdjustmentType, string) {}
func (nopMetrics) TransferTransition(entity.TransferStatus)         {}
func (nopMetrics) ArrivalSubmitted(bool)                            {}
func (nopMetrics) RetriesExhausted(string)                          {}

// NopMetrics implementación vacía para tests y binarios sin /metrics.
func NopMetrics() Metrics { return nopMetrics{} }
