// Package metrics exporta los contadores del libro de stock en formato Prometheus.
package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

const namespace = "retail_stock"

var _ inventory.Metrics = (*Prometheus)(nil)

// Prometheus implementa inventory.Metrics sobre un registry propio.
// Seguro para uso concurrente.
type Prometheus struct {
	registry *prometheus.Registry

	adjustmentsTotal *prometheus.CounterVec
	unitsTotal       *prometheus.CounterVec
	rejectedTotal    *prometheus.CounterVec
	transfersTotal   *prometheus.CounterVec
	arrivalsTotal    *prometheus.CounterVec
	retriesExhausted *prometheus.CounterVec
}

// NewPrometheus registra los colectores. withRuntime añade métricas de Go y del proceso.
func NewPrometheus(withRuntime bool) *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		adjustmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjustments_total",
			Help:      "Ajustes de stock aplicados por tipo.",
		}, []string{"type"}),
		unitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjustment_units_total",
			Help:      "Unidades movidas por tipo y dirección.",
		}, []string{"type", "direction"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjustments_rejected_total",
			Help:      "Ajustes rechazados por tipo y motivo.",
		}, []string{"type", "reason"}),
		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_transitions_total",
			Help:      "Transiciones de traslados por estado destino.",
		}, []string{"status"}),
		arrivalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arrivals_total",
			Help:      "Llegadas registradas según si fueron aceptadas.",
		}, []string{"accepted"}),
		retriesExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_exhausted_total",
			Help:      "Operaciones que agotaron los reintentos por conflicto de concurrencia.",
		}, []string{"operation"}),
	}
	reg.MustRegister(p.adjustmentsTotal, p.unitsTotal, p.rejectedTotal, p.transfersTotal, p.arrivalsTotal, p.retriesExhausted)
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return p
}

// AdjustmentApplied cuenta el ajuste y sus unidades.
func (p *Prometheus) AdjustmentApplied(t entity.AdjustmentType, delta int64) {
	p.adjustmentsTotal.WithLabelValues(string(t)).Inc()
	direction, units := "in", delta
	if delta < 0 {
		direction, units = "out", -delta
	}
	p.unitsTotal.WithLabelValues(string(t), direction).Add(float64(units))
}

// AdjustmentRejected cuenta un ajuste rechazado.
func (p *Prometheus) AdjustmentRejected(t entity.AdjustmentType, reason string) {
	p.rejectedTotal.WithLabelValues(string(t), reason).Inc()
}

// TransferTransition cuenta el paso de un traslado a status.
func (p *Prometheus) TransferTransition(status entity.TransferStatus) {
	p.transfersTotal.WithLabelValues(string(status)).Inc()
}

// ArrivalSubmitted cuenta una llegada.
func (p *Prometheus) ArrivalSubmitted(accepted bool) {
	p.arrivalsTotal.WithLabelValues(strconv.FormatBool(accepted)).Inc()
}

// RetriesExhausted cuenta una operación que agotó los reintentos.
func (p *Prometheus) RetriesExhausted(operation string) {
	p.retriesExhausted.WithLabelValues(operation).Inc()
}

// Registry expone el registry (tests, colectores adicionales).
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler endpoint /metrics para Fiber.
func (p *Prometheus) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}
