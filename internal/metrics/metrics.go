package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "faucetbot"

const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultReverted  = "reverted"
	ResultCancelled = "cancelled"
)

type Metrics struct {
	registry *prometheus.Registry

	claims    *prometheus.CounterVec
	transfers *prometheus.CounterVec
	batches   *prometheus.CounterVec
	running   prometheus.Gauge
}

func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "number of faucet claims by result",
		}, []string{"result"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "number of transfers by result",
		}, []string{"result"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "number of finished batches by workflow and result",
		}, []string{"workflow", "result"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_running",
			Help:      "1 while a batch workflow is running",
		}),
	}

	err := errors.Join(
		m.registry.Register(m.claims),
		m.registry.Register(m.transfers),
		m.registry.Register(m.batches),
		m.registry.Register(m.running),
	)
	return m, err
}

// MustNew is New for callers that cannot recover from a registration error.
func MustNew() *Metrics {
	m, err := New()
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) Claim(succeeded bool) {
	m.claims.WithLabelValues(result(succeeded)).Inc()
}

func (m *Metrics) Transfer(result string) {
	m.transfers.WithLabelValues(result).Inc()
}

func (m *Metrics) BatchStarted() {
	m.running.Set(1)
}

func (m *Metrics) BatchFinished(workflow, result string) {
	m.running.Set(0)
	m.batches.WithLabelValues(workflow, result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(succeeded bool) string {
	if succeeded {
		return ResultSuccess
	}
	return ResultFailure
}
