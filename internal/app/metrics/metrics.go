package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devkekops/paymentopt/internal/app/optimizer"
)

type Metrics struct {
	registry *prometheus.Registry
	runs     prometheus.Counter
	orders   *prometheus.CounterVec
	charged  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paymentopt",
			Name:      "runs_total",
			Help:      "Optimization runs completed.",
		}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paymentopt",
			Name:      "orders_total",
			Help:      "Orders allocated, by strategy.",
		}, []string{"strategy"}),
		charged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paymentopt",
			Name:      "charged_amount_total",
			Help:      "Amount charged, by payment method.",
		}, []string{"method"}),
	}
	m.registry.MustRegister(m.runs, m.orders, m.charged)
	return m
}

// Observe records a completed run.
func (m *Metrics) Observe(res *optimizer.Result) {
	m.runs.Inc()
	for _, o := range res.Outcomes {
		m.orders.WithLabelValues(string(o.Strategy)).Inc()
	}
	for _, e := range res.Entries() {
		m.charged.WithLabelValues(e.MethodID).Add(e.Amount.InexactFloat64())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
