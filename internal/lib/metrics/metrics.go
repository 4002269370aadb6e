// Package metrics содержит Prometheus-метрики сервиса.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/pi-premium/internal/lib/money"
)

// Metrics набор метрик, регистрируемых в переданном Registerer.
type Metrics struct {
	upstreamDuration  *prometheus.HistogramVec
	paymentsCompleted *prometheus.CounterVec
	premiumDays       prometheus.Counter
	amountCompleted   prometheus.Counter
}

// New регистрирует метрики в reg. Приложение передаёт собственный
// prometheus.NewRegistry и отдаёт его же на /metrics через promhttp.HandlerFor.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		upstreamDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Duration of Pi platform API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "outcome"},
		),
		paymentsCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_completed_total",
				Help: "Total number of credited payment completions",
			},
			[]string{"extended"},
		),
		premiumDays: f.NewCounter(
			prometheus.CounterOpts{
				Name: "premium_days_granted_total",
				Help: "Total number of premium days granted",
			},
		),
		amountCompleted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "payments_amount_pi_total",
				Help: "Total amount of completed payments in Pi",
			},
		),
	}
}

// ObserveUpstream записывает длительность вызова платформы.
func (m *Metrics) ObserveUpstream(op, outcome string, d time.Duration) {
	m.upstreamDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// PaymentCompleted учитывает зачисленный платёж.
func (m *Metrics) PaymentCompleted(amount money.Amount, addedDays int) {
	extended := "false"
	if addedDays > 0 {
		extended = "true"
	}
	m.paymentsCompleted.WithLabelValues(extended).Inc()
	m.premiumDays.Add(float64(addedDays))
	m.amountCompleted.Add(float64(amount) / money.Scale)
}
