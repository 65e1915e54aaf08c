package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records outcomes for webhook processing and payout
// orchestration.
type ReconciliationMetrics struct {
	webhookEvents *prometheus.CounterVec
	payouts       *prometheus.CounterVec
	compensations prometheus.Counter
}

// NewReconciliationMetrics registers the reconciliation metrics on the
// provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook deliveries by kind and processing result.",
	}, []string{"kind", "result"})
	payouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_total",
		Help: "Payout creation attempts by result.",
	}, []string{"result"})
	compensations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_compensations_total",
		Help: "Wallet releases applied after a payout failed.",
	})
	reg.MustRegister(webhookEvents, payouts, compensations)
	return &ReconciliationMetrics{
		webhookEvents: webhookEvents,
		payouts:       payouts,
		compensations: compensations,
	}
}

// ObserveWebhook counts one webhook delivery outcome.
func (m *ReconciliationMetrics) ObserveWebhook(kind, result string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

// ObservePayout counts one payout creation outcome.
func (m *ReconciliationMetrics) ObservePayout(result string) {
	if m == nil || m.payouts == nil {
		return
	}
	m.payouts.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncCompensation counts one wallet release triggered by a failed payout.
func (m *ReconciliationMetrics) IncCompensation() {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
