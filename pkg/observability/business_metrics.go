package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Reconciliation outcomes
const (
	OutcomeCreated             = "created"
	OutcomeReplayed            = "replayed"
	OutcomeRaceResolved        = "race_resolved"
	OutcomeUpdated             = "updated"
	OutcomeSynthesized         = "synthesized"
	OutcomeDuplicate           = "duplicate"
	OutcomeUpstreamRejected    = "upstream_rejected"
	OutcomeUpstreamUnavailable = "upstream_unavailable"
	OutcomeStoreError          = "store_error"
)

var (
	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment create/confirm requests by how they were resolved",
	}, []string{
		"operation", // create, confirm
		"outcome",
	})

	paymentAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_amount_total",
		Help: "Amount of newly recorded payments in major currency units",
	}, []string{"currency"})

	paymentStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_status_observed_total",
		Help: "Processor statuses written to the ledger",
	}, []string{"status"})

	processorCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "processor_call_duration_seconds",
		Help:    "Latency of payment processor API calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{
		"operation", // create_intent, confirm_intent
		"outcome",   // ok, rejected, unavailable
	})

	processorCallsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "processor_calls_in_flight",
		Help: "Processor calls currently holding a worker slot",
	})

	processorBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "processor_circuit_breaker_state",
		Help: "Processor circuit breaker state (0=closed, 1=open, 2=half-open)",
	})

	vaultOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "customer_vault_operations_total",
		Help: "Customer token vault operations",
	}, []string{
		"operation", // upsert, get
		"outcome",   // ok, not_found, decrypt_failed, error
	})
)

// RecordReconciliation records how a create or confirm request was resolved
func RecordReconciliation(operation, outcome string) {
	reconciliationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordPaymentRecorded records a new ledger row's amount and status
func RecordPaymentRecorded(currency string, amount decimal.Decimal, status string) {
	paymentAmountTotal.WithLabelValues(currency).Add(amount.InexactFloat64())
	paymentStatusTotal.WithLabelValues(status).Inc()
}

// RecordPaymentStatus records a status written by a confirmation
func RecordPaymentStatus(status string) {
	paymentStatusTotal.WithLabelValues(status).Inc()
}

// RecordProcessorCall records one processor API call
func RecordProcessorCall(operation, outcome string, duration time.Duration) {
	processorCallDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// ProcessorCallStarted marks a worker slot as taken; call the returned func when done
func ProcessorCallStarted() func() {
	processorCallsInFlight.Inc()
	return processorCallsInFlight.Dec
}

// SetProcessorBreakerState publishes the breaker state as a gauge value
func SetProcessorBreakerState(state int) {
	processorBreakerState.Set(float64(state))
}

// RecordVaultOperation records a customer vault operation
func RecordVaultOperation(operation, outcome string) {
	vaultOperationsTotal.WithLabelValues(operation, outcome).Inc()
}
