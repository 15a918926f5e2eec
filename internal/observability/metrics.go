package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for PayLedger.
type Metrics struct {
	// --- Record Processing ---
	RecordsApplied *prometheus.CounterVec
	RecordsIgnored *prometheus.CounterVec
	ApplyDuration  *prometheus.HistogramVec

	// --- Accounts & Disputes ---
	Accounts        prometheus.Gauge
	AccountsCreated prometheus.Counter
	AccountsLocked  prometheus.Counter
	OpenDisputes    prometheus.Gauge

	// --- Intake ---
	StreamRecords   *prometheus.CounterVec
	ParseFailures   *prometheus.CounterVec
	IntakeToApply   prometheus.Histogram
	PublishDrops    prometheus.Counter
	PublishFailures prometheus.Counter

	// --- Channel & Backpressure ---
	ChannelSize        *prometheus.GaugeVec
	ChannelCapacity    *prometheus.GaugeVec
	ChannelUtilization *prometheus.GaugeVec

	// --- Audit Persistence ---
	AuditRowsWritten prometheus.Counter
	AuditBatchDur    prometheus.Histogram
	AuditBatchSize   prometheus.Histogram
	AuditErrors      *prometheus.CounterVec
	AuditRetry       prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		// Record Processing
		RecordsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pay_records_applied_total",
			Help: "Records successfully applied by the ledger engine",
		}, []string{"kind"}),

		RecordsIgnored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pay_records_ignored_total",
			Help: "Records ignored (dup, lock, dispute state, funds)",
		}, []string{"kind", "reason"}),

		ApplyDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pay_record_apply_duration_seconds",
			Help:    "Time to apply a single record",
			Buckets: latencyBuckets,
		}, []string{"kind"}),

		// Accounts & Disputes
		Accounts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pay_accounts",
			Help: "Accounts materialized in the ledger",
		}),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_accounts_created_total",
			Help: "Accounts created on first reference",
		}),

		AccountsLocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_accounts_locked_total",
			Help: "Accounts frozen by chargeback",
		}),

		OpenDisputes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pay_open_disputes",
			Help: "Transactions currently in the Disputed state",
		}),

		// Intake
		StreamRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pay_stream_records_total",
			Help: "Records received from NATS",
		}, []string{"subject"}),

		ParseFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pay_parse_failures_total",
			Help: "Records dropped due to parse errors",
		}, []string{"source"}),

		IntakeToApply: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pay_intake_to_apply_seconds",
			Help:    "NATS receive to engine apply complete",
			Buckets: latencyBuckets,
		}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_publish_drops_total",
			Help: "Outcomes dropped due to full publish channel",
		}),

		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_publish_failures_total",
			Help: "Outcome publish attempts that failed",
		}),

		// Channel & Backpressure
		ChannelSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pay_channel_size",
			Help: "Current items in channel",
		}, []string{"name"}),

		ChannelCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pay_channel_capacity",
			Help: "Channel capacity (constant)",
		}, []string{"name"}),

		ChannelUtilization: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pay_channel_utilization",
			Help: "Channel size / capacity (0.0-1.0)",
		}, []string{"name"}),

		// Audit Persistence
		AuditRowsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_audit_rows_written_total",
			Help: "Outcome rows written to Postgres",
		}),

		AuditBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pay_audit_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		AuditBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pay_audit_batch_size",
			Help:    "Rows per audit batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		AuditErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pay_audit_errors_total",
			Help: "Audit persistence errors",
		}, []string{"error_type"}),

		AuditRetry: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_audit_retry_total",
			Help: "Audit persistence retries",
		}),
	}
}

// SetChannelMetrics updates channel utilization metrics.
func (m *Metrics) SetChannelMetrics(name string, size, capacity int) {
	m.ChannelSize.WithLabelValues(name).Set(float64(size))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
	if capacity > 0 {
		m.ChannelUtilization.WithLabelValues(name).Set(float64(size) / float64(capacity))
	}
}
