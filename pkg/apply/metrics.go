// Metrics for the apply pipeline, grounded on the teacher's
// pkg/metrics/metrics.go (same Namespace/Subsystem/HistogramVec shape),
// but registered directly with promauto.With(prometheus.DefaultRegisterer)
// instead of sigs.k8s.io/controller-runtime's metrics registry, which
// this engine carries no controller-runtime manager to own.
package apply

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "nmstate_engine"
	subsystemApply   = "apply"
	subsystemVerify  = "verify"
	subsystemBackend = "backend"
)

var (
	// ApplyDuration measures end-to-end apply latency, labelled by
	// result (spec §4.F, §9 "apply duration, verify-retry counts,
	// rollback counts, checkpoint lifetimes").
	ApplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemApply,
			Name:      "duration_seconds",
			Help:      "Time taken to run one apply pipeline invocation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"result"},
	)

	// ApplyTotal counts apply invocations by result.
	ApplyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemApply,
			Name:      "total",
			Help:      "Total number of apply pipeline invocations.",
		},
		[]string{"result"},
	)

	// VerifyRetries counts verification retries consumed per apply.
	VerifyRetries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemVerify,
			Name:      "retries",
			Help:      "Number of verification retries consumed before success or failure.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)

	// RollbacksTotal counts checkpoint rollbacks, labelled by outcome.
	RollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemApply,
			Name:      "rollbacks_total",
			Help:      "Total number of checkpoint rollbacks, by outcome.",
		},
		[]string{"outcome"},
	)

	// CheckpointLifetime measures how long a checkpoint stayed open
	// before commit or rollback.
	CheckpointLifetime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemApply,
			Name:      "checkpoint_lifetime_seconds",
			Help:      "Time a checkpoint remained open before commit or rollback.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// BackendOperationDuration measures individual backend adapter
	// calls (kernel netlink ops, OVSDB transactions), labelled by
	// backend ("kernel"/"ovsdb") and result.
	BackendOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemBackend,
			Name:      "operation_duration_seconds",
			Help:      "Time taken for a single backend adapter operation.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"backend", "result"},
	)
)
