package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntitlementChecks counts tier/role gate evaluations by gate and result (allowed|denied).
	EntitlementChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribekeys_entitlement_checks_total",
			Help: "Total number of entitlement gate evaluations",
		},
		[]string{"gate", "result"},
	)

	// ProvisionedBindings counts sample key bindings inserted by lazy group provisioning.
	ProvisionedBindings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scribekeys_provisioned_bindings_total",
			Help: "Total number of sample key bindings seeded into system groups",
		},
	)

	// ExtensionSyncs counts extension sync requests by result (success|failure).
	ExtensionSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribekeys_extension_syncs_total",
			Help: "Total number of browser extension sync requests",
		},
		[]string{"result"},
	)

	// AuditWriteFailures counts audit entries that could not be persisted.
	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scribekeys_audit_write_failures_total",
			Help: "Total number of audit log writes that failed",
		},
	)

	// MaintenanceRuns counts retention job runs by job and result (success|failure).
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribekeys_maintenance_runs_total",
			Help: "Total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)

	// MaintenanceRemoved counts rows deleted by retention jobs.
	MaintenanceRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribekeys_maintenance_removed_total",
			Help: "Total number of rows removed by maintenance jobs",
		},
		[]string{"job"},
	)

	// HTTPRequests counts requests by API area and outcome (ok, error, or the rejecting
	// middleware: auth, csrf, ratelimit, or an entitlement gate name).
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribekeys_http_requests_total",
			Help: "Total number of HTTP requests by API area and outcome",
		},
		[]string{"area", "outcome"},
	)

	// APILatency measures latency per matched route template.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scribekeys_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
