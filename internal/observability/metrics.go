package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CounterpartsProvisioned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pairing_counterparts_provisioned_total",
			Help: "Raw or main counterparts cloned automatically",
		},
	)
	ValidationRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairing_validation_rejections_total",
			Help: "Batches rolled back by a pairing invariant",
		},
		[]string{"invariant"},
	)
	CascadeDeletes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pairing_cascade_deletes_total",
			Help: "Raw counterparts deleted together with their main product",
		},
	)
	CodesRewritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pairing_codes_rewritten_total",
			Help: "Derived product codes written because they changed",
		},
	)
	AuditFindings = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pairing_audit_findings",
			Help: "Products violating a pairing rule at the last audit run",
		},
		[]string{"invariant"},
	)
)

// Registry holds the catalog metrics plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		CounterpartsProvisioned,
		ValidationRejections,
		CascadeDeletes,
		CodesRewritten,
		AuditFindings,
	)
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
