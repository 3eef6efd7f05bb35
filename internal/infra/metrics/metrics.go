// Package metrics exposes authentication counters to Prometheus.
package metrics

import (
	"database/sql"
	"net/http"

	"planner/internal/domain/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements service.AuthMetrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	guardTotal        *prometheus.CounterVec
	credentialOpTotal *prometheus.CounterVec
}

var _ service.AuthMetrics = (*Collector)(nil)

// New creates the registry with Go and process collectors plus the auth counters.
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: registry,
		guardTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_auth_guard_total",
				Help: "Guard evaluations by adapter mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		credentialOpTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_auth_credential_operations_total",
				Help: "Register, login and logout attempts by outcome",
			},
			[]string{"operation", "outcome"},
		),
	}

	registry.MustRegister(c.guardTotal, c.credentialOpTotal)

	return c
}

func (c *Collector) ObserveGuard(mode, outcome string) {
	c.guardTotal.WithLabelValues(mode, outcome).Inc()
}

func (c *Collector) ObserveCredentialOp(operation, outcome string) {
	c.credentialOpTotal.WithLabelValues(operation, outcome).Inc()
}

// RegisterDBStats exports the pool statistics of a store database, labeled
// with db_name.
func (c *Collector) RegisterDBStats(db *sql.DB, name string) {
	c.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
