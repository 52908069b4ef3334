// Package metrics exposes Prometheus collectors for list queries,
// exports and source refreshes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal    *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	RecordsFiltered *prometheus.GaugeVec
	ExportsTotal    *prometheus.CounterVec
	ExportedRecords *prometheus.CounterVec
	RefreshTotal    *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
	SnapshotRecords *prometheus.GaugeVec
	SnapshotUpdated *prometheus.GaugeVec
}

// New registers all collectors, plus Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "queries_total",
			Help:      "List queries served, by entity and outcome.",
		}, []string{"entity", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crm",
			Name:      "query_duration_seconds",
			Help:      "Time spent filtering, sorting and paginating a list query.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"entity"}),
		RecordsFiltered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crm",
			Name:      "last_query_matched_records",
			Help:      "Filtered record count of the most recent query.",
		}, []string{"entity"}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "exports_total",
			Help:      "Export attempts, by entity, format and outcome.",
		}, []string{"entity", "format", "status"}),
		ExportedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "exported_records_total",
			Help:      "Records written to export files.",
		}, []string{"entity", "format"}),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Name:      "source_refresh_total",
			Help:      "Source refreshes, by entity and outcome.",
		}, []string{"entity", "status"}),
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crm",
			Name:      "source_refresh_duration_seconds",
			Help:      "Time spent fetching an entity's records.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
		SnapshotRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crm",
			Name:      "snapshot_records",
			Help:      "Records in the current snapshot of an entity.",
		}, []string{"entity"}),
		SnapshotUpdated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crm",
			Name:      "snapshot_updated_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}, []string{"entity"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.QueriesTotal,
		m.QueryDuration,
		m.RecordsFiltered,
		m.ExportsTotal,
		m.ExportedRecords,
		m.RefreshTotal,
		m.RefreshDuration,
		m.SnapshotRecords,
		m.SnapshotUpdated,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveQuery records one list query.
func (m *Metrics) ObserveQuery(entity string, matched int, took time.Duration, err error) {
	m.QueriesTotal.WithLabelValues(entity, outcome(err)).Inc()
	if err != nil {
		return
	}
	m.QueryDuration.WithLabelValues(entity).Observe(took.Seconds())
	m.RecordsFiltered.WithLabelValues(entity).Set(float64(matched))
}

// ObserveExport records one export attempt.
func (m *Metrics) ObserveExport(entity, format string, records int, err error) {
	m.ExportsTotal.WithLabelValues(entity, format, outcome(err)).Inc()
	if err == nil {
		m.ExportedRecords.WithLabelValues(entity, format).Add(float64(records))
	}
}

// ObserveRefresh records one source refresh.
func (m *Metrics) ObserveRefresh(entity string, records int, took time.Duration, at time.Time, err error) {
	m.RefreshTotal.WithLabelValues(entity, outcome(err)).Inc()
	m.RefreshDuration.WithLabelValues(entity).Observe(took.Seconds())
	if err != nil {
		return
	}
	m.SnapshotRecords.WithLabelValues(entity).Set(float64(records))
	m.SnapshotUpdated.WithLabelValues(entity).Set(float64(at.Unix()))
}
