// Package metrics exposes Prometheus instruments for map fetches,
// normalization, rendering, drag persistence and the HTTP surface.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// Map fetch and normalization
	FetchesTotal       *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
	RecordsSkipped     *prometheus.CounterVec
	ModelEntities      *prometheus.GaugeVec
	SnapshotOperations *prometheus.CounterVec

	// Rendering
	RendersTotal  prometheus.Counter
	RenderedNodes prometheus.Gauge
	RenderedEdges prometheus.Gauge

	// Mutations
	MutationsTotal      *prometheus.CounterVec
	DragPersistsTotal   *prometheus.CounterVec
	DragPersistDuration prometheus.Histogram

	// HTTP and SSE
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SSEClients          prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.initMapMetrics()
	r.initRenderMetrics()
	r.initMutationMetrics()
	r.initHTTPMetrics()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return r
}

func (r *Registry) initMapMetrics() {
	r.FetchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spheremap_fetches_total",
			Help: "Total number of full-map fetches",
		},
		[]string{"result"}, // success, error
	)

	r.FetchDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spheremap_fetch_duration_seconds",
			Help:    "Duration of full-map fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.RecordsSkipped = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spheremap_normalizer_skipped_total",
			Help: "Records dropped by the normalizer",
		},
		[]string{"entity"}, // sphere, node, edge, duplicate
	)

	r.ModelEntities = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spheremap_model_entities",
			Help: "Entities in the current canonical model",
		},
		[]string{"entity"},
	)

	r.SnapshotOperations = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spheremap_snapshot_operations_total",
			Help: "Snapshot cache reads and writes",
		},
		[]string{"operation", "result"},
	)
}

func (r *Registry) initRenderMetrics() {
	r.RendersTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "spheremap_renders_total",
			Help: "Total number of reconciliation passes pushed to the renderer",
		},
	)

	r.RenderedNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "spheremap_rendered_nodes",
			Help: "Nodes in the last rendered frame",
		},
	)

	r.RenderedEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "spheremap_rendered_edges",
			Help: "Edges in the last rendered frame",
		},
	)
}

func (r *Registry) initMutationMetrics() {
	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spheremap_mutations_total",
			Help: "CRUD round trips to the map API",
		},
		[]string{"operation", "result"},
	)

	r.DragPersistsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spheremap_drag_persists_total",
			Help: "Background writes of dragged node positions",
		},
		[]string{"result"},
	)

	r.DragPersistDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spheremap_drag_persist_duration_seconds",
			Help:    "Duration of dragged node position writes in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spheremap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spheremap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	r.SSEClients = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "spheremap_sse_clients",
			Help: "Connected server-sent event clients",
		},
	)
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordFetch records one full-map fetch
func (r *Registry) RecordFetch(err error, duration time.Duration) {
	r.FetchesTotal.WithLabelValues(result(err)).Inc()
	r.FetchDuration.Observe(duration.Seconds())
}

// RecordNormalization records what a normalization pass dropped and kept
func (r *Registry) RecordNormalization(skippedSpheres, skippedNodes, skippedEdges, duplicates int) {
	r.RecordsSkipped.WithLabelValues("sphere").Add(float64(skippedSpheres))
	r.RecordsSkipped.WithLabelValues("node").Add(float64(skippedNodes))
	r.RecordsSkipped.WithLabelValues("edge").Add(float64(skippedEdges))
	r.RecordsSkipped.WithLabelValues("duplicate").Add(float64(duplicates))
}

// SetModelSize records the size of the canonical model
func (r *Registry) SetModelSize(spheres, nodes, edges int) {
	r.ModelEntities.WithLabelValues("sphere").Set(float64(spheres))
	r.ModelEntities.WithLabelValues("node").Set(float64(nodes))
	r.ModelEntities.WithLabelValues("edge").Set(float64(edges))
}

// RecordSnapshot records a snapshot cache operation
func (r *Registry) RecordSnapshot(operation string, err error) {
	r.SnapshotOperations.WithLabelValues(operation, result(err)).Inc()
}

// RecordRender records one frame handed to the renderer
func (r *Registry) RecordRender(nodes, edges int) {
	r.RendersTotal.Inc()
	r.RenderedNodes.Set(float64(nodes))
	r.RenderedEdges.Set(float64(edges))
}

// RecordMutation records a CRUD round trip
func (r *Registry) RecordMutation(operation string, err error) {
	r.MutationsTotal.WithLabelValues(operation, result(err)).Inc()
}

// RecordDragPersist records a background position write
func (r *Registry) RecordDragPersist(err error, duration time.Duration) {
	r.DragPersistsTotal.WithLabelValues(result(err)).Inc()
	r.DragPersistDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
