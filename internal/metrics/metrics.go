package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metric collectors / Contient tous les collecteurs de métriques Prometheus
type Metrics struct {
	// HTTP metrics (server)
	HTTPRequestsTotal   *prometheus.CounterVec   // Total HTTP requests by method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // HTTP request latency in seconds
	ActiveConnections   prometheus.Gauge         // Current number of active HTTP connections
	RateLimitHits       *prometheus.CounterVec   // Rate limit violations by endpoint
	AuthFailures        prometheus.Counter       // Rejected api_key checks

	// Snapshot store metrics (server)
	SnapshotUploads   *prometheus.CounterVec // Accepted/failed snapshot uploads
	SnapshotDownloads *prometheus.CounterVec // Served/failed snapshot downloads
	SnapshotRecords   *prometheus.GaugeVec   // Records held per collection, tombstones included

	// Sync engine metrics (device)
	SyncAttempts    *prometheus.CounterVec // Push/pull attempts by direction and status
	PendingSlotHeld prometheus.Gauge       // 1 while a pending operation slot exists
	OfflineMode     prometheus.Gauge       // 1 while the engine considers itself offline
}

// NewMetrics initializes a Metrics instance / Initialise une instance Metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Current number of active HTTP connections",
			},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "security_rate_limit_hits_total",
				Help: "Total number of rate limit violations by endpoint",
			},
			[]string{"endpoint"},
		),

		AuthFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "security_auth_failures_total",
				Help: "Total number of rejected api_key checks",
			},
		),

		SnapshotUploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_snapshot_uploads_total",
				Help: "Total number of snapshot uploads by status (success, failure)",
			},
			[]string{"status"},
		),

		SnapshotDownloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_snapshot_downloads_total",
				Help: "Total number of snapshot downloads by status (success, failure)",
			},
			[]string{"status"},
		),

		SnapshotRecords: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sync_snapshot_records",
				Help: "Number of records held per collection, tombstones included",
			},
			[]string{"collection"},
		),

		SyncAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_attempts_total",
				Help: "Total number of sync attempts by direction (push, pull) and status",
			},
			[]string{"direction", "status"},
		),

		PendingSlotHeld: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sync_pending_slot_held",
				Help: "1 while an un-synced local snapshot is waiting for delivery",
			},
		),

		OfflineMode: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sync_offline_mode",
				Help: "1 while the sync engine considers the remote store unreachable",
			},
		),
	}
}

// RecordHTTPRequest counts a finished HTTP request / Compte une requête HTTP terminée
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPDuration records request latency / Enregistre la latence de la requête
func (m *Metrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementActiveConnections tracks connection start / Suit le début de connexion
func (m *Metrics) IncrementActiveConnections() {
	m.ActiveConnections.Inc()
}

// DecrementActiveConnections tracks connection end / Suit la fin de connexion
func (m *Metrics) DecrementActiveConnections() {
	m.ActiveConnections.Dec()
}

// RecordRateLimitHit counts a rate limit violation / Compte une violation de limite de débit
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordAuthFailure counts a rejected api_key / Compte une clé api rejetée
func (m *Metrics) RecordAuthFailure() {
	m.AuthFailures.Inc()
}

// RecordUpload counts a snapshot upload / Compte un téléversement d'instantané
func (m *Metrics) RecordUpload(status string) {
	m.SnapshotUploads.WithLabelValues(status).Inc()
}

// RecordDownload counts a snapshot download / Compte un téléchargement d'instantané
func (m *Metrics) RecordDownload(status string) {
	m.SnapshotDownloads.WithLabelValues(status).Inc()
}

// SetSnapshotRecords updates the stored record gauges / Met à jour les jauges d'enregistrements stockés
func (m *Metrics) SetSnapshotRecords(companies, works int) {
	m.SnapshotRecords.WithLabelValues("companies").Set(float64(companies))
	m.SnapshotRecords.WithLabelValues("works").Set(float64(works))
}

// RecordSyncAttempt counts a push or pull attempt / Compte une tentative de push ou pull
func (m *Metrics) RecordSyncAttempt(direction, status string) {
	m.SyncAttempts.WithLabelValues(direction, status).Inc()
}

// SetPendingSlotHeld flags whether a pending slot exists / Indique si un créneau en attente existe
func (m *Metrics) SetPendingSlotHeld(held bool) {
	if held {
		m.PendingSlotHeld.Set(1)
	} else {
		m.PendingSlotHeld.Set(0)
	}
}

// SetOfflineMode flags the engine's connectivity view / Indique la vue de connectivité du moteur
func (m *Metrics) SetOfflineMode(offline bool) {
	if offline {
		m.OfflineMode.Set(1)
	} else {
		m.OfflineMode.Set(0)
	}
}
