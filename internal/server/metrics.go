package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfqr_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfqr_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Extraction metrics
	qrRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfqr_requests_total",
			Help: "Total number of QR extraction requests",
		},
		[]string{"type", "status"}, // type: image, pdf, batch, websocket_image, websocket_pdf
	)

	qrProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdfqr_processing_duration_seconds",
			Help:    "QR extraction duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		},
		[]string{"type"},
	)

	qrCodesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfqr_codes_found_total",
			Help: "Requests that yielded a QR payload, by outcome",
		},
		[]string{"type", "found"}, // found: true, false
	)

	qrPayloadLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfqr_payload_length",
			Help:    "Length of decoded QR payloads",
			Buckets: []float64{0, 16, 32, 64, 128, 256, 512, 1024, 4096},
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfqr_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfqr_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024, 100 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfqr_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfqr_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

// recordOutcome updates the extraction metrics for one finished request.
func recordOutcome(kind string, found bool, payload string, seconds float64) {
	qrRequestsTotal.WithLabelValues(kind, "success").Inc()
	qrProcessingDuration.WithLabelValues(kind).Observe(seconds)
	if found {
		qrCodesFound.WithLabelValues(kind, "true").Inc()
		qrPayloadLength.Observe(float64(len(payload)))
	} else {
		qrCodesFound.WithLabelValues(kind, "false").Inc()
	}
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
