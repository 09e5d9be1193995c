package server

import (
	"net/http"
	"time"

	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
)

// Server holds the HTTP server state and dependencies. Every request gets
// its own qrreader.Reader built from readerConfig.
type Server struct {
	readerConfig qrreader.Config
	corsOrigin   string
	maxUploadMB  int64
	timeout      time.Duration
	rateLimiter  *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Reader      qrreader.Config
	RateLimit   RateLimitConfig
}

// RateLimitConfig configures per-client request limits and daily quotas.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// QRResult is the wire form of a qrreader.Result.
type QRResult struct {
	Text  string `json:"text"`
	Found bool   `json:"found"`
	Page  int    `json:"page"`
}

// QRResponse is returned by the extraction endpoints.
type QRResponse struct {
	Success bool       `json:"success"`
	Result  *QRResult  `json:"result,omitempty"`
	Results []QRResult `json:"results,omitempty"`
	Pages   int        `json:"pages,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func toQRResult(r qrreader.Result) QRResult {
	return QRResult{Text: r.Text, Found: r.Found(), Page: r.Page}
}

// NewServer creates a new QR extraction server instance.
func NewServer(config Config) (*Server, error) {
	// Validate the reader configuration once; requests reuse it.
	probe, err := qrreader.New(config.Reader)
	if err != nil {
		return nil, err
	}

	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 50
	}
	timeout := time.Duration(config.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s := &Server{
		readerConfig: probe.Config(),
		corsOrigin:   config.CORSOrigin,
		maxUploadMB:  maxUpload,
		timeout:      timeout,
	}
	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(
			config.RateLimit.RequestsPerMinute,
			config.RateLimit.RequestsPerHour,
			config.RateLimit.MaxRequestsPerDay,
			config.RateLimit.MaxDataPerDay,
		)
	}
	return s, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/qr/image", s.corsMiddleware(s.rateLimitMiddleware(s.qrImageHandler)))
	mux.HandleFunc("/qr/pdf", s.corsMiddleware(s.rateLimitMiddleware(s.qrPDFHandler)))
	mux.HandleFunc("/qr/batch", s.corsMiddleware(s.rateLimitMiddleware(s.qrBatchHandler)))
	mux.HandleFunc("/ws/qr", s.rateLimitMiddleware(s.qrWebSocketHandler))
	mux.Handle("/metrics", metricsHandler())
}

// newReader returns a fresh reader for one request.
func (s *Server) newReader() (*qrreader.Reader, error) {
	return qrreader.New(s.readerConfig)
}

// newReaderWithPassword returns a reader that unlocks encrypted PDFs with password.
func (s *Server) newReaderWithPassword(password string) (*qrreader.Reader, error) {
	cfg := s.readerConfig
	if password != "" {
		cfg.Credentials = qrreader.Credentials{UserPassword: password, OwnerPassword: password}
	}
	return qrreader.New(cfg)
}
