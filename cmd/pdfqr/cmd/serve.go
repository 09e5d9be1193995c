package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MeKo-Tech/pdfqr/internal/config"
	"github.com/MeKo-Tech/pdfqr/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for the QR extraction API",
		Long: `Start an HTTP server that exposes QR extraction over REST and WebSocket.

The server provides the following endpoints:
  POST /qr/image  - Decode an uploaded image (multipart field "image")
  POST /qr/pdf    - Scan an uploaded PDF (multipart field "pdf")
  POST /qr/batch  - Process up to 10 images and PDFs in one JSON request
  GET  /ws/qr     - WebSocket extraction
  GET  /health    - Health check endpoint
  GET  /metrics   - Prometheus metrics

Examples:
  pdfqr serve
  pdfqr serve --port 8080
  pdfqr serve --host 0.0.0.0 --port 3000 --rate-limit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			return a.serve(ctx)
		},
	}

	def := config.DefaultConfig()
	cmd.Flags().StringP("host", "H", def.Server.Host, "server host")
	cmd.Flags().IntP("port", "p", def.Server.Port, "server port")
	cmd.Flags().String("cors-origin", def.Server.CORSOrigin, "CORS allowed origins")
	cmd.Flags().Int("max-upload-size", def.Server.MaxUploadMB, "maximum upload size in MB")
	cmd.Flags().Int("timeout", def.Server.TimeoutSec, "request timeout in seconds")
	cmd.Flags().Int("shutdown-timeout", def.Server.ShutdownTimeout, "shutdown timeout in seconds")
	cmd.Flags().Bool("rate-limit", def.Server.RateLimitEnabled, "enable rate limiting")
	cmd.Flags().Int("requests-per-min", def.Server.RequestsPerMinute, "maximum requests per minute per client")
	cmd.Flags().Int("requests-per-hour", def.Server.RequestsPerHour, "maximum requests per hour per client")
	cmd.Flags().Int("max-requests-day", def.Server.MaxRequestsPerDay, "maximum requests per day per client")
	cmd.Flags().Int64("max-data-day", def.Server.MaxDataPerDay, "maximum upload bytes per day per client")
	addReaderFlags(cmd)
	return cmd
}

// serverConfig assembles the server configuration from the loaded config.
func (a *app) serverConfig() (server.Config, error) {
	readerCfg, err := a.cfg.ToReaderConfig()
	if err != nil {
		return server.Config{}, err
	}
	s := a.cfg.Server
	return server.Config{
		Host:        s.Host,
		Port:        s.Port,
		CORSOrigin:  s.CORSOrigin,
		MaxUploadMB: int64(s.MaxUploadMB),
		TimeoutSec:  s.TimeoutSec,
		Reader:      readerCfg,
		RateLimit: server.RateLimitConfig{
			Enabled:           s.RateLimitEnabled,
			RequestsPerMinute: s.RequestsPerMinute,
			RequestsPerHour:   s.RequestsPerHour,
			MaxRequestsPerDay: s.MaxRequestsPerDay,
			MaxDataPerDay:     s.MaxDataPerDay,
		},
	}, nil
}

// serve runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func (a *app) serve(ctx context.Context) error {
	serverConfig, err := a.serverConfig()
	if err != nil {
		return err
	}

	qrServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	mux := http.NewServeMux()
	qrServer.SetupRoutes(mux)

	timeout := time.Duration(serverConfig.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(serverConfig.Host, strconv.Itoa(serverConfig.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting QR server", "host", serverConfig.Host, "port", serverConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			slog.Error("Server error", "error", err)
			_ = qrServer.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownTimeout := time.Duration(a.cfg.Server.ShutdownTimeout) * time.Second
	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server shutdown completed")
	}

	if err := qrServer.Close(); err != nil {
		slog.Error("Server cleanup error", "error", err)
	}

	slog.Info("Graceful shutdown completed")
	return nil
}
