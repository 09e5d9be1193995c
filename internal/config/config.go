package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/pdfqr/internal/raster"
	"github.com/MeKo-Tech/pdfqr/internal/utils"
	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Reader: ReaderConfig{
			PageWidth:  raster.DefaultPageDimensions.Width,
			PageHeight: raster.DefaultPageDimensions.Height,
			Background: "#FFFFFF",
			Renderer:   raster.RendererFitz,
			TryHarder:  false,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8080,
			CORSOrigin:        "*",
			MaxUploadMB:       50,
			TimeoutSec:        30,
			ShutdownTimeout:   10,
			RateLimitEnabled:  false,
			RequestsPerMinute: 60,
			RequestsPerHour:   1000,
			MaxRequestsPerDay: 5000,
			MaxDataPerDay:     100 * 1024 * 1024,
		},
		Batch: BatchConfig{
			Workers:         4,
			Recursive:       false,
			ContinueOnError: false,
		},
	}
}

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"text", "json"}
	validRenderers = []string{raster.RendererFitz, raster.RendererEmbedded}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Reader.PageWidth <= 0 || c.Reader.PageHeight <= 0 {
		return fmt.Errorf("invalid page dimensions: %dx%d (must be positive)", c.Reader.PageWidth, c.Reader.PageHeight)
	}
	if _, err := utils.ParseHexColor(c.Reader.Background); err != nil {
		return fmt.Errorf("invalid reader background: %w", err)
	}
	if c.Reader.Renderer != "" && !slices.Contains(validRenderers, c.Reader.Renderer) {
		return fmt.Errorf("invalid renderer: %s (must be one of: %s)", c.Reader.Renderer, strings.Join(validRenderers, ", "))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.RateLimitEnabled && (c.Server.RequestsPerMinute <= 0 || c.Server.RequestsPerHour <= 0) {
		return fmt.Errorf("invalid rate limits: %d/min, %d/hour (must be positive when enabled)",
			c.Server.RequestsPerMinute, c.Server.RequestsPerHour)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

// ToReaderConfig converts the reader section to a qrreader configuration.
func (c *Config) ToReaderConfig() (qrreader.Config, error) {
	bg, err := utils.ParseHexColor(c.Reader.Background)
	if err != nil {
		return qrreader.Config{}, fmt.Errorf("invalid reader background: %w", err)
	}
	cfg, err := qrreader.ConfigFor(c.Reader.Renderer, c.Reader.PageWidth, c.Reader.PageHeight, bg)
	if err != nil {
		return qrreader.Config{}, err
	}
	cfg.TryHarder = c.Reader.TryHarder
	return cfg, nil
}
