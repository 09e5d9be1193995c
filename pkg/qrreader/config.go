package qrreader

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/MeKo-Tech/pdfqr/internal/barcode"
	"github.com/MeKo-Tech/pdfqr/internal/raster"
)

// Aliases so callers outside this module can configure a Reader and match its errors.
type (
	PageDimensions = raster.PageDimensions
	Rasterizer     = raster.Rasterizer
	Credentials    = raster.Credentials
	PageRangeError = raster.PageRangeError
	Backend        = barcode.Backend
)

// ErrPageOutOfRange matches every *PageRangeError.
var ErrPageOutOfRange = raster.ErrPageOutOfRange

// ErrPasswordRequired is returned for encrypted PDFs opened with missing or wrong credentials.
var ErrPasswordRequired = raster.ErrPasswordRequired

// Config controls how a Reader renders and decodes.
type Config struct {
	// PageDimensions is the raster size each PDF page is fitted into.
	PageDimensions PageDimensions
	// Background replaces transparent areas of rendered pages before decoding.
	Background color.Color
	// Rasterizer renders PDF pages. Nil selects the MuPDF renderer.
	Rasterizer Rasterizer
	// Backend decodes QR symbols. Nil selects the gozxing backend.
	Backend Backend
	// TryHarder makes the decoder search more exhaustively.
	TryHarder bool
	// Credentials unlock encrypted PDFs.
	Credentials Credentials
	Logger      *slog.Logger
}

// DefaultConfig returns a 1080x1920 white-background configuration.
func DefaultConfig() Config {
	return Config{
		PageDimensions: raster.DefaultPageDimensions,
		Background:     color.White,
		Rasterizer:     raster.NewFitzRasterizer(),
		Backend:        barcode.NewBackend(),
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PageDimensions == (PageDimensions{}) {
		c.PageDimensions = def.PageDimensions
	}
	if c.Background == nil {
		c.Background = def.Background
	}
	if c.Rasterizer == nil {
		c.Rasterizer = def.Rasterizer
	}
	if c.Backend == nil {
		c.Backend = def.Backend
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if e, ok := c.Rasterizer.(*raster.EmbeddedRasterizer); ok && e.Logger == nil {
		c.Rasterizer = e.WithLogger(c.Logger)
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.PageDimensions.Validate(); err != nil {
		return err
	}
	if c.Background == nil {
		return errors.New("background color must be set")
	}
	if c.Rasterizer == nil {
		return errors.New("rasterizer must be set")
	}
	if c.Backend == nil {
		return errors.New("decoder backend must be set")
	}
	return nil
}

// ConfigFor builds a Config from renderer name and page size, the shape
// used by the CLI and server configuration.
func ConfigFor(renderer string, width, height int, background color.Color) (Config, error) {
	r, err := raster.New(renderer)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	cfg.Rasterizer = r
	cfg.PageDimensions = PageDimensions{Width: width, Height: height}
	if background != nil {
		cfg.Background = background
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid reader configuration: %w", err)
	}
	return cfg, nil
}
