// Package raster turns PDF bytes into per-page BGRA pixel buffers.
//
// A Rasterizer opens a document once; the returned Document must be closed
// by the caller on every exit path. Pages are rendered one at a time and
// scaled to fit the requested PageDimensions while keeping their aspect ratio.
package raster

import (
	"errors"
	"fmt"
	"strings"
)

// PageDimensions is the target raster size a page is fitted into.
type PageDimensions struct {
	Width  int
	Height int
}

// DefaultPageDimensions is the raster size used unless a caller overrides it.
var DefaultPageDimensions = PageDimensions{Width: 1080, Height: 1920}

// Validate reports whether both sides are positive.
func (d PageDimensions) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid page dimensions %dx%d", d.Width, d.Height)
	}
	return nil
}

// Oriented returns d with its sides swapped when the page's orientation
// (w x h) disagrees with the target's, so a landscape page fits a landscape
// box. Square pages and square targets are returned unchanged.
func (d PageDimensions) Oriented(w, h int) PageDimensions {
	pageLandscape := w > h
	targetLandscape := d.Width > d.Height
	if w == h || d.Width == d.Height || pageLandscape == targetLandscape {
		return d
	}
	return PageDimensions{Width: d.Height, Height: d.Width}
}

// Page is one rasterized page. Pix holds Width*Height BGRA8 samples with no row padding.
type Page struct {
	Index  int
	Pix    []byte
	Width  int
	Height int
}

// Document is an open PDF.
type Document interface {
	PageCount() int
	// Page rasterizes the zero-based page index.
	Page(index int) (*Page, error)
	Close() error
}

// Rasterizer opens PDF documents for rendering.
type Rasterizer interface {
	Open(data []byte, size PageDimensions) (Document, error)
}

// Renderer names accepted by New.
const (
	RendererFitz     = "fitz"
	RendererEmbedded = "embedded"
)

// New returns the rasterizer registered under name. An empty name selects fitz.
func New(name string) (Rasterizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RendererFitz:
		return NewFitzRasterizer(), nil
	case RendererEmbedded:
		return NewEmbeddedRasterizer(), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q (want %s or %s)", name, RendererFitz, RendererEmbedded)
	}
}

// ErrPageOutOfRange matches every *PageRangeError via errors.Is.
var ErrPageOutOfRange = errors.New("page out of range")

// PageRangeError reports a page index outside [0, Count).
type PageRangeError struct {
	Page  int
	Count int
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page %d is out of range: document has %d page(s)", e.Page, e.Count)
}

func (e *PageRangeError) Is(target error) bool { return target == ErrPageOutOfRange }

// CheckPage returns a *PageRangeError unless 0 <= page < count.
func CheckPage(page, count int) error {
	if page < 0 || page >= count {
		return &PageRangeError{Page: page, Count: count}
	}
	return nil
}

// OpenError wraps the rendering library's failure to parse a document.
type OpenError struct {
	Renderer string
	Err      error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s: opening PDF: %v", e.Renderer, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// openError wraps a renderer's open failure. Encrypted documents opened
// without usable credentials also match ErrPasswordRequired.
func openError(renderer string, err error) error {
	if isPasswordError(err) {
		return fmt.Errorf("%w: %w", ErrPasswordRequired, &OpenError{Renderer: renderer, Err: err})
	}
	return &OpenError{Renderer: renderer, Err: err}
}
