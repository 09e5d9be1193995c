package barcode

import (
	"context"
	"errors"
	"image"
)

// ErrNotFound is returned when no QR symbol could be located or decoded.
var ErrNotFound = errors.New("barcode: no QR code found")

// Options controls backend decoding behavior.
type Options struct {
	// TryHarder enables a more exhaustive search (slower but more robust).
	// When false the decoder runs with no hints at all.
	TryHarder bool

	// Multi decodes every QR symbol in the image instead of the first one.
	Multi bool
}

// Point is an integer point in image coordinates.
type Point struct {
	X int
	Y int
}

// Result represents a decoded QR symbol.
type Result struct {
	Text   string
	Points []Point          // finder pattern centers, when reported
	BBox   image.Rectangle // derived from Points
}

// Backend is a pluggable QR decoder implementation.
type Backend interface {
	Decode(ctx context.Context, img image.Image, opts Options) ([]Result, error)
}

// NewBackend returns the default backend implementation.
func NewBackend() Backend { return &gozxingBackend{} }

// IsNotFound reports whether err means "no symbol" rather than a hard failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
