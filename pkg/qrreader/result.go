package qrreader

import (
	"image"

	"github.com/MeKo-Tech/pdfqr/internal/utils"
)

// Result is the outcome of a read. A zero Text means no code was found.
type Result struct {
	Text string `json:"text"`
	// Page is the zero-based PDF page the code was found on, or -1.
	Page int `json:"page"`
	// Bounds locates the symbol in the decoded image when the decoder reports it.
	Bounds image.Rectangle `json:"-"`
}

// NotFound is the result of a read that located no code.
func NotFound() Result { return Result{Page: -1} }

// Found reports whether a code was decoded.
func (r Result) Found() bool { return r.Text != "" }

// String returns the payload, empty when nothing was found.
func (r Result) String() string { return r.Text }

// Region returns the rectangle at (x, y) with the given size, in rasterized
// page pixels.
func Region(x, y, width, height int) image.Rectangle {
	return utils.Region(x, y, width, height)
}

// NoRegion scans the whole page.
var NoRegion = image.Rectangle{}
