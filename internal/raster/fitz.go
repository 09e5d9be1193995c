package raster

import (
	"fmt"

	"github.com/MeKo-Tech/pdfqr/internal/utils"
	"github.com/gen2brain/go-fitz"
)

// pointsPerInch is the PDF user-space resolution fitz reports bounds in.
const pointsPerInch = 72.0

// FitzRasterizer renders pages with MuPDF through go-fitz.
type FitzRasterizer struct{}

// NewFitzRasterizer returns a MuPDF-backed rasterizer.
func NewFitzRasterizer() *FitzRasterizer { return &FitzRasterizer{} }

// Open parses data with MuPDF.
func (r *FitzRasterizer) Open(data []byte, size PageDimensions) (Document, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, openError(RendererFitz, err)
	}
	return &fitzDocument{doc: doc, size: size}, nil
}

type fitzDocument struct {
	doc  *fitz.Document
	size PageDimensions
}

func (d *fitzDocument) PageCount() int { return d.doc.NumPage() }

func (d *fitzDocument) Page(index int) (*Page, error) {
	if err := CheckPage(index, d.PageCount()); err != nil {
		return nil, err
	}

	bounds, err := d.doc.Bound(index)
	if err != nil {
		return nil, fmt.Errorf("fitz: page %d bounds: %w", index, err)
	}
	if bounds.Empty() {
		return nil, fmt.Errorf("fitz: page %d has empty bounds", index)
	}

	img, err := d.doc.ImageDPI(index, d.dpiFor(bounds.Dx(), bounds.Dy()))
	if err != nil {
		return nil, fmt.Errorf("fitz: rendering page %d: %w", index, err)
	}

	b := img.Bounds()
	return &Page{Index: index, Pix: utils.ToBGRA(img), Width: b.Dx(), Height: b.Dy()}, nil
}

// dpiFor picks the resolution that fits a w x h point page inside the target
// size, turned to match the page's orientation.
func (d *fitzDocument) dpiFor(w, h int) float64 {
	target := d.size.Oriented(w, h)
	sx := float64(target.Width) / float64(w)
	sy := float64(target.Height) / float64(h)
	return pointsPerInch * min(sx, sy)
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
