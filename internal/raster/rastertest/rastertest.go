// Package rastertest provides an in-memory raster.Rasterizer for tests.
package rastertest

import (
	"image"
	"sync"

	"github.com/MeKo-Tech/pdfqr/internal/raster"
	"github.com/MeKo-Tech/pdfqr/internal/utils"
)

// Rasterizer serves pre-built page images and records how it was used.
type Rasterizer struct {
	Pages   []image.Image
	OpenErr error
	PageErr map[int]error

	mu       sync.Mutex
	opened   int
	closed   int
	rendered []int
	sizes    []raster.PageDimensions
}

// New returns a fake whose documents contain pages in order.
func New(pages ...image.Image) *Rasterizer {
	return &Rasterizer{Pages: pages}
}

// Open implements raster.Rasterizer. data is ignored.
func (r *Rasterizer) Open(_ []byte, size raster.PageDimensions) (raster.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}
	r.opened++
	r.sizes = append(r.sizes, size)
	return &document{r: r}, nil
}

// Opened returns how many documents were opened.
func (r *Rasterizer) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened
}

// Closed returns how many documents were closed.
func (r *Rasterizer) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Rendered returns the page indices rendered so far, in call order.
func (r *Rasterizer) Rendered() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.rendered...)
}

// Sizes returns the page dimensions passed to each Open call.
func (r *Rasterizer) Sizes() []raster.PageDimensions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]raster.PageDimensions(nil), r.sizes...)
}

type document struct {
	r      *Rasterizer
	closed bool
}

func (d *document) PageCount() int { return len(d.r.Pages) }

func (d *document) Page(index int) (*raster.Page, error) {
	if err := raster.CheckPage(index, len(d.r.Pages)); err != nil {
		return nil, err
	}
	d.r.mu.Lock()
	d.r.rendered = append(d.r.rendered, index)
	err := d.r.PageErr[index]
	d.r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	img := d.r.Pages[index]
	b := img.Bounds()
	return &raster.Page{Index: index, Pix: utils.ToBGRA(img), Width: b.Dx(), Height: b.Dy()}, nil
}

func (d *document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.r.mu.Lock()
	d.r.closed++
	d.r.mu.Unlock()
	return nil
}
