package raster

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strconv"

	"github.com/MeKo-Tech/pdfqr/internal/utils"
	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// EmbeddedRasterizer is a pure Go fallback for scanned documents: the page
// image is the largest raster image embedded on that page, fitted to the
// target size. Vector content is not drawn. Pages with no usable image come
// out as blank white pages.
type EmbeddedRasterizer struct {
	// Logger receives skipped-image diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// NewEmbeddedRasterizer returns a pdfcpu-backed rasterizer.
func NewEmbeddedRasterizer() *EmbeddedRasterizer { return &EmbeddedRasterizer{} }

// WithLogger returns a copy of r that logs to l.
func (r *EmbeddedRasterizer) WithLogger(l *slog.Logger) *EmbeddedRasterizer {
	c := *r
	c.Logger = l
	return &c
}

func (r *EmbeddedRasterizer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Open validates data with pdfcpu and reads its page count.
func (r *EmbeddedRasterizer) Open(data []byte, size PageDimensions) (Document, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	conf := model.NewDefaultConfiguration()
	count, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, openError(RendererEmbedded, err)
	}
	return &embeddedDocument{data: data, count: count, size: size, conf: conf, logger: r.logger()}, nil
}

type embeddedDocument struct {
	data   []byte
	count  int
	size   PageDimensions
	conf   *model.Configuration
	logger *slog.Logger
}

func (d *embeddedDocument) PageCount() int { return d.count }

func (d *embeddedDocument) Page(index int) (*Page, error) {
	if err := CheckPage(index, d.count); err != nil {
		return nil, err
	}

	var best image.Image
	var bestArea int
	digest := func(img model.Image, _ bool, _ int) error {
		raw, err := io.ReadAll(img)
		if err != nil {
			return err
		}
		decoded, _, err := utils.DecodeImage(raw)
		if err != nil {
			d.logger.Debug("skipping undecodable embedded image",
				"page", index, "object", img.ObjNr, "type", img.FileType, "error", err)
			return nil
		}
		if area := decoded.Bounds().Dx() * decoded.Bounds().Dy(); area > bestArea {
			best, bestArea = decoded, area
		}
		return nil
	}

	selected := []string{strconv.Itoa(index + 1)}
	if err := api.ExtractImages(bytes.NewReader(d.data), selected, digest, d.conf); err != nil {
		return nil, err
	}

	var page image.Image
	if best == nil {
		page = imaging.New(d.size.Width, d.size.Height, color.White)
	} else {
		b := best.Bounds()
		target := d.size.Oriented(b.Dx(), b.Dy())
		page = utils.FitToSize(best, target.Width, target.Height)
	}

	b := page.Bounds()
	return &Page{Index: index, Pix: utils.ToBGRA(page), Width: b.Dx(), Height: b.Dy()}, nil
}

func (d *embeddedDocument) Close() error {
	d.data = nil
	return nil
}
