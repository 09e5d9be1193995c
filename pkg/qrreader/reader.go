package qrreader

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/MeKo-Tech/pdfqr/internal/barcode"
	"github.com/MeKo-Tech/pdfqr/internal/raster"
	"github.com/MeKo-Tech/pdfqr/internal/utils"
)

// Reader extracts QR payloads. Its configuration is read at call time, so
// goroutines that need different settings must use separate Readers.
type Reader struct {
	cfg Config
}

// New returns a Reader for cfg. Unset fields take their DefaultConfig values.
func New(cfg Config) (*Reader, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Reader{cfg: cfg}, nil
}

// NewDefault returns a Reader using DefaultConfig.
func NewDefault() *Reader {
	return &Reader{cfg: DefaultConfig().withDefaults()}
}

// Config returns a copy of the current configuration.
func (r *Reader) Config() Config { return r.cfg }

// SetPageDimensions changes the raster size used by subsequent reads.
func (r *Reader) SetPageDimensions(d PageDimensions) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.cfg.PageDimensions = d
	return nil
}

// SetBackground changes the background color used by subsequent reads.
func (r *Reader) SetBackground(c color.Color) {
	if c != nil {
		r.cfg.Background = c
	}
}

// ReadImageFile decodes the image at path as-is.
func (r *Reader) ReadImageFile(ctx context.Context, path string) (Result, error) {
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return NotFound(), err
	}
	return r.Decode(ctx, img), nil
}

// ReadImage decodes encoded image bytes as-is. No background normalization
// or cropping is applied.
func (r *Reader) ReadImage(ctx context.Context, data []byte) (Result, error) {
	img, _, err := utils.DecodeImage(data)
	if err != nil {
		return NotFound(), err
	}
	return r.Decode(ctx, img), nil
}

// ReadPDFFile scans every page of the PDF at path.
func (r *Reader) ReadPDFFile(ctx context.Context, path string, region image.Rectangle) (Result, error) {
	data, err := readFile(path)
	if err != nil {
		return NotFound(), err
	}
	return r.ReadPDF(ctx, data, region)
}

// ReadPDF scans pages in ascending order and returns the first non-blank
// payload. Later pages are not rendered. A PDF without any code yields
// NotFound and a nil error.
func (r *Reader) ReadPDF(ctx context.Context, data []byte, region image.Rectangle) (Result, error) {
	doc, err := r.open(data)
	if err != nil {
		return NotFound(), err
	}
	defer r.closeDocument(doc)

	count := doc.PageCount()
	for page := range count {
		if err := ctx.Err(); err != nil {
			return NotFound(), err
		}
		res, err := r.readPage(ctx, doc, page, region)
		if err != nil {
			return NotFound(), err
		}
		if strings.TrimSpace(res.Text) != "" {
			r.cfg.Logger.Info("QR code found", "page", page, "pages", count)
			return res, nil
		}
	}
	r.cfg.Logger.Debug("no QR code in document", "pages", count)
	return NotFound(), nil
}

// ReadPDFFileAtPage decodes a single page of the PDF at path.
func (r *Reader) ReadPDFFileAtPage(ctx context.Context, path string, page int, region image.Rectangle) (Result, error) {
	data, err := readFile(path)
	if err != nil {
		return NotFound(), err
	}
	return r.ReadPDFAtPage(ctx, data, page, region)
}

// ReadPDFAtPage renders and decodes exactly one zero-based page. A page
// outside the document fails with *PageRangeError.
func (r *Reader) ReadPDFAtPage(ctx context.Context, data []byte, page int, region image.Rectangle) (Result, error) {
	doc, err := r.open(data)
	if err != nil {
		return NotFound(), err
	}
	defer r.closeDocument(doc)

	if err := raster.CheckPage(page, doc.PageCount()); err != nil {
		return NotFound(), err
	}
	if err := ctx.Err(); err != nil {
		return NotFound(), err
	}
	return r.readPage(ctx, doc, page, region)
}

// ScanPDF decodes every page and returns all codes found, in page order.
func (r *Reader) ScanPDF(ctx context.Context, data []byte, region image.Rectangle) ([]Result, error) {
	doc, err := r.open(data)
	if err != nil {
		return nil, err
	}
	defer r.closeDocument(doc)

	var hits []Result
	for page := range doc.PageCount() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := r.pageImage(doc, page, region)
		if err != nil {
			return nil, err
		}
		for _, res := range r.decodeAll(ctx, img) {
			res.Page = page
			hits = append(hits, res)
		}
	}
	return hits, nil
}

// ScanPDFFile is ScanPDF for the PDF at path.
func (r *Reader) ScanPDFFile(ctx context.Context, path string, region image.Rectangle) ([]Result, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return r.ScanPDF(ctx, data, region)
}

// ReadPDFPages is ReadPDF restricted to the given zero-based pages, visited
// in the order given. Every page is range-checked before any is rendered.
func (r *Reader) ReadPDFPages(ctx context.Context, data []byte, pages []int, region image.Rectangle) (Result, error) {
	doc, err := r.open(data)
	if err != nil {
		return NotFound(), err
	}
	defer r.closeDocument(doc)

	count := doc.PageCount()
	for _, page := range pages {
		if err := raster.CheckPage(page, count); err != nil {
			return NotFound(), err
		}
	}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return NotFound(), err
		}
		res, err := r.readPage(ctx, doc, page, region)
		if err != nil {
			return NotFound(), err
		}
		if strings.TrimSpace(res.Text) != "" {
			r.cfg.Logger.Info("QR code found", "page", page, "pages", count)
			return res, nil
		}
	}
	return NotFound(), nil
}

// PageCount opens data and reports its number of pages.
func (r *Reader) PageCount(data []byte) (int, error) {
	doc, err := r.open(data)
	if err != nil {
		return 0, err
	}
	defer r.closeDocument(doc)
	return doc.PageCount(), nil
}

// Decode runs a single decode pass over img. Failure to locate or decode a
// symbol yields NotFound.
func (r *Reader) Decode(ctx context.Context, img image.Image) Result {
	results, err := r.cfg.Backend.Decode(ctx, img, barcode.Options{TryHarder: r.cfg.TryHarder})
	if err != nil {
		if !barcode.IsNotFound(err) {
			r.cfg.Logger.Debug("decode failed", "error", err)
		}
		return NotFound()
	}
	if len(results) == 0 {
		return NotFound()
	}
	return Result{Text: results[0].Text, Page: -1, Bounds: results[0].BBox}
}

func (r *Reader) decodeAll(ctx context.Context, img image.Image) []Result {
	results, err := r.cfg.Backend.Decode(ctx, img, barcode.Options{TryHarder: r.cfg.TryHarder, Multi: true})
	if err != nil {
		return nil
	}
	out := make([]Result, 0, len(results))
	for _, res := range results {
		if strings.TrimSpace(res.Text) == "" {
			continue
		}
		out = append(out, Result{Text: res.Text, Page: -1, Bounds: res.BBox})
	}
	return out
}

func (r *Reader) readPage(ctx context.Context, doc raster.Document, page int, region image.Rectangle) (Result, error) {
	img, err := r.pageImage(doc, page, region)
	if err != nil {
		return NotFound(), err
	}
	res := r.Decode(ctx, img)
	if res.Found() {
		res.Page = page
	}
	return res, nil
}

// pageImage renders page, flattens it onto the background and applies region.
// Only one page buffer is alive at a time.
func (r *Reader) pageImage(doc raster.Document, page int, region image.Rectangle) (image.Image, error) {
	r.cfg.Logger.Debug("rendering page", "page", page,
		"width", r.cfg.PageDimensions.Width, "height", r.cfg.PageDimensions.Height)

	p, err := doc.Page(page)
	if err != nil {
		return nil, err
	}
	rgba, err := utils.FromBGRA(p.Pix, p.Width, p.Height)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}

	flat := utils.FlattenBackground(rgba, r.cfg.Background)
	if region == NoRegion {
		return flat, nil
	}
	cropped, err := utils.CropRegion(flat, region)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	return cropped, nil
}

func (r *Reader) open(data []byte) (raster.Document, error) {
	prepared, err := raster.PrepareDocument(data, r.cfg.Credentials)
	if err != nil {
		return nil, err
	}
	return r.cfg.Rasterizer.Open(prepared, r.cfg.PageDimensions)
}

func (r *Reader) closeDocument(doc raster.Document) {
	if err := doc.Close(); err != nil {
		r.cfg.Logger.Warn("failed to release document", "error", err)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: caller-supplied document path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
