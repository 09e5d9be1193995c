package raster

import (
	"errors"
	"testing"

	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitzRasterizer_RendersPagesWithinTarget(t *testing.T) {
	data := testutil.QRPDF(t, testutil.SampleURL, 3, 1)

	doc, err := NewFitzRasterizer().Open(data, DefaultPageDimensions)
	require.NoError(t, err)
	defer func() { assert.NoError(t, doc.Close()) }()

	require.Equal(t, 3, doc.PageCount())

	page, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Index)
	assert.LessOrEqual(t, page.Width, DefaultPageDimensions.Width+1)
	assert.LessOrEqual(t, page.Height, DefaultPageDimensions.Height+1)
	fitsWidth := page.Width >= DefaultPageDimensions.Width-2
	fitsHeight := page.Height >= DefaultPageDimensions.Height-2
	assert.True(t, fitsWidth || fitsHeight, "one side should reach the target, got %dx%d", page.Width, page.Height)
	assert.Len(t, page.Pix, page.Width*page.Height*4)
}

func TestFitzRasterizer_SmallTarget(t *testing.T) {
	data := testutil.QRPDF(t, testutil.SampleURL, 1, 0)

	doc, err := NewFitzRasterizer().Open(data, PageDimensions{Width: 200, Height: 100})
	require.NoError(t, err)
	defer doc.Close()

	page, err := doc.Page(0)
	require.NoError(t, err)
	// The box turns with the page, so only the sides' lengths are bounded.
	assert.LessOrEqual(t, max(page.Width, page.Height), 201)
	assert.LessOrEqual(t, min(page.Width, page.Height), 101)
}

func TestFitzDocument_DPIFollowsPageOrientation(t *testing.T) {
	d := &fitzDocument{size: DefaultPageDimensions}

	// A4 landscape fills 1920 wide instead of shrinking to 1080.
	landscape := d.dpiFor(842, 595)
	assert.InDelta(t, pointsPerInch*min(1920.0/842, 1080.0/595), landscape, 1e-9)
	assert.Greater(t, landscape, pointsPerInch*1080.0/842)

	portrait := d.dpiFor(595, 842)
	assert.InDelta(t, pointsPerInch*min(1080.0/595, 1920.0/842), portrait, 1e-9)
	assert.InDelta(t, landscape, portrait, 1e-9)
}

func TestFitzRasterizer_PageOutOfRange(t *testing.T) {
	data := testutil.QRPDF(t, testutil.SampleURL, 2, 0)

	doc, err := NewFitzRasterizer().Open(data, DefaultPageDimensions)
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.Page(2)
	require.Error(t, err)
	var rangeErr *PageRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 2, rangeErr.Page)
	assert.Equal(t, 2, rangeErr.Count)
}

func TestFitzRasterizer_RejectsGarbage(t *testing.T) {
	_, err := NewFitzRasterizer().Open([]byte("definitely not a pdf"), DefaultPageDimensions)
	require.Error(t, err)
	var openErr *OpenError
	assert.ErrorAs(t, err, &openErr)
}

func TestFitzRasterizer_RejectsInvalidDimensions(t *testing.T) {
	data := testutil.QRPDF(t, testutil.SampleURL, 1, 0)
	_, err := NewFitzRasterizer().Open(data, PageDimensions{})
	assert.Error(t, err)
}
