package qrreader

import (
	"context"
	"testing"

	"github.com/MeKo-Tech/pdfqr/internal/raster"
	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests render real PDFs with both renderers.

func renderers(t *testing.T) map[string]*Reader {
	t.Helper()
	out := make(map[string]*Reader)
	for _, name := range []string{raster.RendererFitz, raster.RendererEmbedded} {
		rz, err := raster.New(name)
		require.NoError(t, err)
		r, err := New(Config{Rasterizer: rz})
		require.NoError(t, err)
		out[name] = r
	}
	return out
}

func TestPDF_SinglePageExample(t *testing.T) {
	data := testutil.QRPDF(t, exampleURL, 1, 0)

	res, err := ReadPDF(data, NoRegion)
	require.NoError(t, err)
	assert.Equal(t, exampleURL, res.Text)
	assert.Equal(t, 0, res.Page)
}

func TestPDF_CodeOnLastPage(t *testing.T) {
	data := testutil.QRPDF(t, testutil.SampleURL, 3, 2)

	for name, r := range renderers(t) {
		t.Run(name, func(t *testing.T) {
			res, err := r.ReadPDF(context.Background(), data, NoRegion)
			require.NoError(t, err)
			assert.Equal(t, testutil.SampleURL, res.Text)
			assert.Equal(t, 2, res.Page)

			res, err = r.ReadPDFAtPage(context.Background(), data, 0, NoRegion)
			require.NoError(t, err)
			assert.False(t, res.Found())

			_, err = r.ReadPDFAtPage(context.Background(), data, 3, NoRegion)
			var rangeErr *PageRangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, 3, rangeErr.Page)
			assert.Equal(t, 3, rangeErr.Count)
		})
	}
}

func TestPDF_NoCode(t *testing.T) {
	data := testutil.QRPDF(t, exampleURL, 2, -1)

	res, err := ReadPDF(data, NoRegion)
	require.NoError(t, err)
	assert.False(t, res.Found())
}

func TestPDF_FileVariants(t *testing.T) {
	path := testutil.WriteTempFile(t, "doc.pdf", testutil.QRPDF(t, exampleURL, 2, 1))
	r := NewDefault()

	res, err := r.ReadPDFFile(context.Background(), path, NoRegion)
	require.NoError(t, err)
	assert.Equal(t, exampleURL, res.Text)

	res, err = r.ReadPDFFileAtPage(context.Background(), path, 1, NoRegion)
	require.NoError(t, err)
	assert.Equal(t, exampleURL, res.Text)

	_, err = r.ReadPDFFile(context.Background(), path+".missing", NoRegion)
	assert.Error(t, err)
}

func TestPDF_Malformed(t *testing.T) {
	_, err := ReadPDF([]byte("this is not a pdf"), NoRegion)
	require.Error(t, err)
	var openErr *raster.OpenError
	assert.ErrorAs(t, err, &openErr)

	_, err = ReadPDFAtPage([]byte("this is not a pdf"), 0, NoRegion)
	assert.Error(t, err)
}

func TestPDF_Encrypted(t *testing.T) {
	locked := testutil.EncryptPDF(t, testutil.QRPDF(t, exampleURL, 1, 0), "secret", "owner")

	r, err := New(Config{Credentials: Credentials{UserPassword: "secret"}})
	require.NoError(t, err)
	res, err := r.ReadPDF(context.Background(), locked, NoRegion)
	require.NoError(t, err)
	assert.Equal(t, exampleURL, res.Text)

	wrong, err := New(Config{Credentials: Credentials{UserPassword: "guess"}})
	require.NoError(t, err)
	_, err = wrong.ReadPDF(context.Background(), locked, NoRegion)
	assert.ErrorIs(t, err, ErrPasswordRequired)
}
