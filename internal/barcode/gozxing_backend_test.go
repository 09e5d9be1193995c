package barcode

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGozxingBackend_DecodesSingleCode(t *testing.T) {
	img := testutil.QRImage(t, testutil.SampleURL, 256)

	results, err := NewBackend().Decode(context.Background(), img, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, testutil.SampleURL, results[0].Text)
	assert.NotEmpty(t, results[0].Points)
	assert.False(t, results[0].BBox.Empty())
	assert.True(t, results[0].BBox.In(img.Bounds()))
}

func TestGozxingBackend_TryHarderOnPaddedCode(t *testing.T) {
	qr := testutil.QRImage(t, "padded", 160)
	page := testutil.Compose(900, 1400, color.White, qr, image.Pt(610, 1100))

	results, err := NewBackend().Decode(context.Background(), page, Options{TryHarder: true})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "padded", results[0].Text)
}

func TestGozxingBackend_BlankImageNotFound(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 400, 400))
	draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)

	_, err := NewBackend().Decode(context.Background(), blank, Options{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGozxingBackend_TextImageNotFound(t *testing.T) {
	img := testutil.TextImage(600, 200, "nothing to scan here")

	_, err := NewBackend().Decode(context.Background(), img, Options{TryHarder: true})
	assert.True(t, IsNotFound(err))
}

func TestGozxingBackend_MultipleCodes(t *testing.T) {
	left := testutil.QRImage(t, "left", 200)
	right := testutil.QRImage(t, "right", 200)

	canvas := testutil.Compose(600, 300, color.White, left, image.Pt(20, 50))
	draw.Draw(canvas, right.Bounds().Add(image.Pt(360, 50)), right, image.Point{}, draw.Src)

	results, err := NewBackend().Decode(context.Background(), canvas, Options{Multi: true})
	require.NoError(t, err)

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	assert.ElementsMatch(t, []string{"left", "right"}, texts)
}

func TestGozxingBackend_MultiOnSingleCode(t *testing.T) {
	img := testutil.QRImage(t, testutil.SampleURL, 256)

	results, err := NewBackend().Decode(context.Background(), img, Options{Multi: true, TryHarder: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, testutil.SampleURL, results[0].Text)
	assert.True(t, results[0].BBox.In(img.Bounds()))
}

func TestGozxingBackend_InvalidInput(t *testing.T) {
	b := NewBackend()

	_, err := b.Decode(context.Background(), nil, Options{})
	require.Error(t, err)
	assert.False(t, IsNotFound(err))

	_, err = b.Decode(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0)), Options{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "an empty image simply has no code")
}

func TestGozxingBackend_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBackend().Decode(ctx, testutil.QRImage(t, "late", 128), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRectFromPoints(t *testing.T) {
	r := rectFromPoints([]Point{{X: 10, Y: 40}, {X: 30, Y: 5}, {X: 20, Y: 20}})
	assert.Equal(t, image.Rect(10, 5, 31, 41), r)
	assert.True(t, rectFromPoints(nil).Empty())
}
