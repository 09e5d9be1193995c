package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SampleURL is the payload used by most fixtures.
const SampleURL = "http://commons.wikimedia.org/wiki/Commons:Mobile_app/Download/Mobile"

// QRImage renders content as a QR code of size x size pixels, quiet zone included.
func QRImage(t testing.TB, content string, size int) image.Image {
	t.Helper()

	q, err := qrcode.New(content, qrcode.Medium)
	require.NoError(t, err)
	return q.Image(size)
}

// QRPNG returns a PNG-encoded QR code.
func QRPNG(t testing.TB, content string, size int) []byte {
	t.Helper()

	data, err := qrcode.Encode(content, qrcode.Medium, size)
	require.NoError(t, err)
	return data
}

// QRJPEG returns a JPEG-encoded QR code.
func QRJPEG(t testing.TB, content string, size int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, QRImage(t, content, size), &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

// TextImage returns a white image with a line of black text and no QR code.
func TextImage(width, height int, text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{color.Black},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, height/2),
	}
	drawer.DrawString(text)
	return img
}

// TextPNG is TextImage encoded as PNG.
func TextPNG(t testing.TB, width, height int, text string) []byte {
	t.Helper()
	return EncodePNG(t, TextImage(width, height, text))
}

// Compose draws fg onto a width x height canvas filled with bg at offset at.
// A fully transparent bg produces a page with transparent margins.
func Compose(width, height int, bg color.Color, fg image.Image, at image.Point) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	r := image.Rectangle{Min: at, Max: at.Add(fg.Bounds().Size())}
	draw.Draw(canvas, r, fg, fg.Bounds().Min, draw.Over)
	return canvas
}

// EncodePNG encodes img as PNG.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
