package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ErrRegionOutOfBounds is returned when a crop rectangle does not lie inside the image.
var ErrRegionOutOfBounds = errors.New("region outside image bounds")

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// FromBGRA builds an image from a tightly packed BGRA8 buffer of width*height pixels.
func FromBGRA(pix []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, &ImageProcessingError{
			Operation: "from_bgra",
			Err:       fmt.Errorf("invalid dimensions %dx%d", width, height),
		}
	}
	if want := 4 * width * height; len(pix) != want {
		return nil, &ImageProcessingError{
			Operation: "from_bgra",
			Err:       fmt.Errorf("pixel buffer has %d bytes, want %d", len(pix), want),
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(pix); i += 4 {
		img.Pix[i+0] = pix[i+2]
		img.Pix[i+1] = pix[i+1]
		img.Pix[i+2] = pix[i+0]
		img.Pix[i+3] = pix[i+3]
	}
	return img, nil
}

// ToBGRA returns the pixels of img as a tightly packed BGRA8 buffer.
func ToBGRA(img image.Image) []byte {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	out := make([]byte, len(rgba.Pix))
	for i := 0; i < len(out); i += 4 {
		out[i+0] = rgba.Pix[i+2]
		out[i+1] = rgba.Pix[i+1]
		out[i+2] = rgba.Pix[i+0]
		out[i+3] = rgba.Pix[i+3]
	}
	return out
}

// FlattenBackground composites img over a solid background so that no
// transparent pixels remain. The result always starts at the origin.
func FlattenBackground(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// CropRegion cuts region out of img. Region coordinates are relative to the
// image origin and must lie entirely inside the image.
func CropRegion(img image.Image, region image.Rectangle) (*image.NRGBA, error) {
	b := img.Bounds()
	rel := region.Add(b.Min)
	if region.Empty() || !rel.In(b) {
		return nil, &ImageProcessingError{
			Operation: "crop",
			Err:       fmt.Errorf("%w: %v not within %dx%d", ErrRegionOutOfBounds, region, b.Dx(), b.Dy()),
		}
	}
	return imaging.Crop(img, rel), nil
}

// FitToSize scales img so it fits inside width x height while keeping its
// aspect ratio. Unlike imaging.Fit it also scales small images up.
func FitToSize(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Empty() || width <= 0 || height <= 0 {
		return imaging.Clone(img)
	}
	sx := float64(width) / float64(b.Dx())
	sy := float64(height) / float64(b.Dy())
	scale := min(sx, sy)
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
