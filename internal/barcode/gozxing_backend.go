package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"

	gozxing "github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode"
)

type gozxingBackend struct{}

func (b *gozxingBackend) Decode(ctx context.Context, img image.Image, opts Options) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("barcode: nil image")
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrNotFound)
	}

	// Nil hints keep the decoder on its default single pass.
	var hints map[gozxing.DecodeHintType]interface{}
	if opts.TryHarder {
		hints = map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		}
	}

	source := gozxing.NewLuminanceSourceFromImage(img)
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return nil, fmt.Errorf("barcode: creating bitmap: %w", err)
	}

	var results []*gozxing.Result
	if opts.Multi {
		results, err = multiqr.NewQRCodeMultiReader().DecodeMultiple(bitmap, hints)
	} else {
		var r *gozxing.Result
		r, err = qrcode.NewQRCodeReader().Decode(bitmap, hints)
		if err == nil && r != nil {
			results = []*gozxing.Result{r}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		var points []Point
		if pts := r.GetResultPoints(); len(pts) > 0 {
			points = make([]Point, 0, len(pts))
			for _, p := range pts {
				points = append(points, Point{X: int(p.GetX()), Y: int(p.GetY())})
			}
		}
		out = append(out, Result{
			Text:   r.GetText(),
			Points: points,
			BBox:   rectFromPoints(points),
		})
	}
	return out, nil
}

func rectFromPoints(pts []Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
