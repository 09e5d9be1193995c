package qrreader

import (
	"context"
	"testing"

	"github.com/MeKo-Tech/pdfqr/internal/raster/rastertest"
	"github.com/MeKo-Tech/pdfqr/internal/testutil"
)

func BenchmarkReadImage(b *testing.B) {
	data := testutil.QRPNG(b, exampleURL, 300)
	r := NewDefault()
	ctx := context.Background()

	b.ResetTimer()
	for range b.N {
		_, _ = r.ReadImage(ctx, data)
	}
}

func BenchmarkReadPDF_CodeOnLastPage(b *testing.B) {
	fake := rastertest.New(blankPage(), blankPage(), qrPage(b, exampleURL, 200, 400))
	r, err := New(Config{Rasterizer: fake})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for range b.N {
		_, _ = r.ReadPDF(ctx, []byte("pdf"), NoRegion)
	}
}

func BenchmarkReadPDF_Fitz(b *testing.B) {
	data := testutil.QRPDF(b, exampleURL, 3, 2)
	r := NewDefault()
	ctx := context.Background()

	b.ResetTimer()
	for range b.N {
		_, _ = r.ReadPDF(ctx, data, NoRegion)
	}
}
