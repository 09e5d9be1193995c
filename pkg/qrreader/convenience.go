package qrreader

import (
	"context"
	"image"
)

// ReadImageFile decodes the image at path with the default configuration.
func ReadImageFile(path string) (Result, error) {
	return NewDefault().ReadImageFile(context.Background(), path)
}

// ReadImage decodes encoded image bytes with the default configuration.
func ReadImage(data []byte) (Result, error) {
	return NewDefault().ReadImage(context.Background(), data)
}

// ReadPDF scans all pages of data with the default configuration.
func ReadPDF(data []byte, region image.Rectangle) (Result, error) {
	return NewDefault().ReadPDF(context.Background(), data, region)
}

// ReadPDFAtPage decodes one page of data with the default configuration.
func ReadPDFAtPage(data []byte, page int, region image.Rectangle) (Result, error) {
	return NewDefault().ReadPDFAtPage(context.Background(), data, page, region)
}
