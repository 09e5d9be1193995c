package testutil

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/require"
)

// PDFFromImages builds a PDF with one page per encoded image, in order.
func PDFFromImages(t testing.TB, images ...[]byte) []byte {
	t.Helper()

	data, err := BuildPDF(images...)
	require.NoError(t, err)
	return data
}

// BuildPDF is PDFFromImages for callers outside a test, such as godog steps.
func BuildPDF(images ...[]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, errors.New("at least one page image is required")
	}

	readers := make([]io.Reader, 0, len(images))
	for _, img := range images {
		readers = append(readers, bytes.NewReader(img))
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, pdfcpu.DefaultImportConfig(), model.NewDefaultConfiguration()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// QRPDF builds a PDF of pageCount pages where only page qrPage (zero-based)
// carries a QR code encoding content. A negative qrPage yields no QR at all.
func QRPDF(t testing.TB, content string, pageCount, qrPage int) []byte {
	t.Helper()

	data, err := BuildQRPDF(content, pageCount, qrPage)
	require.NoError(t, err)
	return data
}

// BuildQRPDF is QRPDF for callers outside a test, such as godog steps.
func BuildQRPDF(content string, pageCount, qrPage int) ([]byte, error) {
	pages := make([][]byte, 0, pageCount)
	for i := range pageCount {
		if i == qrPage {
			code, err := qrcode.Encode(content, qrcode.Medium, 300)
			if err != nil {
				return nil, err
			}
			pages = append(pages, code)
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, TextImage(300, 300, "no code on this page")); err != nil {
			return nil, err
		}
		pages = append(pages, buf.Bytes())
	}
	return BuildPDF(pages...)
}

// EncryptPDF protects data with AES-256 using the given passwords.
func EncryptPDF(t testing.TB, data []byte, userPW, ownerPW string) []byte {
	t.Helper()

	out, err := Encrypt(data, userPW, ownerPW)
	require.NoError(t, err)
	return out
}

// Encrypt is EncryptPDF for callers outside a test, such as godog steps.
func Encrypt(data []byte, userPW, ownerPW string) ([]byte, error) {
	var out bytes.Buffer
	conf := model.NewAESConfiguration(userPW, ownerPW, 256)
	if err := api.Encrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
