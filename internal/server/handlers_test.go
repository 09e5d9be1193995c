package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/pdfqr/internal/raster"
	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/MeKo-Tech/pdfqr/internal/utils"
	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_Defaults(t *testing.T) {
	s, err := NewServer(Config{})
	require.NoError(t, err)
	assert.Equal(t, int64(50), s.maxUploadMB)
	assert.Equal(t, "30s", s.timeout.String())
	assert.Nil(t, s.rateLimiter)
	assert.NoError(t, s.Close())
}

func TestNewServer_RejectsInvalidReaderConfig(t *testing.T) {
	_, err := NewServer(Config{Reader: qrreader.Config{PageDimensions: qrreader.PageDimensions{Width: -1, Height: 10}}})
	assert.Error(t, err)
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t)
	mux := newMux(s)

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = serve(mux, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQRImageHandler(t *testing.T) {
	s, _ := newTestServer(t)
	mux := newMux(s)

	t.Run("code found", func(t *testing.T) {
		req := multipartRequest(t, "/qr/image", "image", testutil.QRPNG(t, exampleURL, 300), nil)
		rec := serve(mux, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeQRResponse(t, rec)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Result)
		assert.True(t, resp.Result.Found)
		assert.Equal(t, exampleURL, resp.Result.Text)
	})

	t.Run("no code", func(t *testing.T) {
		req := multipartRequest(t, "/qr/image", "image", testutil.TextPNG(t, 400, 200, "hello"), nil)
		rec := serve(mux, req)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeQRResponse(t, rec)
		require.NotNil(t, resp.Result)
		assert.False(t, resp.Result.Found)
		assert.Equal(t, -1, resp.Result.Page)
	})

	t.Run("not an image", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/image", "image", []byte("garbage"), nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, decodeQRResponse(t, rec).Success)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/image", "image", nil, map[string]string{"x": "y"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeQRResponse(t, rec).Error, "No image file provided")
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/qr/image", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestQRImageHandler_TooLarge(t *testing.T) {
	s, _ := newTestServer(t)
	s.maxUploadMB = 1

	big := make([]byte, 2*1024*1024)
	rec := serve(newMux(s), multipartRequest(t, "/qr/image", "image", big, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestQRPDFHandler(t *testing.T) {
	s, fake := newTestServer(t, blankPage(), qrPage(t, exampleURL), qrPage(t, "second"))
	mux := newMux(s)
	pdf := []byte("%PDF-fake")

	t.Run("first hit", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/pdf", "pdf", pdf, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeQRResponse(t, rec)
		require.NotNil(t, resp.Result)
		assert.Equal(t, exampleURL, resp.Result.Text)
		assert.Equal(t, 1, resp.Result.Page)
	})

	t.Run("explicit page", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/pdf", "pdf", pdf, map[string]string{"page": "2"}))
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeQRResponse(t, rec)
		assert.Equal(t, "second", resp.Result.Text)
		assert.Equal(t, 2, resp.Result.Page)
	})

	t.Run("page out of range", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/pdf", "pdf", pdf, map[string]string{"page": "3"}))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeQRResponse(t, rec).Error, "out of range")
	})

	t.Run("invalid page", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/pdf", "pdf", pdf, map[string]string{"page": "two"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid region", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/pdf", "pdf", pdf, map[string]string{"region": "1,2,3"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("region excluding the code", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/pdf", "pdf", pdf, map[string]string{"region": "0,0,100,100"}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeQRResponse(t, rec).Result.Found)
	})

	t.Run("all codes", func(t *testing.T) {
		rec := serve(mux, multipartRequest(t, "/qr/pdf", "pdf", pdf, map[string]string{"all": "true"}))
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeQRResponse(t, rec)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, exampleURL, resp.Results[0].Text)
		assert.Equal(t, 1, resp.Results[0].Page)
		assert.Equal(t, "second", resp.Results[1].Text)
		assert.Equal(t, 2, resp.Results[1].Page)
	})

	assert.Equal(t, fake.Opened(), fake.Closed())
}

func TestQRPDFHandler_RealDocument(t *testing.T) {
	s, err := NewServer(Config{})
	require.NoError(t, err)
	mux := newMux(s)

	plain := testutil.QRPDF(t, exampleURL, 2, 1)
	rec := serve(mux, multipartRequest(t, "/qr/pdf", "pdf", plain, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, exampleURL, decodeQRResponse(t, rec).Result.Text)

	rec = serve(mux, multipartRequest(t, "/qr/pdf", "pdf", []byte("not a pdf"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	encrypted := testutil.EncryptPDF(t, plain, "user", "owner")
	rec = serve(mux, multipartRequest(t, "/qr/pdf", "pdf", encrypted, map[string]string{"password": "wrong"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(mux, multipartRequest(t, "/qr/pdf", "pdf", encrypted, map[string]string{"password": "owner"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, exampleURL, decodeQRResponse(t, rec).Result.Text)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"page range", &raster.PageRangeError{Page: 4, Count: 2}, http.StatusUnprocessableEntity},
		{"password", fmt.Errorf("open: %w", raster.ErrPasswordRequired), http.StatusUnauthorized},
		{"deadline", fmt.Errorf("page 1: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"open", &raster.OpenError{Renderer: "fitz", Err: errors.New("bad xref")}, http.StatusBadRequest},
		{"image", &utils.ImageProcessingError{Operation: "decode", Err: errors.New("eof")}, http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}
