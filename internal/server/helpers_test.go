package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/pdfqr/internal/raster/rastertest"
	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
	"github.com/stretchr/testify/require"
)

const exampleURL = "http://example.com/x"

// qrPage places a 300px code on a white 1080x1920 page.
func qrPage(t *testing.T, content string) image.Image {
	t.Helper()
	return testutil.Compose(1080, 1920, color.White, testutil.QRImage(t, content, 300), image.Pt(200, 400))
}

func blankPage() image.Image {
	return testutil.TextImage(1080, 1920, "no code here")
}

// newTestServer returns a server whose PDFs render to pages.
func newTestServer(t *testing.T, pages ...image.Image) (*Server, *rastertest.Rasterizer) {
	t.Helper()
	fake := rastertest.New(pages...)
	s, err := NewServer(Config{
		CORSOrigin: "*",
		Reader:     qrreader.Config{Rasterizer: fake},
	})
	require.NoError(t, err)
	return s, fake
}

func newMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// multipartRequest builds a POST with one file field plus extra form fields.
func multipartRequest(t *testing.T, path, field string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if data != nil {
		part, err := mw.CreateFormFile(field, "upload")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeQRResponse(t *testing.T, rec *httptest.ResponseRecorder) QRResponse {
	t.Helper()
	var resp QRResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
