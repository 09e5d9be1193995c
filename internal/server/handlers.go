package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/pdfqr/internal/raster"
	"github.com/MeKo-Tech/pdfqr/internal/utils"
	"github.com/MeKo-Tech/pdfqr/internal/version"
	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// qrImageHandler decodes an uploaded image as-is.
func (s *Server) qrImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, ok := s.readUpload(w, r, "image")
	if !ok {
		qrRequestsTotal.WithLabelValues("image", "error").Inc()
		return
	}

	reader, err := s.newReader()
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to create reader: %v", err), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	res, err := reader.ReadImage(ctx, data)
	if err != nil {
		qrRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Invalid image: %v", err), http.StatusBadRequest)
		return
	}
	recordOutcome("image", res.Found(), res.Text, time.Since(start).Seconds())

	result := toQRResult(res)
	s.writeJSON(w, http.StatusOK, QRResponse{Success: true, Result: &result})
}

// pdfRequest carries the optional form fields of POST /qr/pdf.
type pdfRequest struct {
	Page     *int
	Region   image.Rectangle
	All      bool
	Password string
}

func parsePDFRequest(r *http.Request) (pdfRequest, error) {
	var req pdfRequest

	if p := strings.TrimSpace(r.FormValue("page")); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil {
			return req, fmt.Errorf("invalid page %q", p)
		}
		req.Page = &page
	}

	region, err := utils.ParseRegion(r.FormValue("region"))
	if err != nil {
		return req, err
	}
	req.Region = region

	if a := r.FormValue("all"); a != "" {
		all, err := strconv.ParseBool(a)
		if err != nil {
			return req, fmt.Errorf("invalid all flag %q", a)
		}
		req.All = all
	}
	req.Password = r.FormValue("password")
	return req, nil
}

// qrPDFHandler scans an uploaded PDF. Form fields: page (zero-based),
// region (x,y,w,h), all (every code on every page), password.
func (s *Server) qrPDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, ok := s.readUpload(w, r, "pdf")
	if !ok {
		qrRequestsTotal.WithLabelValues("pdf", "error").Inc()
		return
	}

	req, err := parsePDFRequest(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	reader, err := s.newReaderWithPassword(req.Password)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to create reader: %v", err), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	response, err := s.processPDF(ctx, reader, data, req)
	if err != nil {
		qrRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeErrorResponse(w, err.Error(), statusForError(err))
		return
	}

	found := (response.Result != nil && response.Result.Found) || len(response.Results) > 0
	text := ""
	if response.Result != nil {
		text = response.Result.Text
	}
	recordOutcome("pdf", found, text, time.Since(start).Seconds())

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) processPDF(ctx context.Context, reader *qrreader.Reader, data []byte, req pdfRequest) (QRResponse, error) {
	switch {
	case req.All:
		hits, err := reader.ScanPDF(ctx, data, req.Region)
		if err != nil {
			return QRResponse{}, err
		}
		results := make([]QRResult, 0, len(hits))
		for _, h := range hits {
			results = append(results, toQRResult(h))
		}
		return QRResponse{Success: true, Results: results}, nil
	case req.Page != nil:
		res, err := reader.ReadPDFAtPage(ctx, data, *req.Page, req.Region)
		if err != nil {
			return QRResponse{}, err
		}
		result := toQRResult(res)
		return QRResponse{Success: true, Result: &result}, nil
	default:
		res, err := reader.ReadPDF(ctx, data, req.Region)
		if err != nil {
			return QRResponse{}, err
		}
		result := toQRResult(res)
		return QRResponse{Success: true, Result: &result}, nil
	}
}

// readUpload reads the multipart file field, writing an error response on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	limit := s.maxUploadMB * 1024 * 1024
	if r.ContentLength > limit {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("No %s file provided", field), http.StatusBadRequest)
		return nil, false
	}
	defer func() { _ = file.Close() }()

	if header.Size > limit {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to read %s data", field), http.StatusInternalServerError)
		return nil, false
	}
	return data, true
}

// statusForError maps extraction errors to HTTP status codes.
func statusForError(err error) int {
	var openErr *raster.OpenError
	var procErr *utils.ImageProcessingError
	switch {
	case errors.Is(err, raster.ErrPageOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, raster.ErrPasswordRequired):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &openErr), errors.As(err, &procErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, QRResponse{Success: false, Error: message})
}
