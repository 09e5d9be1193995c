package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MeKo-Tech/pdfqr/internal/utils"
)

// maxBatchItems caps the number of documents in one batch request.
const maxBatchItems = 10

// BatchQRRequest represents a batch extraction request. Data fields are base64 in JSON.
type BatchQRRequest struct {
	Images []BatchImageRequest `json:"images,omitempty"`
	PDFs   []BatchPDFRequest   `json:"pdfs,omitempty"`
}

// BatchImageRequest represents a single image in a batch request.
type BatchImageRequest struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// BatchPDFRequest represents a single PDF in a batch request.
type BatchPDFRequest struct {
	Name     string `json:"name"`
	Data     []byte `json:"data"`
	Page     *int   `json:"page,omitempty"`
	Region   string `json:"region,omitempty"`
	All      bool   `json:"all,omitempty"`
	Password string `json:"password,omitempty"`
}

// BatchQRResponse represents the response for batch processing.
type BatchQRResponse struct {
	Success bool                   `json:"success"`
	Results []BatchQRResult        `json:"results,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Summary BatchProcessingSummary `json:"summary"`
}

// BatchQRResult represents a single result in batch processing.
type BatchQRResult struct {
	Type     string      `json:"type"` // "image" or "pdf"
	Name     string      `json:"name"`
	Success  bool        `json:"success"`
	Result   *QRResponse `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
	Duration float64     `json:"duration_seconds"`
}

// BatchProcessingSummary provides summary statistics for batch processing.
type BatchProcessingSummary struct {
	TotalItems    int     `json:"total_items"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	Found         int     `json:"found"`
	TotalDuration float64 `json:"total_duration_seconds"`
	AvgItemTime   float64 `json:"avg_item_time_seconds"`
}

// qrBatchHandler processes up to maxBatchItems images and PDFs in one request.
func (s *Server) qrBatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// JSON with base64 payloads is about 4/3 the size of the raw files.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024*2)

	var req BatchQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to parse JSON request: %v", err), http.StatusBadRequest)
		return
	}

	totalItems := len(req.Images) + len(req.PDFs)
	if totalItems == 0 {
		s.writeErrorResponse(w, "No images or PDFs provided in batch request", http.StatusBadRequest)
		return
	}
	if totalItems > maxBatchItems {
		s.writeErrorResponse(w, fmt.Sprintf("Batch size too large (maximum %d items)", maxBatchItems), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	results, summary := s.processBatchRequest(ctx, req)
	totalDuration := time.Since(start)

	summary.TotalDuration = totalDuration.Seconds()
	summary.AvgItemTime = summary.TotalDuration / float64(summary.TotalItems)

	qrRequestsTotal.WithLabelValues("batch", "success").Inc()
	qrProcessingDuration.WithLabelValues("batch").Observe(totalDuration.Seconds())

	s.writeJSON(w, http.StatusOK, BatchQRResponse{
		Success: summary.Failed == 0,
		Results: results,
		Summary: summary,
	})
}

// processBatchRequest processes all items in request order, images first.
func (s *Server) processBatchRequest(ctx context.Context, req BatchQRRequest) ([]BatchQRResult, BatchProcessingSummary) {
	results := make([]BatchQRResult, 0, len(req.Images)+len(req.PDFs))
	summary := BatchProcessingSummary{TotalItems: len(req.Images) + len(req.PDFs)}

	record := func(result BatchQRResult) {
		results = append(results, result)
		if !result.Success {
			summary.Failed++
			return
		}
		summary.Successful++
		if r := result.Result; r != nil && ((r.Result != nil && r.Result.Found) || len(r.Results) > 0) {
			summary.Found++
		}
	}

	for _, imgReq := range req.Images {
		record(s.processBatchImage(ctx, imgReq))
	}
	for _, pdfReq := range req.PDFs {
		record(s.processBatchPDF(ctx, pdfReq))
	}
	return results, summary
}

func (s *Server) processBatchImage(ctx context.Context, req BatchImageRequest) BatchQRResult {
	start := time.Now()
	result := BatchQRResult{Type: "image", Name: req.Name}

	res, err := s.batchImage(ctx, req)
	result.Duration = time.Since(start).Seconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Result = &res
	return result
}

func (s *Server) batchImage(ctx context.Context, req BatchImageRequest) (QRResponse, error) {
	reader, err := s.newReader()
	if err != nil {
		return QRResponse{}, err
	}
	hit, err := reader.ReadImage(ctx, req.Data)
	if err != nil {
		return QRResponse{}, err
	}
	qr := toQRResult(hit)
	return QRResponse{Success: true, Result: &qr}, nil
}

func (s *Server) processBatchPDF(ctx context.Context, req BatchPDFRequest) BatchQRResult {
	start := time.Now()
	result := BatchQRResult{Type: "pdf", Name: req.Name}

	res, err := s.batchPDF(ctx, req)
	result.Duration = time.Since(start).Seconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Result = &res
	return result
}

func (s *Server) batchPDF(ctx context.Context, req BatchPDFRequest) (QRResponse, error) {
	region, err := utils.ParseRegion(req.Region)
	if err != nil {
		return QRResponse{}, err
	}
	reader, err := s.newReaderWithPassword(req.Password)
	if err != nil {
		return QRResponse{}, err
	}
	return s.processPDF(ctx, reader, req.Data, pdfRequest{Page: req.Page, Region: region, All: req.All})
}
