package batch

import (
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Reader configures every worker's qrreader.Reader.
	Reader qrreader.Config
	// Region restricts PDF pages to a pixel rectangle. qrreader.NoRegion scans the whole page.
	Region image.Rectangle
	// All collects every code on every PDF page instead of stopping at the first.
	All bool

	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress reporting; nil disables it.
	Progress ProgressCallback
}

// Item is the outcome for one input file.
type Item struct {
	Path    string
	Kind    string // "image" or "pdf"
	Results []qrreader.Result
	Err     error
}

// Found reports whether the file yielded at least one code.
func (it Item) Found() bool {
	for _, r := range it.Results {
		if r.Found() {
			return true
		}
	}
	return false
}

// Result holds the result of batch processing in input order.
type Result struct {
	Items       []Item
	Duration    time.Duration
	WorkerCount int
}

// Stats summarizes a batch run.
type Stats struct {
	TotalFiles       int           `json:"total_files"`
	Processed        int           `json:"processed"`
	Failed           int           `json:"failed"`
	WithCode         int           `json:"with_code"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerFile   time.Duration `json:"average_per_file_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// Stats computes processing statistics.
func (r *Result) Stats() Stats {
	s := Stats{TotalFiles: len(r.Items), WorkerCount: r.WorkerCount, TotalDuration: r.Duration}
	for _, it := range r.Items {
		if it.Err != nil {
			s.Failed++
			continue
		}
		s.Processed++
		if it.Found() {
			s.WithCode++
		}
	}
	if s.Processed > 0 {
		s.AveragePerFile = r.Duration / time.Duration(s.Processed)
		if r.Duration > 0 {
			s.ThroughputPerSec = float64(s.Processed) / r.Duration.Seconds()
		}
	}
	return s
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Items, format)
}

// SaveResults writes the formatted results to outputFile, or to w when outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(w, output)
	return err
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total files: %d\n", stats.TotalFiles)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.Processed)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.Failed)
	_, _ = fmt.Fprintf(w, "  With QR code: %d\n", stats.WithCode)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per file: %v\n", stats.AveragePerFile.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f files/sec\n", stats.ThroughputPerSec)
}
