// Package batch extracts QR codes from many images and PDFs concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// ErrNoFiles is returned when discovery yields no supported inputs.
var ErrNoFiles = errors.New("no image or PDF files found")

// ProcessBatch discovers inputs under paths and extracts QR codes from each.
func ProcessBatch(ctx context.Context, paths []string, cfg *Config) (*Result, error) {
	files, err := discoverFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	run := *cfg
	run.Workers = workers

	slog.Debug("starting batch", "files", len(files), "workers", workers)

	start := time.Now()
	items, err := processFilesParallel(ctx, files, &run)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	return &Result{
		Items:       items,
		Duration:    duration,
		WorkerCount: min(workers, len(files)),
	}, nil
}
