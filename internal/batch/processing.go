package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
)

type fileJob struct {
	index int
	path  string
}

type fileResult struct {
	index int
	item  Item
}

// processFile runs one input through reader.
func processFile(ctx context.Context, reader *qrreader.Reader, path string, cfg *Config) Item {
	item := Item{Path: path, Kind: kindOf(path)}
	if item.Kind == "" {
		item.Kind = "image"
	}

	switch {
	case item.Kind == "image":
		res, err := reader.ReadImageFile(ctx, path)
		item.Err = err
		if err == nil {
			item.Results = []qrreader.Result{res}
		}
	case cfg.All:
		item.Results, item.Err = reader.ScanPDFFile(ctx, path, cfg.Region)
	default:
		res, err := reader.ReadPDFFile(ctx, path, cfg.Region)
		item.Err = err
		if err == nil {
			item.Results = []qrreader.Result{res}
		}
	}
	return item
}

// processFilesParallel fans paths out to cfg.Workers workers, each with
// its own Reader, and returns items in input order. Unless
// cfg.ContinueOnError is set the first failure cancels the remaining work.
func processFilesParallel(ctx context.Context, paths []string, cfg *Config) ([]Item, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := min(cfg.Workers, len(paths))
	readers := make([]*qrreader.Reader, workers)
	for i := range readers {
		r, err := qrreader.New(cfg.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create reader: %w", err)
		}
		readers[i] = r
	}

	if cfg.Progress != nil {
		cfg.Progress.OnStart(len(paths))
		defer cfg.Progress.OnComplete()
	}

	jobs := make(chan fileJob, len(paths))
	results := make(chan fileResult, len(paths))

	var wg sync.WaitGroup
	for _, reader := range readers {
		wg.Add(1)
		go worker(ctx, reader, cfg, jobs, results, &wg)
	}

	for i, path := range paths {
		jobs <- fileJob{index: i, path: path}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	items := make([]Item, len(paths))
	done := make([]bool, len(paths))
	var firstErr error
	processed := 0

	for res := range results {
		items[res.index] = res.item
		done[res.index] = true
		processed++

		if res.item.Err != nil && !cfg.ContinueOnError && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", res.item.Path, res.item.Err)
			cancel()
		}
		if cfg.Progress != nil {
			cfg.Progress.OnProgress(processed, len(paths))
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, ok := range done {
		if !ok {
			return nil, fmt.Errorf("%s: not processed", paths[i])
		}
	}
	return items, nil
}

// worker processes files from the jobs channel.
func worker(ctx context.Context, reader *qrreader.Reader, cfg *Config,
	jobs <-chan fileJob, results chan<- fileResult, wg *sync.WaitGroup,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- fileResult{index: job.index, item: processFile(ctx, reader, job.path, cfg)}
	}
}
