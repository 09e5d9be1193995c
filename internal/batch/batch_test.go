package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/MeKo-Tech/pdfqr/internal/raster/rastertest"
	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleURL = "http://example.com/x"

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// fixtureDir holds a code image, a plain image and a "PDF" whose pages
// come from a fake rasterizer with a code on page 1.
func fixtureDir(t *testing.T) (string, *Config) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "a-code.png", testutil.QRPNG(t, "image payload", 300))
	writeFile(t, dir, "b-plain.png", testutil.TextPNG(t, 400, 200, "hello"))
	writeFile(t, dir, "c-doc.pdf", []byte("%PDF-fake"))

	page := testutil.Compose(1080, 1920, color.White, testutil.QRImage(t, exampleURL, 300), image.Pt(100, 100))
	blank := testutil.TextImage(1080, 1920, "cover")
	fake := rastertest.New(blank, page)

	return dir, &Config{Reader: qrreader.Config{Rasterizer: fake}, Workers: 2}
}

func TestProcessBatch_KeepsInputOrder(t *testing.T) {
	dir, cfg := fixtureDir(t)

	res, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)

	assert.Equal(t, "a-code.png", filepath.Base(res.Items[0].Path))
	assert.Equal(t, "image payload", res.Items[0].Results[0].Text)

	assert.Equal(t, "b-plain.png", filepath.Base(res.Items[1].Path))
	assert.False(t, res.Items[1].Found())

	assert.Equal(t, "pdf", res.Items[2].Kind)
	assert.Equal(t, exampleURL, res.Items[2].Results[0].Text)
	assert.Equal(t, 1, res.Items[2].Results[0].Page)

	stats := res.Stats()
	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.WithCode)
	assert.Equal(t, 2, stats.WorkerCount)
}

func TestProcessBatch_ManyWorkersSameResult(t *testing.T) {
	dir, cfg := fixtureDir(t)
	for i := range 6 {
		writeFile(t, dir, fmt.Sprintf("d-copy-%d.png", i), testutil.QRPNG(t, "copy", 200))
	}

	cfg.Workers = 1
	serial, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)

	cfg.Workers = 8
	parallel, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)

	require.Len(t, parallel.Items, len(serial.Items))
	for i := range serial.Items {
		assert.Equal(t, serial.Items[i].Path, parallel.Items[i].Path)
		assert.Equal(t, serial.Items[i].Results, parallel.Items[i].Results)
	}
}

func TestProcessBatch_AllCodes(t *testing.T) {
	dir, cfg := fixtureDir(t)
	cfg.All = true
	cfg.IncludePatterns = []string{"*.pdf"}

	res, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Len(t, res.Items[0].Results, 1)
	assert.Equal(t, 1, res.Items[0].Results[0].Page)
}

func TestProcessBatch_ErrorHandling(t *testing.T) {
	dir, cfg := fixtureDir(t)
	writeFile(t, dir, "broken.png", []byte("not an image"))

	_, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.png")

	cfg.ContinueOnError = true
	res, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 4)
	assert.Equal(t, "broken.png", filepath.Base(res.Items[2].Path))
	assert.Error(t, res.Items[2].Err)
	assert.Equal(t, 1, res.Stats().Failed)
}

func TestProcessBatch_NoFiles(t *testing.T) {
	_, err := ProcessBatch(context.Background(), []string{t.TempDir()}, &Config{})
	assert.True(t, errors.Is(err, ErrNoFiles))
}

func TestProcessBatch_Cancelled(t *testing.T) {
	dir, cfg := fixtureDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessBatch(ctx, []string{dir}, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingProgress struct {
	mu              sync.Mutex
	total, last     int
	calls, complete int
}

func (c *countingProgress) OnStart(total int) { c.total = total }

func (c *countingProgress) OnProgress(current, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = current
}

func (c *countingProgress) OnComplete() { c.complete++ }

func TestProcessBatch_ReportsProgress(t *testing.T) {
	dir, cfg := fixtureDir(t)
	progress := &countingProgress{}
	cfg.Progress = progress

	_, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.total)
	assert.Equal(t, 3, progress.calls)
	assert.Equal(t, 3, progress.last)
	assert.Equal(t, 1, progress.complete)
}
