package cmd

import (
	"encoding/json"
	"testing"

	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "a.png", testutil.QRPNG(t, "alpha", 300))
	b := writeFixture(t, dir, "b.pdf", testutil.QRPDF(t, exampleURL, 2, 1))
	writeFixture(t, dir, "notes.txt", []byte("ignored"))

	stdout, stderr, err := execute(t, "batch", dir, "--workers", "2", "--stats")
	require.NoError(t, err)
	assert.Equal(t, "# "+a+"\nalpha\n\n# "+b+"\n[page 2] "+exampleURL+"\n", stdout)
	assert.Contains(t, stderr, "Processing Statistics")

	stdout, _, err = execute(t, "batch", dir, "--format", "json", "--include", "*.pdf")
	require.NoError(t, err)
	var out struct {
		Files []struct {
			File  string `json:"file"`
			Found bool   `json:"found"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Files, 1)
	assert.Equal(t, b, out.Files[0].File)
	assert.True(t, out.Files[0].Found)
}

func TestBatchCommand_ContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.png", testutil.QRPNG(t, "alpha", 300))
	writeFixture(t, dir, "b.png", []byte("broken"))

	_, _, err := execute(t, "batch", dir)
	assert.Error(t, err)

	stdout, _, err := execute(t, "batch", dir, "--continue-on-error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alpha")
	assert.Contains(t, stdout, "error:")
}

func TestBatchCommand_NoFiles(t *testing.T) {
	_, _, err := execute(t, "batch", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image or PDF files found")
}
