package support

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand string
	LastOutput  string
	LastStderr  string
	LastError   error

	// Test environment
	TempDir string
	// Fixtures maps the name used in a scenario to its path on disk.
	Fixtures map[string]string

	// Server state
	HTTPServer *httptest.Server

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string

	savedEnv map[string]*string
}

// NewTestContext creates a new test context with its own temp directory.
// HOME and XDG_CONFIG_HOME point into it so no user config leaks into a run.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "pdfqr-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	testCtx := &TestContext{
		TempDir:         tempDir,
		Fixtures:        map[string]string{},
		LastHTTPHeaders: map[string]string{},
		savedEnv:        map[string]*string{},
	}

	home := filepath.Join(tempDir, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	if err := testCtx.setEnv("HOME", home); err != nil {
		return nil, err
	}
	if err := testCtx.setEnv("XDG_CONFIG_HOME", filepath.Join(home, ".config")); err != nil {
		return nil, err
	}
	return testCtx, nil
}

// setEnv sets an environment variable until Cleanup restores it.
func (testCtx *TestContext) setEnv(name, value string) error {
	if _, saved := testCtx.savedEnv[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.savedEnv[name] = &old
		} else {
			testCtx.savedEnv[name] = nil
		}
	}
	return os.Setenv(name, value)
}

// Path returns the absolute path for a scenario file name.
func (testCtx *TestContext) Path(name string) string {
	if p, ok := testCtx.Fixtures[name]; ok {
		return p
	}
	return filepath.Join(testCtx.TempDir, name)
}

// writeFixture stores data under name inside the temp directory.
func (testCtx *TestContext) writeFixture(name string, data []byte) error {
	path := filepath.Join(testCtx.TempDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	testCtx.Fixtures[name] = path
	return nil
}

// Cleanup stops the server, restores the environment and removes the temp directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}

	for name, old := range testCtx.savedEnv {
		var err error
		if old == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *old)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", name, err))
		}
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}
	return errors.Join(errs...)
}
