package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/MeKo-Tech/pdfqr/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServe_StartsAndShutsDown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Server.ShutdownTimeout = 2
	a := &app{cfg: &cfg}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx // short-lived test probe
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerConfig_FromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.RateLimitEnabled = true
	cfg.Server.MaxUploadMB = 7
	a := &app{cfg: &cfg}

	sc, err := a.serverConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(7), sc.MaxUploadMB)
	assert.True(t, sc.RateLimit.Enabled)
	assert.Equal(t, cfg.Server.RequestsPerMinute, sc.RateLimit.RequestsPerMinute)
	assert.Equal(t, 1080, sc.Reader.PageDimensions.Width)
}

func TestServe_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = l.Addr().(*net.TCPAddr).Port
	a := &app{cfg: &cfg}

	err = a.serve(context.Background())
	assert.Error(t, err)
}
