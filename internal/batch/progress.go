package batch

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProgressCallback receives progress updates during batch processing.
type ProgressCallback interface {
	// OnStart is called when processing begins with the total number of items.
	OnStart(total int)

	// OnProgress is called after each finished item.
	OnProgress(current, total int)

	// OnComplete is called when processing is finished.
	OnComplete()
}

// ConsoleProgress prints a single updating progress line.
type ConsoleProgress struct {
	writer         io.Writer
	prefix         string
	updateInterval time.Duration

	mu         sync.Mutex
	lastUpdate time.Time
	startTime  time.Time
}

// NewConsoleProgress creates a console progress reporter writing to w (stderr when nil).
func NewConsoleProgress(w io.Writer, prefix string) *ConsoleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleProgress{writer: w, prefix: prefix, updateInterval: 100 * time.Millisecond}
}

// WithUpdateInterval sets how frequently the progress line updates.
func (c *ConsoleProgress) WithUpdateInterval(interval time.Duration) *ConsoleProgress {
	c.updateInterval = interval
	return c
}

func (c *ConsoleProgress) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	_, _ = fmt.Fprintf(c.writer, "%s0/%d", c.prefix, total)
}

func (c *ConsoleProgress) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if current < total && now.Sub(c.lastUpdate) < c.updateInterval {
		return
	}
	c.lastUpdate = now

	rate := 0.0
	if elapsed := now.Sub(c.startTime).Seconds(); elapsed > 0 {
		rate = float64(current) / elapsed
	}
	_, _ = fmt.Fprintf(c.writer, "\r%s%d/%d (%.1f files/s)", c.prefix, current, total, rate)
}

func (c *ConsoleProgress) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.writer)
}
