// Package perf times message handling in the daemon loop. Every message
// blocks the ones queued behind it, so slow handlers are always reported;
// CRABBAR_PERF=1 additionally logs every timing.
package perf

import (
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// DefaultSlowThreshold is the handling time above which a warning is logged.
const DefaultSlowThreshold = 50 * time.Millisecond

var (
	enabled atomic.Bool
	slow    atomic.Int64
)

func init() {
	enabled.Store(os.Getenv("CRABBAR_PERF") == "1")
	slow.Store(int64(DefaultSlowThreshold))
}

// Timer tracks elapsed time for a named operation
type Timer struct {
	op    string
	start time.Time
	attrs []any
}

// Start begins timing op. attrs are extra key/value pairs for the log line.
func Start(op string, attrs ...any) *Timer {
	return &Timer{op: op, start: time.Now(), attrs: attrs}
}

// Stop ends timing, logs the result and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	threshold := time.Duration(slow.Load())
	switch {
	case threshold > 0 && elapsed >= threshold:
		slog.Warn("Slow operation", t.fields(elapsed, threshold)...)
	case enabled.Load():
		slog.Info("perf", t.fields(elapsed, 0)...)
	}
	return elapsed
}

func (t *Timer) fields(elapsed, threshold time.Duration) []any {
	out := []any{"op", t.op, "elapsed", elapsed}
	if threshold > 0 {
		out = append(out, "threshold", threshold)
	}
	return append(out, t.attrs...)
}

func IsEnabled() bool {
	return enabled.Load()
}

// SetEnabled overrides CRABBAR_PERF.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// SetSlowThreshold changes when Stop warns; zero disables the warning.
func SetSlowThreshold(d time.Duration) {
	slow.Store(int64(d))
}
