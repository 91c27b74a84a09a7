package perf

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func reset(t *testing.T) {
	t.Cleanup(func() {
		SetEnabled(false)
		SetSlowThreshold(DefaultSlowThreshold)
	})
}

func TestStop_LogsWhenEnabled(t *testing.T) {
	buf := captureLogs(t)
	reset(t)
	SetEnabled(true)
	SetSlowThreshold(0)

	timer := Start("ipc_request", "kind", "list_windows")
	time.Sleep(5 * time.Millisecond)
	elapsed := timer.Stop()

	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	assert.Contains(t, buf.String(), "op=ipc_request")
	assert.Contains(t, buf.String(), "kind=list_windows")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestStop_SilentWhenDisabled(t *testing.T) {
	buf := captureLogs(t)
	reset(t)
	SetEnabled(false)

	Start("quiet").Stop()
	assert.False(t, IsEnabled())
	assert.Empty(t, buf.String())
}

func TestStop_WarnsWhenSlow(t *testing.T) {
	buf := captureLogs(t)
	reset(t)
	SetEnabled(false)
	SetSlowThreshold(time.Millisecond)

	timer := Start("reload_config")
	time.Sleep(3 * time.Millisecond)
	timer.Stop()

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "Slow operation")
	assert.Contains(t, buf.String(), "threshold=1ms")
}
