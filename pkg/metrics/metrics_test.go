package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()
	m.MessageHandled("ipc_request", time.Millisecond)
	m.MessageHandled("ipc_request", time.Millisecond)
	m.IPCRequest("list_windows")
	m.IPCError("decode")
	m.BatchApplied(3)
	m.Windows(2)
	m.Reload(true)
	m.Reload(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("ipc_request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ipcRequests.WithLabelValues("list_windows")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ipcErrors.WithLabelValues("decode")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.windowsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MessageHandled("x", time.Second)
		m.IPCRequest("x")
		m.IPCError("x")
		m.BatchApplied(1)
		m.Windows(1)
		m.Reload(true)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.IPCRequest("modules")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `crabbar_ipc_requests_total{kind="modules"} 1`)
}
