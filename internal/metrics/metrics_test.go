package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetview/internal/core"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.ObserveLoad("ok", 120*time.Millisecond)
	r.ObserveLoad("ok", 80*time.Millisecond)
	r.ObserveLoad("parse_error", time.Millisecond)
	r.ObserveFilter(core.FilterSpec{Type: core.OpTypeOr, Operation: core.OpIsNull}, 3)
	r.ObserveExport(core.FormatCSV, 10)
	r.SetSessions(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.loads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loads.WithLabelValues("parse_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.filters.WithLabelValues("or", "null")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.exports.WithLabelValues("csv")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.sessions))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RegisterLoadStatus(func() core.LoadLimiterStatus {
		return core.LoadLimiterStatus{Active: 1, Available: 3, MaxConcurrent: 4}
	})
	r.SetSessions(2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sheetview_sessions_open 2")
	assert.Contains(t, string(body), "sheetview_loads_active 1")
}
