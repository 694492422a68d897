package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordObservation(StatusScored)
	m.RecordObservation(StatusScored)
	m.RecordObservation(StatusSkipped)
	m.RecordRejection("RUG_SIGNAL")
	m.RecordAdmission("OPENED")
	m.RecordTrade("STOP_LOSS")
	m.RecordLedgerFailure()
	m.RecordTick(0.001, 3, 1.5, -0.25)
	m.RecordRun("synthetic", "ok", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ObservationsTotal.WithLabelValues(StatusScored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObservationsTotal.WithLabelValues(StatusSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("RUG_SIGNAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdmissionsTotal.WithLabelValues("OPENED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradesClosed.WithLabelValues("STOP_LOSS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicksProcessed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OpenPositions))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.AvailableCapital))
	assert.Equal(t, -0.25, testutil.ToFloat64(m.RealizedPnL))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("synthetic", "ok")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordObservation(StatusScored)
	m.RecordRejection("RUG_SIGNAL")
	m.RecordAdmission("OPENED")
	m.RecordTrade("STOP_LOSS")
	m.RecordLedgerFailure()
	m.RecordTick(0, 0, 0, 0)
	m.RecordRun("synthetic", "ok", 0)
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("", reg)
	m.RecordObservation(StatusSkipped)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `memesim_events_observations_total{status="skipped"} 1`)
}
