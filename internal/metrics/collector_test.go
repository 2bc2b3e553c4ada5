package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsSeries(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("canvasflow", reg, nil)

	c.RecordRun("completed", 50*time.Millisecond)
	c.RecordRun("failed", 10*time.Millisecond)
	c.RecordNode("http_request", "completed", time.Millisecond)
	c.RecordNodeSkipped("transform")
	c.RecordDroppedEvent()
	c.RecordDroppedEvent()
	c.RecordConfirmDecision("deny")
	c.RecordHTTPRequest(http.MethodPost, "/api/v1/runs", http.StatusOK, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["canvasflow_workflow_runs_total"])
	assert.True(t, names["canvasflow_node_executions_total"])
	assert.True(t, names["canvasflow_stream_events_dropped_total"])
	assert.True(t, names["canvasflow_confirm_decisions_total"])
	assert.True(t, names["canvasflow_http_requests_total"])

	assert.Equal(t, float64(2), testutil.ToFloat64(c.eventsDroppedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.runsTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.nodeExecutionsTotal.WithLabelValues("transform", "skipped")))
}

func TestCollector_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var c *Collector
	c.RecordRun("completed", time.Second)
	c.RecordNode("transform", "completed", time.Second)
	c.RecordNodeSkipped("transform")
	c.RecordDroppedEvent()
	c.RecordConfirmDecision("allow")
	c.RecordHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
}
