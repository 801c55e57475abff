package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/meterplan/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPlan(coremetrics.PlanEvent{
		Committed: true,
		Planned:   3,
		Unplanned: 2,
		Stock:     5,
		Duration:  120 * time.Millisecond,
	}))
	require.NoError(t, sink.RecordVisit(coremetrics.VisitEvent{TechnicianID: 9}))
	require.NoError(t, sink.RecordVisit(coremetrics.VisitEvent{TechnicianID: 9}))
	require.NoError(t, sink.RecordStock(coremetrics.StockEvent{Level: 4}))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.plans.WithLabelValues("true")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.plans.WithLabelValues("false")))
	require.Equal(t, 2.0, testutil.ToFloat64(sink.visits.WithLabelValues("9")))
	require.Equal(t, 2.0, testutil.ToFloat64(sink.backlog))
	require.Equal(t, 4.0, testutil.ToFloat64(sink.stock))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordPlan(coremetrics.PlanEvent{Committed: false}))
	require.NoError(t, second.RecordPlan(coremetrics.PlanEvent{Committed: false}))
	// Both sinks share the collectors registered first.
	require.Equal(t, 2.0, testutil.ToFloat64(first.plans.WithLabelValues("false")))
}
