package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAppMetrics_Counters(t *testing.T) {
	ctx := context.Background()
	metrics := NewAppMetrics(prometheus.NewRegistry())

	metrics.RecordTaskOperation(ctx, "Create")
	metrics.RecordTaskOperation(ctx, "Create")
	metrics.RecordUndo(ctx, "expired")
	metrics.RecordCacheHit(ctx, "tasks")
	metrics.RecordCacheMiss(ctx, "tasks")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.taskOperations.WithLabelValues("Create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.undoOutcomes.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits.WithLabelValues("tasks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses.WithLabelValues("tasks")))
}

func TestNoOpProbe(t *testing.T) {
	probe := NewNoOpProbe()
	ctx := context.Background()

	spanCtx, span := probe.StartServiceSpan(ctx, "task", "List", 1, nil)
	span.SetAttributes(map[string]interface{}{"k": "v"})
	span.End()

	assert.Equal(t, ctx, spanCtx)
}

func TestOTELProbe_RecordsServiceMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := NewAppMetrics(prometheus.NewRegistry())
	probe := NewOTELProbe(nil, metrics)

	ctx, span := probe.StartServiceSpan(ctx, "task", "MarkDone", 7, map[string]interface{}{"task.uuid": "abc"})
	probe.RecordServiceOperation(ctx, "task", "MarkDone", 7, 0, nil)
	span.End()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.taskOperations.WithLabelValues("MarkDone")))
}
