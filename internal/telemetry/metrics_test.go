package telemetry

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsCreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordLearnRecordsDurationAndCount(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordLearn(ctx, 0.42, "tenant-1", "ok")
	m.RecordLearn(ctx, 0.10, "tenant-1", "error")

	rm := collect(t, reader)

	dur := findMetric(rm, "graphrag.learn.duration")
	if dur == nil {
		t.Fatal("graphrag.learn.duration not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 2 {
		t.Errorf("unexpected histogram data: %+v", dur)
	}

	calls := findMetric(rm, "graphrag.learn.calls")
	if calls == nil {
		t.Fatal("graphrag.learn.calls not found")
	}
	sum, ok := calls.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("graphrag.learn.calls is not a sum")
	}
	var okCount int64
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "status" && kv.Value.AsString() == "ok" {
				okCount = dp.Value
			}
		}
	}
	if okCount != 1 {
		t.Errorf("expected 1 call with status=ok, got %d", okCount)
	}
}

func TestRecordLearnCountsOnlyRecordsNonzero(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordLearnCounts(ctx, "tenant-1", 1, 0, 2, 1)

	rm := collect(t, reader)
	if findMetric(rm, "graphrag.documents.created") == nil {
		t.Error("expected documents.created to be recorded")
	}
	if findMetric(rm, "graphrag.documents.reused") != nil {
		t.Error("expected documents.reused to be absent when the count is zero")
	}
	if findMetric(rm, "graphrag.entities.created") == nil {
		t.Error("expected entities.created to be recorded")
	}
}

func TestRecordBatchItemTracksFailures(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBatchItem(ctx, "tenant-1", false)
	m.RecordBatchItem(ctx, "tenant-1", true)

	rm := collect(t, reader)

	processed := findMetric(rm, "graphrag.batch.items_processed")
	if processed == nil {
		t.Fatal("items_processed not found")
	}
	sum := processed.Data.(metricdata.Sum[int64])
	if sum.DataPoints[0].Value != 2 {
		t.Errorf("expected 2 processed items, got %d", sum.DataPoints[0].Value)
	}

	failed := findMetric(rm, "graphrag.batch.items_failed")
	if failed == nil {
		t.Fatal("items_failed not found")
	}
	failedSum := failed.Data.(metricdata.Sum[int64])
	if failedSum.DataPoints[0].Value != 1 {
		t.Errorf("expected 1 failed item, got %d", failedSum.DataPoints[0].Value)
	}
}

func TestDefaultMetricsReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
