package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	job := "daily-report"

	m.ObserveDuration(job, 250*time.Millisecond)
	m.IncSuccess(job)
	require.Error(t, m.Track(job, func() error { return errors.New("boom") }))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "partstock_job_success_total", "job", job)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "partstock_job_failure_total", "job", job)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	sum, err := fetchHistogramSum(mfs, "partstock_job_duration_seconds", "job", job)
	require.NoError(t, err)
	assert.Greater(t, sum, 0.0)
}

func TestStoreMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	m.ObserveOperation("add_item", OutcomeOK)
	m.ObserveOperation("add_item", OutcomeOK)
	m.ObserveOperation("delete_item", OutcomeNotFound)
	m.ObserveImport(2, 1, 3)
	m.SetLevels(42, 7)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "partstock_store_operations_total", "operation", "add_item")
	require.NoError(t, err)
	assert.Equal(t, float64(2), got)

	got, err = fetchCounterValue(mfs, "partstock_import_candidates_total", "result", "rejected")
	require.NoError(t, err)
	assert.Equal(t, float64(3), got)

	gauge := findMetricFamily(mfs, "partstock_items_in_hand")
	require.NotNil(t, gauge)
	assert.Equal(t, float64(42), gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestNilRegistererIsNoop(t *testing.T) {
	jobs := NewJobMetrics(nil)
	store := NewStoreMetrics(nil)

	assert.NotPanics(t, func() {
		jobs.IncSuccess("x")
		jobs.IncFailure("x")
		jobs.ObserveDuration("x", time.Second)
		store.ObserveOperation("x", OutcomeOK)
		store.ObserveImport(1, 1, 1)
		store.SetLevels(1, 1)
	})

	var nilStore *StoreMetrics
	assert.NotPanics(t, func() { nilStore.SetLevels(1, 1) })
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
