package core

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)
	svc := newTestService(t, WithMetricsRecorder(rec))
	ctx := context.Background()

	_, err = svc.RegisterPolicyholder(ctx, "Metric Holder", 30, "Life", 100)
	require.NoError(t, err)
	_, err = svc.RegisterPolicyholder(ctx, "", 30, "Life", 100)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.total.WithLabelValues("register_policyholder", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.total.WithLabelValues("register_policyholder", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.duration, "claimcore_service_operation_duration_seconds"))
}

func TestPrometheusRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)
	_, err = NewPrometheusMetricsRecorder(reg)
	assert.Error(t, err)
}
