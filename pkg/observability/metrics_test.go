package observability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nexthire/billing/pkg/observability"
)

func TestInMemoryMetrics_Counter(t *testing.T) {
	m := observability.NewInMemoryMetrics()

	m.Counter(observability.MetricPaymentsInitiated, 1)
	m.Counter(observability.MetricPaymentsInitiated, 2)

	assert.Equal(t, int64(3), m.GetCounter(observability.MetricPaymentsInitiated))
}

func TestInMemoryMetrics_CounterWithTags(t *testing.T) {
	m := observability.NewInMemoryMetrics()

	m.Counter(observability.MetricPaymentsConfirmed, 1, observability.T("type", "subscription"))
	m.Counter(observability.MetricPaymentsConfirmed, 1, observability.T("type", "credits"))

	assert.Equal(t, int64(1), m.GetCounter(observability.MetricPaymentsConfirmed, observability.T("type", "subscription")))
	assert.Equal(t, int64(1), m.GetCounter(observability.MetricPaymentsConfirmed, observability.T("type", "credits")))
	assert.Equal(t, int64(0), m.GetCounter(observability.MetricPaymentsConfirmed))
}

func TestInMemoryMetrics_Gauge(t *testing.T) {
	m := observability.NewInMemoryMetrics()

	m.Gauge("billing.outbox.lag_seconds", 1.5)
	m.Gauge("billing.outbox.lag_seconds", 0.25)

	assert.Equal(t, 0.25, m.GetGauge("billing.outbox.lag_seconds"))
}

func TestInMemoryMetrics_Histogram(t *testing.T) {
	m := observability.NewInMemoryMetrics()

	m.Histogram("billing.payment.amount", 1699)
	m.Histogram("billing.payment.amount", 2499)

	values := m.GetHistogram("billing.payment.amount")
	assert.Equal(t, []float64{1699, 2499}, values)
}

func TestInMemoryMetrics_Timing(t *testing.T) {
	m := observability.NewInMemoryMetrics()

	m.Timing(observability.MetricDBQueryDuration, 5*time.Millisecond)

	timings := m.GetTimings(observability.MetricDBQueryDuration)
	assert.Len(t, timings, 1)
	assert.Equal(t, 5*time.Millisecond, timings[0])
}

func TestInMemoryMetrics_Reset(t *testing.T) {
	m := observability.NewInMemoryMetrics()

	m.Counter(observability.MetricPaymentsInitiated, 5)
	m.Reset()

	assert.Equal(t, int64(0), m.GetCounter(observability.MetricPaymentsInitiated))
}

func TestTimer_StopWithError(t *testing.T) {
	m := observability.NewInMemoryMetrics()

	timer := observability.StartTimer("confirm_payment").WithMetrics(m)
	duration := timer.StopWithError(assert.AnError)

	assert.GreaterOrEqual(t, duration, time.Duration(0))
	assert.Equal(t, int64(1), m.GetCounter(observability.MetricOperationTotal, observability.T("operation", "confirm_payment")))
	assert.Equal(t, int64(1), m.GetCounter(observability.MetricOperationErrors, observability.T("operation", "confirm_payment")))
}

func TestNoopMetrics(t *testing.T) {
	var m observability.NoopMetrics

	// Should not panic
	m.Counter("x", 1)
	m.Gauge("x", 1)
	m.Histogram("x", 1)
	m.Timing("x", time.Second)
}
