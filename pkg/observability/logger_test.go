package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexthire/billing/pkg/observability"
)

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:       observability.LogLevelInfo,
		Format:      observability.LogFormatText,
		Output:      &buf,
		ServiceName: "nexthire-billing",
	})

	logger.Info("test message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "service=nexthire-billing")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:          observability.LogLevelInfo,
		Format:         observability.LogFormatJSON,
		Output:         &buf,
		ServiceName:    "nexthire-billing",
		ServiceVersion: "1.0.0",
	})

	logger.Info("test message", "amount", 1699)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, float64(1699), entry["amount"])
	assert.Equal(t, "nexthire-billing", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:  observability.LogLevelWarn,
		Format: observability.LogFormatText,
		Output: &buf,
	})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
}

func TestNewLogger_CorrelationIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:  observability.LogLevelInfo,
		Format: observability.LogFormatText,
		Output: &buf,
	})

	ctx := observability.WithCorrelationID(context.Background(), "corr-123")
	logger.InfoContext(ctx, "with correlation")

	assert.Contains(t, buf.String(), "correlation_id=corr-123")
}

func TestNewLogger_RequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{
		Level:  observability.LogLevelInfo,
		Format: observability.LogFormatText,
		Output: &buf,
	})

	ctx := observability.WithRequestID(context.Background(), "req-456")
	logger.InfoContext(ctx, "with request id")

	assert.Contains(t, buf.String(), "request_id=req-456")
}

func TestContext_GeneratesIDsWhenEmpty(t *testing.T) {
	ctx := observability.WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, observability.CorrelationIDFromContext(ctx))

	ctx = observability.WithRequestID(context.Background(), "")
	assert.NotEmpty(t, observability.RequestIDFromContext(ctx))
}

func TestContext_UserEmail(t *testing.T) {
	ctx := observability.WithUserEmail(context.Background(), "someone@example.com")
	assert.Equal(t, "someone@example.com", observability.UserEmailFromContext(ctx))

	assert.Empty(t, observability.UserEmailFromContext(context.Background()))
}

func TestNewRequestContext(t *testing.T) {
	ctx := observability.NewRequestContext(context.Background(), "parent-corr")
	assert.Equal(t, "parent-corr", observability.CorrelationIDFromContext(ctx))
	assert.NotEmpty(t, observability.RequestIDFromContext(ctx))

	ctx = observability.NewRequestContext(context.Background(), "")
	assert.NotEmpty(t, observability.CorrelationIDFromContext(ctx))
}
