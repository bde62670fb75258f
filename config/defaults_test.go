package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/geminiflow/llm/providers"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, providers.DefaultGeminiConfig(), cfg.Gemini)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEqual(t, MetricsConfig{}, cfg.Metrics)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_ReturnsFreshCopy(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	a.Gemini.SafetySettings[0].Threshold = "BLOCK_NONE"
	a.Log.OutputPaths[0] = "stdout"

	assert.Equal(t, "BLOCK_MEDIUM_AND_ABOVE", b.Gemini.SafetySettings[0].Threshold)
	assert.Equal(t, "stderr", b.Log.OutputPaths[0])
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
	assert.Equal(t, 100, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxBackups)
	assert.Equal(t, 30, cfg.MaxAgeDays)
	assert.True(t, cfg.Compress)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "geminiflow", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.001)
}

func TestDefaultMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "geminiflow", cfg.Namespace)
}
