package config

import (
	"testing"
	"time"

	"planrec/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATASET_FILE", "PORT", "GIN_MODE", "OPS_PORT", "OPS_ENABLED",
		"RECOMMENDATION_LIMIT", "LOAD_CONCURRENCY", "LOAD_TIMEOUT", "SHUTDOWN_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDatasetFile, cfg.Dataset.File)
	assert.Equal(t, 5, cfg.Dataset.LoadConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Dataset.LoadTimeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "6060", cfg.Ops.Port)
	assert.True(t, cfg.Ops.Enabled)
	assert.Equal(t, 3, cfg.Recommendation.Limit)
	assert.Equal(t, "INFO", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATASET_FILE", "/data/plans.xlsx")
	t.Setenv("RECOMMENDATION_LIMIT", "5")
	t.Setenv("LOAD_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OPS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/plans.xlsx", cfg.Dataset.File)
	assert.Equal(t, 5, cfg.Recommendation.Limit)
	assert.Equal(t, 2*time.Second, cfg.Dataset.LoadTimeout)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.False(t, cfg.Ops.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero limit", "RECOMMENDATION_LIMIT", "0"},
		{"limit too large", "RECOMMENDATION_LIMIT", "1000"},
		{"unknown gin mode", "GIN_MODE", "verbose"},
		{"non numeric port", "PORT", "http"},
		{"unknown log level", "LOG_LEVEL", "chatty"},
		{"zero concurrency", "LOAD_CONCURRENCY", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadRejectsSharedPorts(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("OPS_PORT", "9000")
	t.Setenv("OPS_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPS_PORT")
}
