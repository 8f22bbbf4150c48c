package engine_test

import (
	"testing"
	"time"

	"github.com/jkminder/data2neo/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := engine.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.BatchSize)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, "data2neo.engine", cfg.ProgressSink)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestNewConfigRejectsZeroBatchSize(t *testing.T) {
	_, err := engine.NewConfig(engine.WithBatchSize(0))
	require.Error(t, err)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	data := []byte(`{
		// override the batch size and disable parallel mode; serialized
		// mode then forces the batch size back to 1
		"batch_size": 250,
		"parallel": false,
	}`)
	cfg, err := engine.LoadConfigFile(data)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, 5, cfg.MaxRetries)
}
