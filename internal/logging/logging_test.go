package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "homedash.log")

	closer, err := Init(Config{Level: "debug", Target: path})
	require.NoError(t, err)

	cacheLog := Component("cache")
	cacheLog.Debug().Str("key", "status/primary").Msg("fetched")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &line))
	assert.Equal(t, "cache", line["component"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "fetched", line["message"])
	assert.Contains(t, line, "time")
}

func TestInit_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homedash.log")

	closer, err := Init(Config{Level: "warn", Target: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	log := Logger()
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	_, err := Init(Config{Level: "chatty", Target: TargetDiscard})
	assert.ErrorContains(t, err, "parse log level")
}

func TestInit_Discard(t *testing.T) {
	closer, err := Init(Config{Target: TargetDiscard})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	log := Logger()
	log.Error().Msg("goes nowhere")
}
