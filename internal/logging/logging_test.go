package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := New(Options{Level: "debug", Dir: dir, File: true, MaxSizeMB: 1, Console: &console})
	require.NoError(t, err)
	logger.Debug().Str("component", "test").Msg("hello")
	require.NoError(t, logger.Close())

	assert.Contains(t, console.String(), `"message":"hello"`)
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestNew_LevelFilters(t *testing.T) {
	var console bytes.Buffer
	logger, err := New(Options{Level: "warn", Console: &console})
	require.NoError(t, err)

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")

	assert.NotContains(t, console.String(), "quiet")
	assert.Contains(t, console.String(), "loud")
	assert.NoError(t, logger.Close())
}

func TestNew_UnwritableDirFallsBackToConsole(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	var console bytes.Buffer

	logger, err := New(Options{Dir: filepath.Join(blocker, "logs"), File: true, Console: &console})

	assert.Error(t, err)
	require.NotNil(t, logger)
	logger.Info().Msg("still here")
	assert.Contains(t, console.String(), "still here")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
