package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOGS_FOLDER", dir)
	t.Setenv("LOG_FORMAT", "json")
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev; zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	Init(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	log.Info().Str("facility", "Plant Alpha").Msg("hello")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"facility":"Plant Alpha"`)
}

func TestInit_UnwritableDirFallsBack(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	t.Setenv("LOGS_FOLDER", filepath.Join(blocker, "logs"))
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev; zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	assert.NotPanics(t, func() { Init(false) })
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
