package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}

func TestLoadLayers(t *testing.T) {
	path := write(t, "framereel.yaml", `
render:
  workers: 4
  quality: 18
  video_encoder: libx264
paths:
  assets: media
log:
  level: debug
`)
	env := write(t, ".env", "FRAMEREEL_QUALITY=30\nFRAMEREEL_OUTPUT=renders\n")
	t.Setenv("FRAMEREEL_OUTPUT", "from-env")

	cfg, err := Load(path, env)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Render.Workers)
	assert.Equal(t, 30, cfg.Render.Quality)
	assert.Equal(t, "libx264", cfg.Render.VideoEncoder)
	assert.Equal(t, "media", cfg.Paths.Assets)
	assert.Equal(t, "from-env", cfg.Paths.Output)
	assert.Equal(t, "framereel.db", cfg.Paths.History)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)

	_, err = Load(write(t, "c.yaml", "render:\n  wrokers: 2\n"), "")
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(write(t, "c.yaml", "render:\n  quality: 101\n"), "")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(write(t, "c.yaml", "log:\n  level: loud\n"), "")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("FRAMEREEL_WORKERS", "many")
	_, err = Load("", "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEmptyFile(t *testing.T) {
	cfg, err := Load(write(t, "c.yaml", ""), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
