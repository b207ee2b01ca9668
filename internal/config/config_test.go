package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultDB, cfg.DB)
	assert.Equal(t, float32(DefaultFPS), cfg.Playback.FPS)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverDefaults(t *testing.T) {
	path := writeFile(t, "trackview.yaml", `
log:
  level: debug
playback:
  fps: 60
  fixed_step: 0.02
  track_mask: 6144
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB, "untouched defaults survive")
	assert.Equal(t, float32(60), cfg.Playback.FPS)
	assert.Equal(t, float32(0.02), cfg.Playback.FixedStep)
	assert.Equal(t, uint32(6144), cfg.Playback.TrackMask)
	assert.Equal(t, DefaultDB, cfg.DB)
}

func TestLoad_EmptyPathAndEmptyFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "playbak:\n  fps: 10\n", "field playbak not found"},
		{"bad fps", "playback:\n  fps: 0\n", "fps must be positive"},
		{"bad level", "log:\n  level: loud\n", "unknown log level"},
		{"negative step", "playback:\n  fixed_step: -1\n", "fixed_step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Playback.Loop = true
	cfg.Log.File = "logs/trackview.log"
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvDB, "/tmp/runs.db")
	t.Setenv(EnvFPS, "24")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/runs.db", cfg.DB)
	assert.Equal(t, float32(24), cfg.Playback.FPS)

	t.Setenv(EnvFPS, "fast")
	assert.Error(t, Default().ApplyEnv())
}

func TestLoadEnv(t *testing.T) {
	path := writeFile(t, ".env", "TRACKVIEW_DB=from-dotenv.db\n")
	os.Unsetenv(EnvDB)
	t.Cleanup(func() { os.Unsetenv(EnvDB) })

	require.NoError(t, LoadEnv(path, filepath.Join(t.TempDir(), "absent.env")))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "from-dotenv.db", cfg.DB)
}

func TestLoadEnv_DoesNotOverride(t *testing.T) {
	t.Setenv(EnvDB, "already.db")
	path := writeFile(t, ".env", "TRACKVIEW_DB=from-dotenv.db\n")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "already.db", os.Getenv(EnvDB))
}
