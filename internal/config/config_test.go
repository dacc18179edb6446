package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 18, cfg.Quality.CRF)
	assert.Equal(t, 0, cfg.Quality.ResCap)
	assert.Equal(t, "/workdir", cfg.Workdir)
	assert.Equal(t, ":8585", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Sources)
}

func TestLoadFromFile(t *testing.T) {
	content := `sources = ["/mnt/movies", "/mnt/tv"]
dest = "/mnt/library"
workdir = "/scratch"

[quality]
crf = 22
res_cap = 1080

[server]
addr = ":9090"

[logging]
level = "debug"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/mnt/movies", "/mnt/tv"}, cfg.Sources)
	assert.Equal(t, "/mnt/library", cfg.Dest)
	assert.Equal(t, "/scratch", cfg.Workdir)
	assert.Equal(t, 22, cfg.Quality.CRF)
	assert.Equal(t, 1080, cfg.Quality.ResCap)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset values keep their defaults
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 18, cfg.Quality.CRF)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate(), "no sources")

	cfg.Sources = []string{"/mnt/movies"}
	require.Error(t, cfg.Validate(), "no dest")

	cfg.Dest = "/mnt/library"
	require.NoError(t, cfg.Validate())

	cfg.Quality.CRF = 99
	require.Error(t, cfg.Validate(), "crf out of range")

	cfg.Quality.CRF = 18
	cfg.Quality.ResCap = -1
	require.Error(t, cfg.Validate(), "negative res cap")
}

func TestToTOMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sources = []string{"/mnt/movies"}
	cfg.Dest = "/mnt/library"
	cfg.Quality.CRF = 20
	cfg.Quality.ResCap = 1080

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg.ToTOML()), 0644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Sources, loaded.Sources)
	assert.Equal(t, cfg.Dest, loaded.Dest)
	assert.Equal(t, 20, loaded.Quality.CRF)
	assert.Equal(t, 1080, loaded.Quality.ResCap)
}
