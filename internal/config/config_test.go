package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accidentalproductions/tetristats/internal/scaling"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "NES Tetris", cfg.Baseline)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TETRISTATS_DB_DRIVER", "postgres")
	t.Setenv("TETRISTATS_DB_DSN", "postgres://localhost/tetris")
	t.Setenv("TETRISTATS_DB", "/tmp/t.db")
	t.Setenv("TETRISTATS_MEDIA_DIR", "/srv/media")
	t.Setenv("TETRISTATS_EXPORT_DIR", "/srv/export")
	t.Setenv("TETRISTATS_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("TETRISTATS_CORS_ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("TETRISTATS_BASELINE", "Tetris DS")

	cfg := ConfigFromEnv()
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://localhost/tetris", cfg.DB.DSN)
	assert.Equal(t, "/tmp/t.db", cfg.DB.Path)
	assert.Equal(t, "/srv/media", cfg.MediaDir)
	assert.Equal(t, "/srv/export", cfg.ExportDir)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, scaling.TetrisDS, cfg.BaselineGame())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DB.Driver = "postgres" }},
		{"unknown baseline", func(c *Config) { c.Baseline = "Tetris 99" }},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBaselineGameFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Baseline = "nonsense"
	assert.Equal(t, scaling.NESTetris, cfg.BaselineGame())
}

func TestResolveMediaDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MediaDir = "/explicit"
	dir, err := cfg.ResolveMediaDir()
	require.NoError(t, err)
	assert.Equal(t, "/explicit", dir)

	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	cfg.MediaDir = ""
	dir, err = cfg.ResolveMediaDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(data, "tetristats", "media"), dir)
}
