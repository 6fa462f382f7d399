// Package config loads tetristats settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/store"
)

// Config holds all runtime configuration.
type Config struct {
	DB   DBConfig
	HTTP HTTPConfig

	// MediaDir is where attached screenshots and videos are copied.
	// Empty means <data dir>/media.
	MediaDir string

	// ExportDir receives CSV exports. Default: current directory.
	ExportDir string

	// Baseline is the analyzer's reference game. Default: "NES Tetris".
	Baseline string
}

// DBConfig selects the database backend.
type DBConfig struct {
	Driver string // "sqlite" or "postgres"
	Path   string // SQLite file. Empty means the XDG default.
	DSN    string // Postgres connection string.
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr         string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DB: DBConfig{
			Driver: string(store.DriverSQLite),
		},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			CORSOrigins:  []string{"*"},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		ExportDir: ".",
		Baseline:  string(scaling.NESTetris),
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if d := os.Getenv("TETRISTATS_DB_DRIVER"); d != "" {
		cfg.DB.Driver = d
	}
	if p := os.Getenv("TETRISTATS_DB"); p != "" {
		cfg.DB.Path = p
	}
	if dsn := os.Getenv("TETRISTATS_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}

	if d := os.Getenv("TETRISTATS_MEDIA_DIR"); d != "" {
		cfg.MediaDir = d
	}
	if d := os.Getenv("TETRISTATS_EXPORT_DIR"); d != "" {
		cfg.ExportDir = d
	}

	if a := os.Getenv("TETRISTATS_HTTP_ADDR"); a != "" {
		cfg.HTTP.Addr = a
	}
	if o := os.Getenv("TETRISTATS_CORS_ORIGINS"); o != "" {
		cfg.HTTP.CORSOrigins = splitList(o)
	}

	if b := os.Getenv("TETRISTATS_BASELINE"); b != "" {
		cfg.Baseline = b
	}

	return cfg
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	driver, err := store.ParseDriver(c.DB.Driver)
	if err != nil {
		return err
	}
	if driver == store.DriverPostgres && c.DB.DSN == "" {
		return fmt.Errorf("TETRISTATS_DB_DSN is required for the postgres driver")
	}
	if _, err := scaling.ParseGame(c.Baseline); err != nil {
		return fmt.Errorf("TETRISTATS_BASELINE: %w", err)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("TETRISTATS_HTTP_ADDR must not be empty")
	}
	return nil
}

// BaselineGame returns the parsed baseline, or NES Tetris if it is invalid.
func (c Config) BaselineGame() scaling.Game {
	g, err := scaling.ParseGame(c.Baseline)
	if err != nil {
		return scaling.NESTetris
	}
	return g
}

// ResolveMediaDir returns MediaDir, defaulting to <data dir>/media.
func (c Config) ResolveMediaDir() (string, error) {
	if c.MediaDir != "" {
		return c.MediaDir, nil
	}
	dir, err := store.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "media"), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
