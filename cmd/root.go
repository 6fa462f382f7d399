package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/config"
	"github.com/accidentalproductions/tetristats/internal/conversion"
	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tetristats",
	Short: "Track Tetris scores and compare them across game versions",
	Long: "tetristats logs scores from different Tetris releases and converts them into\n" +
		"equivalent scores in the other versions you play, learning better factors\n" +
		"from the equivalences you report.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TETRISTATS_DB env var)")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(factorsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// env bundles what most commands need. Close releases the database.
type env struct {
	cfg   config.Config
	store *store.Store
	est   *scaling.Estimator
}

func (e *env) Close() error {
	return e.store.Close()
}

func (e *env) service() *conversion.Service {
	return conversion.NewService(e.est, e.store.ScoreRepo())
}

// openEnv loads configuration, opens the store and restores the learned
// factors. Estimator warnings go to the command's stderr.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg := config.ConfigFromEnv()
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB.Path = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	est := scaling.NewEstimator(nil, st.SettingsRepo())
	est.SetWarningOutput(cmd.ErrOrStderr())
	est.Load(commandContext(cmd))

	return &env{cfg: cfg, store: st, est: est}, nil
}

func openStore(cfg config.Config) (*store.Store, error) {
	driver, err := store.ParseDriver(cfg.DB.Driver)
	if err != nil {
		return nil, err
	}
	if driver == store.DriverPostgres {
		st, err := store.OpenDriver(driver, cfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then TETRISTATS_DB env var, then the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DB.Path != "" {
		return cfg.DB.Path, store.EnsureDir(cfg.DB.Path)
	}
	return store.DefaultDBPath()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// gameFlag reads and validates a game name flag.
func gameFlag(cmd *cobra.Command, name string) (scaling.Game, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return scaling.ParseGame(v)
}

// optionalInt returns nil unless the flag was set.
func optionalInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}
