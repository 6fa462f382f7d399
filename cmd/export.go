package cmd

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/export"
	"github.com/accidentalproductions/tetristats/internal/ui/theme"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all scores to a timestamped CSV file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("out", "", "Output directory (overrides TETRISTATS_EXPORT_DIR)")
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	dir := e.cfg.ExportDir
	if d, _ := cmd.Flags().GetString("out"); d != "" {
		dir = d
	}

	path, err := export.ToDir(commandContext(cmd), e.store.ScoreRepo(), dir, time.Now())
	if err != nil {
		return err
	}
	lipgloss.Fprintln(cmd.OutOrStdout(), theme.Learned.Render(fmt.Sprintf("Exported to %s", path)))
	return nil
}
