package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/analyzer"
	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/ui/theme"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Derive scaling factors from comparable play sessions",
	Long: "Collect samples (game, score, level, skill) and compare each game's\n" +
		"scoring curve against a baseline game. Samples persist until cleared.",
}

var analyzeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add one sample",
	RunE:  runAnalyzeAdd,
}

var analyzeImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Add samples from a JSON file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyzeImport,
}

var analyzeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collected samples",
	RunE:  runAnalyzeList,
}

var analyzeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all collected samples",
	RunE:  runAnalyzeClear,
}

var analyzeReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print per-game statistics and derived factors",
	RunE:  runAnalyzeReport,
}

var analyzeCodegenCmd = &cobra.Command{
	Use:   "codegen",
	Short: "Print the derived factors as a Go table literal",
	RunE:  runAnalyzeCodegen,
}

var analyzeValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Convert a score using only the derived factors",
	RunE:  runAnalyzeValidate,
}

func init() {
	analyzeCmd.PersistentFlags().String("baseline", "", "Reference game (overrides TETRISTATS_BASELINE)")

	f := analyzeAddCmd.Flags()
	f.String("game", "", "Game played")
	f.Int("score", 0, "Score reached")
	f.Int("level", 0, "Level reached")
	f.String("skill", analyzer.SkillIntermediate,
		"Skill level ("+strings.Join(analyzer.SkillLevels(), ", ")+")")
	f.String("notes", "", "Free-form notes")

	f = analyzeValidateCmd.Flags()
	f.String("from", "", "Source game")
	f.String("to", "", "Target game")
	f.Int("score", 0, "Score to convert")

	analyzeCmd.AddCommand(analyzeAddCmd, analyzeImportCmd, analyzeListCmd,
		analyzeClearCmd, analyzeReportCmd, analyzeCodegenCmd, analyzeValidateCmd)
}

// loadAnalyzer rebuilds the analyzer from the stored samples.
func loadAnalyzer(cmd *cobra.Command, e *env) (*analyzer.Analyzer, error) {
	baseline := e.cfg.BaselineGame()
	if b, _ := cmd.Flags().GetString("baseline"); b != "" {
		g, err := scaling.ParseGame(b)
		if err != nil {
			return nil, fmt.Errorf("--baseline: %w", err)
		}
		baseline = g
	}
	samples, err := e.store.SampleRepo().All(commandContext(cmd))
	if err != nil {
		return nil, err
	}
	a := analyzer.New(baseline)
	a.AddSamples(samples)
	return a, nil
}

func runAnalyzeAdd(cmd *cobra.Command, args []string) error {
	game, _ := cmd.Flags().GetString("game")
	if game == "" {
		return fmt.Errorf("--game is required")
	}
	g := analyzer.NormalizeGame(game)
	score, _ := cmd.Flags().GetInt("score")
	level, _ := cmd.Flags().GetInt("level")
	skill, _ := cmd.Flags().GetString("skill")
	notes, _ := cmd.Flags().GetString("notes")
	if score < 0 || level < 0 {
		return fmt.Errorf("score and level must be non-negative")
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	s := analyzer.Sample{Game: g, Score: score, Level: level, SkillLevel: skill, Notes: notes}
	if err := e.store.SampleRepo().Add(commandContext(cmd), s); err != nil {
		return err
	}
	lipgloss.Fprintln(cmd.OutOrStdout(), theme.Body.Render(
		fmt.Sprintf("Added sample: %s %d (level %d, %s)", g, score, level, skill)))
	return nil
}

func runAnalyzeImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open samples: %w", err)
		}
		defer f.Close()
		r = f
	}
	samples, err := analyzer.LoadSamples(r)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.store.SampleRepo().Add(commandContext(cmd), samples...); err != nil {
		return err
	}
	lipgloss.Fprintln(cmd.OutOrStdout(), theme.Body.Render(fmt.Sprintf("Imported %d samples", len(samples))))
	return nil
}

func runAnalyzeList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	samples, err := e.store.SampleRepo().All(commandContext(cmd))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(samples) == 0 {
		lipgloss.Fprintln(out, theme.Hint.Render("No samples collected."))
		return nil
	}
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			string(s.Game), strconv.Itoa(s.Score), strconv.Itoa(s.Level), s.SkillLevel, s.Notes,
		})
	}
	lipgloss.Fprintln(out, theme.Table([]string{"Game", "Score", "Level", "Skill", "Notes"}, rows, 1, 2))
	return nil
}

func runAnalyzeClear(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.store.SampleRepo().Clear(commandContext(cmd)); err != nil {
		return err
	}
	lipgloss.Fprintln(cmd.OutOrStdout(), "Cleared all samples.")
	return nil
}

func runAnalyzeReport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := loadAnalyzer(cmd, e)
	if err != nil {
		return err
	}
	a.Report(cmd.OutOrStdout())
	return nil
}

func runAnalyzeCodegen(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := loadAnalyzer(cmd, e)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), a.GenerateScalingFactorCode())
	return nil
}

func runAnalyzeValidate(cmd *cobra.Command, args []string) error {
	from, err := gameFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := gameFlag(cmd, "to")
	if err != nil {
		return err
	}
	score, _ := cmd.Flags().GetInt("score")
	if score < 0 {
		return fmt.Errorf("score must be non-negative, got %d", score)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := loadAnalyzer(cmd, e)
	if err != nil {
		return err
	}
	factor := a.ValidateConversion(from, to, score)
	lipgloss.Fprintln(cmd.OutOrStdout(), fmt.Sprintf("%d in %s -> %d in %s (factor %.3f, %s range)",
		score, from, scaling.Apply(score, factor), to, factor, scaling.BucketFor(score)))
	return nil
}
