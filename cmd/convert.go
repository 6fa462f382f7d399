package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/conversion"
	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/ui/theme"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a score into the other games you play",
	Long: "Convert a score into equivalent scores for every other game you have\n" +
		"logged. With --all, convert into every known game instead.",
	RunE: runConvert,
}

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Teach the converter that two scores are equivalent",
	Long: "Record that --score in --from felt like --equivalent in --to. The\n" +
		"ratio refines future conversions for that pair and score range.",
	RunE: runLearn,
}

func init() {
	f := convertCmd.Flags()
	f.String("game", "", "Game the score was set in")
	f.Int("score", 0, "Score to convert")
	f.Bool("all", false, "Convert into every known game, not just the ones you play")

	f = learnCmd.Flags()
	f.String("from", "", "Game of the original score")
	f.Int("score", 0, "Original score")
	f.String("to", "", "Game of the equivalent score")
	f.Int("equivalent", 0, "Equivalent score in --to")
}

func runConvert(cmd *cobra.Command, args []string) error {
	game, err := gameFlag(cmd, "game")
	if err != nil {
		return err
	}
	score, _ := cmd.Flags().GetInt("score")
	if score < 0 {
		return fmt.Errorf("score must be non-negative, got %d", score)
	}
	all, _ := cmd.Flags().GetBool("all")

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	svc := e.service()
	out := cmd.OutOrStdout()

	var eqs []conversion.Equivalent
	if all {
		eqs = svc.ConvertForAllPlayedGames(game, score, scaling.AllGames())
	} else {
		eqs, _, err = svc.Equivalents(commandContext(cmd), game, score)
		if err != nil {
			return err
		}
	}
	if len(eqs) == 0 {
		lipgloss.Fprintln(out, theme.Hint.Render("No other games logged yet. Use --all to convert into every known game."))
		return nil
	}

	lipgloss.Fprintln(out, theme.Title.Render(fmt.Sprintf("%d in %s is about", score, game)))
	lipgloss.Fprintln(out, equivalentsTable(eqs))
	return nil
}

func runLearn(cmd *cobra.Command, args []string) error {
	from, err := gameFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := gameFlag(cmd, "to")
	if err != nil {
		return err
	}
	fromScore, _ := cmd.Flags().GetInt("score")
	toScore, _ := cmd.Flags().GetInt("equivalent")

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	eqs, err := e.service().AddEquivalentScore(commandContext(cmd), from, fromScore, to, toScore)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	factor := e.est.Factor(from, to, fromScore)
	lipgloss.Fprintln(out, theme.Learned.Render(fmt.Sprintf(
		"Learned %s -> %s (%s scores): factor now %.3f from %d samples",
		from, to, scaling.BucketFor(fromScore), factor, e.est.SampleCount(from, to))))
	if len(eqs) > 0 {
		lipgloss.Fprintln(out)
		lipgloss.Fprintln(out, equivalentsTable(eqs))
	}
	return nil
}
