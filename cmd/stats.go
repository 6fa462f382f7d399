package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/conversion"
	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show score count, average and high score per game",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().String("game", "", "Only show this game")
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := commandContext(cmd)
	repo := e.store.ScoreRepo()
	out := cmd.OutOrStdout()

	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	played, err := repo.Games(ctx)
	if err != nil {
		return err
	}
	games := played
	if g, _ := cmd.Flags().GetString("game"); g != "" {
		game, err := scaling.ParseGame(g)
		if err != nil {
			return err
		}
		games = []scaling.Game{game}
	}
	if total == 0 {
		lipgloss.Fprintln(out, theme.Hint.Render("No scores logged yet. Start with: tetristats score add"))
		return nil
	}

	rows := make([][]string, 0, len(games))
	for _, g := range games {
		scores, err := repo.ByGame(ctx, g)
		if err != nil {
			return err
		}
		avg, _, err := repo.Average(ctx, g)
		if err != nil {
			return err
		}
		high, _, err := repo.HighScore(ctx, g)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			string(g),
			strconv.Itoa(len(scores)),
			fmt.Sprintf("%.0f", avg),
			theme.Highlight.Render(strconv.Itoa(high)),
		})
	}

	lipgloss.Fprintln(out, theme.Title.Render("Statistics"))
	lipgloss.Fprintln(out, theme.Table([]string{"Game", "Scores", "Average", "High Score"}, rows, 1, 2, 3))
	lipgloss.Fprintln(out, theme.Subtitle.Render(
		fmt.Sprintf("%d scores across %d games", total, len(played))))
	if !conversion.ShouldShowConversions(total, len(played)) {
		lipgloss.Fprintln(out, theme.Hint.Render(fmt.Sprintf(
			"Equivalent scores unlock at %d scores across %d games.",
			conversion.MinScores, conversion.MinGames)))
	}
	return nil
}
