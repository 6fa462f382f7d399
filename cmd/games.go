package cmd

import (
	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/ui/theme"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List supported games",
	RunE:  runGames,
}

func runGames(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	played, err := e.store.ScoreRepo().Games(commandContext(cmd))
	if err != nil {
		return err
	}
	isPlayed := make(map[scaling.Game]bool, len(played))
	for _, g := range played {
		isPlayed[g] = true
	}
	table := e.est.Table()
	rows := make([][]string, 0, len(scaling.AllGames()))
	for _, g := range scaling.AllGames() {
		rows = append(rows, []string{string(g), mark(isPlayed[g]), mark(len(table.Row(g)) > 0)})
	}
	lipgloss.Fprintln(cmd.OutOrStdout(), theme.Table([]string{"Game", "Played", "Default factors"}, rows))
	return nil
}

func mark(ok bool) string {
	if ok {
		return theme.Learned.Render("yes")
	}
	return theme.Default.Render("-")
}
