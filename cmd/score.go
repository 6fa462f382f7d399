package cmd

import (
	"fmt"
	"strconv"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/conversion"
	"github.com/accidentalproductions/tetristats/internal/media"
	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/store"
	"github.com/accidentalproductions/tetristats/internal/ui/theme"
)

const (
	dateLayout = "2006-01-02"
	// timestampLayout keeps the millisecond precision scores are stored with.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Log, list and delete scores",
}

var scoreAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a score and show its equivalents in your other games",
	Long: "Log a score. Once you have at least 3 scores across 2 games, the\n" +
		"equivalent score in every other game you play is shown.\n\n" +
		"Passing --id re-inserts a deleted score under its old id.",
	RunE: runScoreAdd,
}

var scoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged scores, newest first",
	RunE:  runScoreList,
}

var scoreDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a score",
	Args:  cobra.ExactArgs(1),
	RunE:  runScoreDelete,
}

var scoreMediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Attach or remove a screenshot or video",
}

var scoreMediaAttachCmd = &cobra.Command{
	Use:   "attach ID FILE",
	Short: "Copy FILE into the media directory and attach it to a score",
	Args:  cobra.ExactArgs(2),
	RunE:  runMediaAttach,
}

var scoreMediaRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Detach and delete a score's media",
	Args:  cobra.ExactArgs(1),
	RunE:  runMediaRemove,
}

func init() {
	f := scoreAddCmd.Flags()
	f.String("game", "", "Game the score was set in")
	f.Int("score", 0, "Final score")
	f.Int("start-level", 0, "Starting level")
	f.Int("end-level", 0, "Ending level")
	f.Int("lines", 0, "Lines cleared")
	f.String("date", "", "When it was played (YYYY-MM-DD or RFC 3339); default now")
	f.Int("id", 0, "Restore a deleted score under this id")
	f.String("media", "", "Path of an already stored media file")

	scoreListCmd.Flags().String("game", "", "Only list scores from this game")

	scoreMediaCmd.AddCommand(scoreMediaAttachCmd, scoreMediaRemoveCmd)
	scoreCmd.AddCommand(scoreAddCmd, scoreListCmd, scoreDeleteCmd, scoreMediaCmd)
}

func runScoreAdd(cmd *cobra.Command, args []string) error {
	game, err := gameFlag(cmd, "game")
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("score") {
		return fmt.Errorf("--score is required")
	}
	value, _ := cmd.Flags().GetInt("score")

	sc := store.Score{
		Game:         game,
		Score:        value,
		StartLevel:   optionalInt(cmd, "start-level"),
		EndLevel:     optionalInt(cmd, "end-level"),
		LinesCleared: optionalInt(cmd, "lines"),
	}
	sc.MediaPath, _ = cmd.Flags().GetString("media")
	if d, _ := cmd.Flags().GetString("date"); d != "" {
		t, err := parseDate(d)
		if err != nil {
			return err
		}
		sc.DateRecorded = t
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if id, _ := cmd.Flags().GetInt("id"); id != 0 {
		if value < 0 {
			return fmt.Errorf("score must be non-negative, got %d", value)
		}
		sc.ID = id
		if err := e.store.ScoreRepo().Insert(ctx, &sc); err != nil {
			return err
		}
		lipgloss.Fprintln(out, theme.Learned.Render(fmt.Sprintf("Restored score #%d", sc.ID)))
		return nil
	}

	res, err := e.service().Submit(ctx, sc)
	if err != nil {
		return err
	}
	lipgloss.Fprintln(out, theme.Learned.Render(
		fmt.Sprintf("Saved score #%d: %s %d", res.Score.ID, res.Score.Game, res.Score.Score)))

	if !res.ShowConversions {
		lipgloss.Fprintln(out, theme.Hint.Render(fmt.Sprintf(
			"Equivalent scores appear once you have %d scores across %d games.",
			conversion.MinScores, conversion.MinGames)))
		return nil
	}
	if len(res.Equivalents) == 0 {
		return nil
	}
	lipgloss.Fprintln(out)
	lipgloss.Fprintln(out, theme.Title.Render("Equivalent scores"))
	lipgloss.Fprintln(out, equivalentsTable(res.Equivalents))
	return nil
}

func equivalentsTable(eqs []conversion.Equivalent) string {
	rows := make([][]string, 0, len(eqs))
	for _, eq := range eqs {
		source := theme.Default.Render(string(scaling.SourceDefault))
		if eq.UsesLearnedFactor {
			source = theme.Learned.Render(string(scaling.SourceLearned))
		}
		rows = append(rows, []string{
			string(eq.Game),
			strconv.Itoa(eq.Score),
			strconv.Itoa(eq.SampleCount),
			source,
		})
	}
	return theme.Table([]string{"Game", "Equivalent", "Samples", "Factor"}, rows, 1, 2)
}

func runScoreList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := commandContext(cmd)
	repo := e.store.ScoreRepo()

	var scores []store.Score
	if g, _ := cmd.Flags().GetString("game"); g != "" {
		game, err := scaling.ParseGame(g)
		if err != nil {
			return err
		}
		scores, err = repo.ByGame(ctx, game)
		if err != nil {
			return err
		}
	} else {
		scores, err = repo.All(ctx)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(scores) == 0 {
		lipgloss.Fprintln(out, theme.Hint.Render("No scores logged yet."))
		return nil
	}

	rows := make([][]string, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, []string{
			strconv.Itoa(s.ID),
			string(s.Game),
			strconv.Itoa(s.Score),
			optionalCell(s.StartLevel),
			optionalCell(s.EndLevel),
			optionalCell(s.LinesCleared),
			s.DateRecorded.Format(dateLayout),
			s.MediaPath,
		})
	}
	lipgloss.Fprintln(out, theme.Table(
		[]string{"ID", "Game", "Score", "Start", "End", "Lines", "Date", "Media"},
		rows, 0, 2, 3, 4, 5))
	return nil
}

func optionalCell(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func runScoreDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := commandContext(cmd)
	repo := e.store.ScoreRepo()
	sc, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	lipgloss.Fprintln(out, theme.Warning.Render(fmt.Sprintf("Deleted score #%d (%s %d).", sc.ID, sc.Game, sc.Score)))
	lipgloss.Fprintln(out, theme.Hint.Render(restoreHint(sc)))
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// restoreHint is the command that puts a deleted score back exactly,
// attachment included.
func restoreHint(sc *store.Score) string {
	hint := fmt.Sprintf("Undo: tetristats score add --id %d --game %q --score %d --date %s",
		sc.ID, sc.Game, sc.Score, sc.DateRecorded.UTC().Format(timestampLayout))
	if sc.StartLevel != nil {
		hint += fmt.Sprintf(" --start-level %d", *sc.StartLevel)
	}
	if sc.EndLevel != nil {
		hint += fmt.Sprintf(" --end-level %d", *sc.EndLevel)
	}
	if sc.LinesCleared != nil {
		hint += fmt.Sprintf(" --lines %d", *sc.LinesCleared)
	}
	if sc.MediaPath != "" {
		hint += fmt.Sprintf(" --media %q", sc.MediaPath)
	}
	return hint
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid score id %q", s)
	}
	return id, nil
}

func openAttacher(cmd *cobra.Command, e *env) (*media.Attacher, error) {
	dir, err := e.cfg.ResolveMediaDir()
	if err != nil {
		return nil, err
	}
	files, err := media.NewStore(dir)
	if err != nil {
		return nil, err
	}
	return media.NewAttacher(files, e.store.ScoreRepo(), cmd.ErrOrStderr()), nil
}

func runMediaAttach(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	att, err := openAttacher(cmd, e)
	if err != nil {
		return err
	}
	path, err := att.Attach(commandContext(cmd), id, args[1])
	if err != nil {
		return err
	}
	lipgloss.Fprintln(cmd.OutOrStdout(), theme.Body.Render(fmt.Sprintf("Attached %s to score #%d", path, id)))
	return nil
}

func runMediaRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	att, err := openAttacher(cmd, e)
	if err != nil {
		return err
	}
	if err := att.Detach(commandContext(cmd), id); err != nil {
		return err
	}
	lipgloss.Fprintln(cmd.OutOrStdout(), theme.Body.Render(fmt.Sprintf("Removed media from score #%d", id)))
	return nil
}
