package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/ui/theme"
)

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Inspect or reset learned conversion factors",
}

var factorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned factors per game pair and score range",
	RunE:  runFactorsList,
}

var factorsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard learned factors",
	Long: "Discard learned factors for one pair (--from and --to) or, with\n" +
		"--all, for every pair. Default table factors are unaffected.",
	RunE: runFactorsReset,
}

func init() {
	f := factorsResetCmd.Flags()
	f.String("from", "", "Source game of the pair")
	f.String("to", "", "Target game of the pair")
	f.Bool("all", false, "Reset every pair")

	factorsCmd.AddCommand(factorsListCmd, factorsResetCmd)
}

func runFactorsList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	pairs := e.est.Learned().Pairs()
	if len(pairs) == 0 {
		lipgloss.Fprintln(out, theme.Hint.Render("Nothing learned yet. Teach the converter with: tetristats learn"))
		return nil
	}

	headers := []string{"From", "To", "Samples"}
	for _, b := range scaling.AllBuckets() {
		headers = append(headers, b.Range())
	}
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{
			string(p.From),
			string(p.To),
			strconv.Itoa(p.SampleCount),
			factorCell(e.est, p.From, p.To, scaling.BucketLow, p.Low),
			factorCell(e.est, p.From, p.To, scaling.BucketMid, p.Mid),
			factorCell(e.est, p.From, p.To, scaling.BucketHigh, p.High),
		})
	}
	lipgloss.Fprintln(out, theme.Table(headers, rows, 2, 3, 4, 5))
	lipgloss.Fprintln(out, theme.Hint.Render("Dim values fall back to the default table."))
	return nil
}

// factorCell shows the learned mean, or the table factor dimmed when the
// bucket has no samples.
func factorCell(est *scaling.Estimator, from, to scaling.Game, b scaling.Bucket, learned *float64) string {
	if learned != nil {
		return theme.Learned.Render(fmt.Sprintf("%.3f", *learned))
	}
	f, ok := est.Table().Lookup(from, to)
	if !ok {
		return theme.Default.Render("1.000")
	}
	return theme.Default.Render(fmt.Sprintf("%.3f", f.ForBucket(b)))
}

func runFactorsReset(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	if !all && (fromFlag == "" || toFlag == "") {
		return fmt.Errorf("pass --from and --to, or --all")
	}

	var from, to scaling.Game
	if !all {
		var err error
		if from, err = scaling.ParseGame(fromFlag); err != nil {
			return err
		}
		if to, err = scaling.ParseGame(toFlag); err != nil {
			return err
		}
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	if all {
		e.est.ResetAll(ctx)
		lipgloss.Fprintln(out, theme.Warning.Render("Reset all learned factors."))
		return nil
	}
	e.est.ResetPair(ctx, from, to)
	lipgloss.Fprintln(out, fmt.Sprintf("Reset learned factors for %s -> %s.", from, to))
	return nil
}
