package analyzer

import (
	"fmt"
	"io"
	"sort"

	"github.com/accidentalproductions/tetristats/internal/scaling"
)

// Report writes a human-readable summary of the working set and the
// calculated factors.
func (a *Analyzer) Report(w io.Writer) {
	samples := a.Samples()

	fmt.Fprintln(w, "=== Scaling Factor Analysis Report ===")
	fmt.Fprintf(w, "Base Game: %s\n", a.baseline)
	fmt.Fprintf(w, "Total Samples: %d\n", len(samples))

	fmt.Fprintln(w, "\nSamples per Game:")
	byGame := make(map[scaling.Game][]Sample)
	for _, s := range samples {
		byGame[s.Game] = append(byGame[s.Game], s)
	}
	for _, game := range distinctGames(samples) {
		group := byGame[game]
		fmt.Fprintf(w, "%s: %d samples\n", game, len(group))
		fmt.Fprintf(w, "  Skill Levels: %v\n", distinctSkills(group))
		minL, maxL := group[0].Level, group[0].Level
		minS, maxS := group[0].Score, group[0].Score
		for _, s := range group[1:] {
			minL, maxL = min(minL, s.Level), max(maxL, s.Level)
			minS, maxS = min(minS, s.Score), max(maxS, s.Score)
		}
		fmt.Fprintf(w, "  Level Range: %d - %d\n", minL, maxL)
		fmt.Fprintf(w, "  Score Range: %d - %d\n", minS, maxS)
	}

	factors := analyze(samples, a.baseline)
	games := make([]scaling.Game, 0, len(factors))
	for g := range factors {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i] < games[j] })

	fmt.Fprintln(w, "\nCalculated Scaling Factors:")
	for _, g := range games {
		f := factors[g]
		fmt.Fprintf(w, "%s:\n", g)
		fmt.Fprintf(w, "  Low (<100k): %g\n", f.Low)
		fmt.Fprintf(w, "  Mid (100k-500k): %g\n", f.Mid)
		fmt.Fprintf(w, "  High (>=500k): %g\n", f.High)
	}
}

func distinctSkills(samples []Sample) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range samples {
		if !seen[s.SkillLevel] {
			seen[s.SkillLevel] = true
			out = append(out, s.SkillLevel)
		}
	}
	return out
}
