// Package analyzer derives default scaling factors from batches of
// observed scores. Every game is measured against a single baseline game;
// the regenerated table reuses each game's baseline-relative factors for
// all source games.
package analyzer

import (
	"sync"

	"github.com/accidentalproductions/tetristats/internal/scaling"
)

// DefaultBaseline is the reference game all factors are expressed against.
const DefaultBaseline = scaling.NESTetris

// Analyzer holds an ordered working set of samples.
type Analyzer struct {
	mu       sync.Mutex
	baseline scaling.Game
	samples  []Sample
}

// New returns an Analyzer for the given baseline. An empty baseline means
// DefaultBaseline.
func New(baseline scaling.Game) *Analyzer {
	if baseline == "" {
		baseline = DefaultBaseline
	}
	return &Analyzer{baseline: baseline}
}

// Baseline returns the reference game.
func (a *Analyzer) Baseline() scaling.Game {
	return a.baseline
}

// AddSample appends one sample to the working set.
func (a *Analyzer) AddSample(s Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = append(a.samples, s)
}

// AddSamples appends samples in order.
func (a *Analyzer) AddSamples(samples []Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = append(a.samples, samples...)
}

// ClearSamples empties the working set.
func (a *Analyzer) ClearSamples() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = nil
}

// SampleCount returns the size of the working set.
func (a *Analyzer) SampleCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.samples)
}

// Samples returns a copy of the working set in insertion order.
func (a *Analyzer) Samples() []Sample {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Sample, len(a.samples))
	copy(out, a.samples)
	return out
}

// AnalyzeScoringCurves computes, for every non-baseline game in the working
// set, the factor that converts its scores into baseline scores, per bucket.
// Buckets without usable samples get 1.0.
func (a *Analyzer) AnalyzeScoringCurves() map[scaling.Game]scaling.Bucketed {
	return analyze(a.Samples(), a.baseline)
}

func analyze(samples []Sample, baseline scaling.Game) map[scaling.Game]scaling.Bucketed {
	var base []Sample
	byGame := make(map[scaling.Game][]Sample)
	for _, s := range samples {
		if s.Game == baseline {
			base = append(base, s)
			continue
		}
		byGame[s.Game] = append(byGame[s.Game], s)
	}

	out := make(map[scaling.Game]scaling.Bucketed, len(byGame))
	for game, scores := range byGame {
		var buckets [3][]Sample
		for _, s := range scores {
			b := scaling.BucketFor(s.Score)
			buckets[b] = append(buckets[b], s)
		}
		out[game] = scaling.Bucketed{
			Low:  averageFactor(buckets[scaling.BucketLow], base),
			Mid:  averageFactor(buckets[scaling.BucketMid], base),
			High: averageFactor(buckets[scaling.BucketHigh], base),
		}
	}
	return out
}

// averageFactor averages baseline/candidate ratios over every candidate.
// A candidate pairs with all baseline samples of the same skill level, or
// failing that with the single baseline sample nearest in level.
func averageFactor(candidates, base []Sample) float64 {
	if len(candidates) == 0 || len(base) == 0 {
		return 1.0
	}

	var sum float64
	var n int
	for _, c := range candidates {
		if c.Score <= 0 {
			continue
		}
		matched := false
		for _, b := range base {
			if b.SkillLevel == c.SkillLevel {
				sum += float64(b.Score) / float64(c.Score)
				n++
				matched = true
			}
		}
		if matched {
			continue
		}
		if nearest, ok := closestLevel(base, c.Level); ok {
			sum += float64(nearest.Score) / float64(c.Score)
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}

// closestLevel returns the first sample with the smallest level distance.
func closestLevel(base []Sample, level int) (Sample, bool) {
	if len(base) == 0 {
		return Sample{}, false
	}
	best := base[0]
	bestDist := absInt(best.Level - level)
	for _, s := range base[1:] {
		if d := absInt(s.Level - level); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ValidateConversion re-runs the analysis and returns the factor for to at
// score. The source game only matters in that it triggers recomputation;
// all factors are baseline-relative.
func (a *Analyzer) ValidateConversion(from, to scaling.Game, score int) float64 {
	f, ok := a.AnalyzeScoringCurves()[to]
	if !ok {
		return 1.0
	}
	return scaling.FactorAt(f, score)
}

// Games returns the distinct games in the working set in first-seen order.
func (a *Analyzer) Games() []scaling.Game {
	return distinctGames(a.Samples())
}

func distinctGames(samples []Sample) []scaling.Game {
	seen := make(map[scaling.Game]bool)
	var games []scaling.Game
	for _, s := range samples {
		if !seen[s.Game] {
			seen[s.Game] = true
			games = append(games, s.Game)
		}
	}
	return games
}

// Table builds a scaling.Table from the analysis: every ordered pair of
// distinct games seen gets the destination game's baseline-relative factors.
func (a *Analyzer) Table() *scaling.Table {
	samples := a.Samples()
	factors := analyze(samples, a.baseline)
	games := distinctGames(samples)

	m := make(map[scaling.Game]map[scaling.Game]scaling.Factor, len(games))
	for _, from := range games {
		row := make(map[scaling.Game]scaling.Factor, len(games)-1)
		for _, to := range games {
			if to == from {
				continue
			}
			row[to] = factorOrUnit(factors, to)
		}
		m[from] = row
	}
	return scaling.NewTable(m)
}

func factorOrUnit(factors map[scaling.Game]scaling.Bucketed, g scaling.Game) scaling.Bucketed {
	if f, ok := factors[g]; ok {
		return f
	}
	return scaling.Uniform(1.0)
}
