package scaling

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// LearningData accumulates user-supplied ratios for one (from, to) pair,
// kept separately per bucket. Only sums and counts are retained.
type LearningData struct {
	LowSamples  int     `json:"lowScoreSamples"`
	LowTotal    float64 `json:"lowScoreTotal"`
	MidSamples  int     `json:"midScoreSamples"`
	MidTotal    float64 `json:"midScoreTotal"`
	HighSamples int     `json:"highScoreSamples"`
	HighTotal   float64 `json:"highScoreTotal"`
}

// Add folds one observed ratio into bucket b.
func (d *LearningData) Add(b Bucket, factor float64) {
	switch b {
	case BucketLow:
		d.LowSamples++
		d.LowTotal += factor
	case BucketMid:
		d.MidSamples++
		d.MidTotal += factor
	default:
		d.HighSamples++
		d.HighTotal += factor
	}
}

// Samples returns the sample count for bucket b.
func (d LearningData) Samples(b Bucket) int {
	switch b {
	case BucketLow:
		return d.LowSamples
	case BucketMid:
		return d.MidSamples
	default:
		return d.HighSamples
	}
}

// Mean returns the running mean for bucket b and whether any samples exist.
func (d LearningData) Mean(b Bucket) (float64, bool) {
	var n int
	var total float64
	switch b {
	case BucketLow:
		n, total = d.LowSamples, d.LowTotal
	case BucketMid:
		n, total = d.MidSamples, d.MidTotal
	default:
		n, total = d.HighSamples, d.HighTotal
	}
	if n <= 0 {
		return 0, false
	}
	return total / float64(n), true
}

// Total returns the sample count across all buckets.
func (d LearningData) Total() int {
	return d.LowSamples + d.MidSamples + d.HighSamples
}

// LearnedFactors maps from-game to to-game to accumulated samples.
type LearnedFactors map[Game]map[Game]*LearningData

// Clone returns a deep copy.
func (lf LearnedFactors) Clone() LearnedFactors {
	out := make(LearnedFactors, len(lf))
	for from, row := range lf {
		r := make(map[Game]*LearningData, len(row))
		for to, d := range row {
			cp := *d
			r[to] = &cp
		}
		out[from] = r
	}
	return out
}

// PairSummary describes the learned state of one (from, to) pair. A nil
// mean means the bucket has no samples and the table factor applies.
type PairSummary struct {
	From        Game     `json:"from"`
	To          Game     `json:"to"`
	SampleCount int      `json:"sampleCount"`
	Low         *float64 `json:"low"`
	Mid         *float64 `json:"mid"`
	High        *float64 `json:"high"`
}

// Pairs lists every learned pair ordered by from then to.
func (lf LearnedFactors) Pairs() []PairSummary {
	var out []PairSummary
	for from, row := range lf {
		for to, d := range row {
			ps := PairSummary{From: from, To: to, SampleCount: d.Total()}
			ps.Low = meanPtr(d, BucketLow)
			ps.Mid = meanPtr(d, BucketMid)
			ps.High = meanPtr(d, BucketHigh)
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func meanPtr(d *LearningData, b Bucket) *float64 {
	m, ok := d.Mean(b)
	if !ok {
		return nil
	}
	return &m
}

func encodeLearned(lf LearnedFactors) (string, error) {
	b, err := json.Marshal(lf)
	if err != nil {
		return "", fmt.Errorf("marshal learned factors: %w", err)
	}
	return string(b), nil
}

func decodeLearned(raw string) (LearnedFactors, error) {
	var lf LearnedFactors
	if err := json.Unmarshal([]byte(raw), &lf); err != nil {
		return nil, fmt.Errorf("unmarshal learned factors: %w", err)
	}
	if lf == nil {
		lf = make(LearnedFactors)
	}
	for from, row := range lf {
		if row == nil {
			delete(lf, from)
			continue
		}
		for to, d := range row {
			if d == nil {
				delete(row, to)
				continue
			}
			if err := d.check(); err != nil {
				return nil, fmt.Errorf("%s -> %s: %w", from, to, err)
			}
		}
	}
	return lf, nil
}

// check rejects counts and totals no sequence of Add calls can produce.
func (d *LearningData) check() error {
	for _, b := range AllBuckets() {
		if d.Samples(b) < 0 {
			return fmt.Errorf("negative %s sample count %d", b, d.Samples(b))
		}
	}
	for _, total := range []float64{d.LowTotal, d.MidTotal, d.HighTotal} {
		if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
			return fmt.Errorf("invalid factor total %v", total)
		}
	}
	return nil
}
