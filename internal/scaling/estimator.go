package scaling

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Source tells where a conversion factor came from.
type Source string

const (
	SourceLearned  Source = "learned"
	SourceDefault  Source = "default"
	SourceIdentity Source = "identity"
)

// Estimator overlays user-learned ratios on a default Table. A bucket with
// at least one sample for a pair uses the sample mean; other buckets of the
// same pair still use the table.
//
// All mutations hold a single write lock across update and persist, so
// concurrent samples for a pair never lose an increment. Persistence
// failures are reported to the warning writer and do not fail the call.
type Estimator struct {
	mu       sync.RWMutex
	table    *Table
	settings Settings
	learned  LearnedFactors
	warn     io.Writer
}

// NewEstimator creates an Estimator with no learned data. Call Load to
// restore persisted state. A nil table means DefaultTable.
func NewEstimator(table *Table, settings Settings) *Estimator {
	if table == nil {
		table = DefaultTable()
	}
	return &Estimator{
		table:    table,
		settings: settings,
		learned:  make(LearnedFactors),
		warn:     os.Stderr,
	}
}

// OpenEstimator creates an Estimator and loads its persisted state.
func OpenEstimator(ctx context.Context, table *Table, settings Settings) *Estimator {
	e := NewEstimator(table, settings)
	e.Load(ctx)
	return e
}

// SetWarningOutput redirects persistence warnings. A nil writer discards them.
func (e *Estimator) SetWarningOutput(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	e.warn = w
}

// Table returns the default table the estimator falls back to.
func (e *Estimator) Table() *Table {
	return e.table
}

// Load replaces in-memory state with the persisted blob. Missing, unreadable
// or corrupt data yields an empty state.
func (e *Estimator) Load(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.learned = make(LearnedFactors)
	if e.settings == nil {
		return
	}
	raw, ok, err := e.settings.GetSetting(ctx, LearnedFactorsKey)
	if err != nil {
		fmt.Fprintf(e.warn, "warning: failed to read learned factors: %v\n", err)
		return
	}
	if !ok || raw == "" {
		return
	}
	lf, err := decodeLearned(raw)
	if err != nil {
		fmt.Fprintf(e.warn, "warning: discarding corrupt learned factors: %v\n", err)
		return
	}
	e.learned = lf
}

// Save writes the current state to settings.
func (e *Estimator) Save(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.save(ctx)
}

// save must be called with e.mu held.
func (e *Estimator) save(ctx context.Context) error {
	if e.settings == nil {
		return nil
	}
	raw, err := encodeLearned(e.learned)
	if err != nil {
		return err
	}
	if err := e.settings.PutSetting(ctx, LearnedFactorsKey, raw); err != nil {
		return fmt.Errorf("save learned factors: %w", err)
	}
	return nil
}

func (e *Estimator) persist(ctx context.Context) {
	if err := e.save(ctx); err != nil {
		fmt.Fprintf(e.warn, "warning: %v\n", err)
	}
}

// RecordSample learns from a user statement that fromScore in from is worth
// toScore in to. The ratio is filed under fromScore's bucket.
func (e *Estimator) RecordSample(ctx context.Context, from, to Game, fromScore, toScore int) error {
	if err := validateSample(from, to, fromScore, toScore); err != nil {
		return err
	}
	factor := float64(toScore) / float64(fromScore)

	e.mu.Lock()
	defer e.mu.Unlock()

	row, ok := e.learned[from]
	if !ok {
		row = make(map[Game]*LearningData)
		e.learned[from] = row
	}
	d, ok := row[to]
	if !ok {
		d = &LearningData{}
		row[to] = d
	}
	d.Add(BucketFor(fromScore), factor)

	e.persist(ctx)
	return nil
}

func validateSample(from, to Game, fromScore, toScore int) error {
	invalid := func(reason string) error {
		return &InvalidSampleError{From: from, To: to, FromScore: fromScore, ToScore: toScore, Reason: reason}
	}
	switch {
	case from == "" || to == "":
		return invalid("game is required")
	case from == to:
		return invalid("source and target game are the same")
	case fromScore == 0:
		return invalid("source score must be non-zero")
	case fromScore < 0 || toScore < 0:
		return invalid("scores must not be negative")
	}
	return nil
}

// Lookup returns the factor for score along with its source.
func (e *Estimator) Lookup(from, to Game, score int) (float64, Source) {
	b := BucketFor(score)

	e.mu.RLock()
	d := e.learned[from][to]
	var mean float64
	var ok bool
	if d != nil {
		mean, ok = d.Mean(b)
	}
	e.mu.RUnlock()

	if ok {
		return mean, SourceLearned
	}
	if f, found := e.table.Lookup(from, to); found {
		return f.ForBucket(b), SourceDefault
	}
	return 1.0, SourceIdentity
}

// Factor returns the ratio for converting score from one game to another.
func (e *Estimator) Factor(from, to Game, score int) float64 {
	f, _ := e.Lookup(from, to, score)
	return f
}

// Convert returns floor(score * Factor(from, to, score)).
func (e *Estimator) Convert(from, to Game, score int) int {
	return Apply(score, e.Factor(from, to, score))
}

// SampleCount returns the number of samples recorded for the pair across
// all buckets.
func (e *Estimator) SampleCount(from, to Game) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d := e.learned[from][to]
	if d == nil {
		return 0
	}
	return d.Total()
}

// Learned returns a copy of all learned data.
func (e *Estimator) Learned() LearnedFactors {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.learned.Clone()
}

// ResetAll discards every learned sample.
func (e *Estimator) ResetAll(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.learned = make(LearnedFactors)
	e.persist(ctx)
}

// ResetPair discards learned samples for one ordered pair only.
func (e *Estimator) ResetPair(ctx context.Context, from, to Game) {
	e.mu.Lock()
	defer e.mu.Unlock()
	row, ok := e.learned[from]
	if !ok {
		return
	}
	delete(row, to)
	if len(row) == 0 {
		delete(e.learned, from)
	}
	e.persist(ctx)
}
