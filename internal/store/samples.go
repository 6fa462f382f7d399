package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/accidentalproductions/tetristats/internal/analyzer"
	"github.com/accidentalproductions/tetristats/internal/scaling"
)

// SampleRepo persists the analyzer working set between CLI runs.
type SampleRepo interface {
	// Add appends samples in order.
	Add(ctx context.Context, samples ...analyzer.Sample) error

	// All returns the working set in insertion order.
	All(ctx context.Context) ([]analyzer.Sample, error)

	// Clear empties the working set.
	Clear(ctx context.Context) error
}

type sampleRepo struct {
	db *sql.DB
	b  *entsql.DialectBuilder
}

func (r *sampleRepo) Add(ctx context.Context, samples ...analyzer.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	ins := r.b.Insert(SamplesTable).Columns("game", "score", "level", "skill_level", "notes")
	for _, s := range samples {
		if err := samplesTable.validate(map[string]any{"game": string(s.Game)}); err != nil {
			return fmt.Errorf("add samples: %w", err)
		}
		ins.Values(string(s.Game), s.Score, s.Level, s.SkillLevel, s.Notes)
	}
	query, args := ins.Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add samples: %w", err)
	}
	return nil
}

func (r *sampleRepo) All(ctx context.Context) ([]analyzer.Sample, error) {
	query, args := r.b.Select("game", "score", "level", "skill_level", "notes").
		From(r.b.Table(SamplesTable)).
		OrderBy(entsql.Asc("id")).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []analyzer.Sample
	for rows.Next() {
		var (
			s     analyzer.Sample
			game  string
			notes sql.NullString
		)
		if err := rows.Scan(&game, &s.Score, &s.Level, &s.SkillLevel, &notes); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.Game = scaling.Game(game)
		s.Notes = notes.String
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (r *sampleRepo) Clear(ctx context.Context) error {
	query, args := r.b.Delete(SamplesTable).Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear samples: %w", err)
	}
	return nil
}
