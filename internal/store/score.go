package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/accidentalproductions/tetristats/internal/scaling"
)

// Score is one logged game result.
type Score struct {
	ID           int          `json:"id"`
	Game         scaling.Game `json:"game"`
	Score        int          `json:"score"`
	StartLevel   *int         `json:"startLevel,omitempty"`
	EndLevel     *int         `json:"endLevel,omitempty"`
	LinesCleared *int         `json:"linesCleared,omitempty"`
	DateRecorded time.Time    `json:"dateRecorded"`
	MediaPath    string       `json:"mediaPath,omitempty"`
}

// ScoreRepo manages logged scores.
type ScoreRepo interface {
	// Insert stores s and sets s.ID. A non-zero ID replaces any row with
	// that id, which is how a deleted score is restored.
	Insert(ctx context.Context, s *Score) error

	// Get returns the score with id, or ErrNotFound.
	Get(ctx context.Context, id int) (*Score, error)

	// Delete removes the score with id, or returns ErrNotFound.
	Delete(ctx context.Context, id int) error

	// DeleteAll removes every score.
	DeleteAll(ctx context.Context) error

	// All returns every score, newest first.
	All(ctx context.Context) ([]Score, error)

	// ByGame returns the scores of one game, oldest first.
	ByGame(ctx context.Context, game scaling.Game) ([]Score, error)

	// Games returns the distinct games that have at least one score.
	Games(ctx context.Context) ([]scaling.Game, error)

	// Count returns the total number of scores.
	Count(ctx context.Context) (int, error)

	// Average returns the mean score of a game; ok is false when the game
	// has no scores.
	Average(ctx context.Context, game scaling.Game) (avg float64, ok bool, err error)

	// HighScore returns the best score of a game; ok is false when the game
	// has no scores.
	HighScore(ctx context.Context, game scaling.Game) (high int, ok bool, err error)

	// SetMedia attaches a media path to a score. An empty path detaches it.
	SetMedia(ctx context.Context, id int, path string) error
}

var scoreColumns = []string{
	"id", "date_recorded", "game", "score",
	"start_level", "end_level", "lines_cleared", "media_path",
}

// scoreRepo implements ScoreRepo with ent's SQL builder.
type scoreRepo struct {
	db *sql.DB
	b  *entsql.DialectBuilder
}

func (r *scoreRepo) Insert(ctx context.Context, s *Score) error {
	if s.DateRecorded.IsZero() {
		s.DateRecorded = time.Now()
	}
	values := map[string]any{
		"date_recorded": s.DateRecorded.UnixMilli(),
		"game":          string(s.Game),
		"score":         s.Score,
		"start_level":   nullInt(s.StartLevel),
		"end_level":     nullInt(s.EndLevel),
		"lines_cleared": nullInt(s.LinesCleared),
		"media_path":    nullString(s.MediaPath),
	}
	if err := scoresTable.validate(values); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}

	cols := scoreColumns[1:]
	if s.ID != 0 {
		cols = scoreColumns
		values["id"] = s.ID
	}
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = values[c]
	}

	ins := r.b.Insert(ScoresTable).Columns(cols...).Values(args...).Returning("id")
	if s.ID != 0 {
		ins.OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	}
	query, qargs := ins.Query()
	if err := r.db.QueryRowContext(ctx, query, qargs...).Scan(&s.ID); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (r *scoreRepo) Get(ctx context.Context, id int) (*Score, error) {
	query, args := r.selectScores().Where(entsql.EQ("id", id)).Query()
	scores, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("get score %d: %w", id, err)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("get score %d: %w", id, ErrNotFound)
	}
	return &scores[0], nil
}

func (r *scoreRepo) Delete(ctx context.Context, id int) error {
	query, args := r.b.Delete(ScoresTable).Where(entsql.EQ("id", id)).Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete score %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete score %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *scoreRepo) DeleteAll(ctx context.Context) error {
	query, args := r.b.Delete(ScoresTable).Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	return nil
}

func (r *scoreRepo) All(ctx context.Context) ([]Score, error) {
	query, args := r.selectScores().
		OrderBy(entsql.Desc("date_recorded"), entsql.Desc("id")).
		Query()
	scores, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

func (r *scoreRepo) ByGame(ctx context.Context, game scaling.Game) ([]Score, error) {
	query, args := r.selectScores().
		Where(entsql.EQ("game", string(game))).
		OrderBy(entsql.Asc("date_recorded"), entsql.Asc("id")).
		Query()
	scores, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("list scores for %s: %w", game, err)
	}
	return scores, nil
}

func (r *scoreRepo) Games(ctx context.Context) ([]scaling.Game, error) {
	query, args := r.b.Select("game").
		Distinct().
		From(r.b.Table(ScoresTable)).
		OrderBy("game").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list played games: %w", err)
	}
	defer rows.Close()

	var games []scaling.Game
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan played game: %w", err)
		}
		games = append(games, scaling.Game(g))
	}
	return games, rows.Err()
}

func (r *scoreRepo) Count(ctx context.Context) (int, error) {
	query, args := r.b.Select(entsql.Count("*")).From(r.b.Table(ScoresTable)).Query()
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return n, nil
}

func (r *scoreRepo) Average(ctx context.Context, game scaling.Game) (float64, bool, error) {
	query, args := r.b.Select(entsql.Avg("score")).
		From(r.b.Table(ScoresTable)).
		Where(entsql.EQ("game", string(game))).
		Query()
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, false, fmt.Errorf("average score for %s: %w", game, err)
	}
	return avg.Float64, avg.Valid, nil
}

func (r *scoreRepo) HighScore(ctx context.Context, game scaling.Game) (int, bool, error) {
	query, args := r.b.Select(entsql.Max("score")).
		From(r.b.Table(ScoresTable)).
		Where(entsql.EQ("game", string(game))).
		Query()
	var high sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&high); err != nil {
		return 0, false, fmt.Errorf("high score for %s: %w", game, err)
	}
	return int(high.Int64), high.Valid, nil
}

func (r *scoreRepo) SetMedia(ctx context.Context, id int, path string) error {
	query, args := r.b.Update(ScoresTable).
		Set("media_path", nullString(path)).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set media for score %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set media for score %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *scoreRepo) selectScores() *entsql.Selector {
	return r.b.Select(scoreColumns...).From(r.b.Table(ScoresTable))
}

func (r *scoreRepo) query(ctx context.Context, query string, args []any) ([]Score, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var (
			s                           Score
			game                        string
			date                        int64
			startLevel, endLevel, lines sql.NullInt64
			media                       sql.NullString
		)
		if err := rows.Scan(&s.ID, &date, &game, &s.Score, &startLevel, &endLevel, &lines, &media); err != nil {
			return nil, err
		}
		s.Game = scaling.Game(game)
		s.DateRecorded = time.UnixMilli(date)
		s.StartLevel = intPtr(startLevel)
		s.EndLevel = intPtr(endLevel)
		s.LinesCleared = intPtr(lines)
		s.MediaPath = media.String
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
