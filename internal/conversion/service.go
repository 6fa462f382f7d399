// Package conversion turns a score in one game into equivalent scores in the
// other games a player has logged, using the scaling estimator.
package conversion

import (
	"context"
	"fmt"

	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/store"
)

// Conversions are shown once this many scores exist across MinGames games.
const (
	MinScores = 3
	MinGames  = 2
)

// Estimator is the part of scaling.Estimator the service needs.
type Estimator interface {
	Factor(from, to scaling.Game, score int) float64
	SampleCount(from, to scaling.Game) int
	RecordSample(ctx context.Context, from, to scaling.Game, fromScore, toScore int) error
}

// ScoreStore is the part of store.ScoreRepo the service needs.
type ScoreStore interface {
	Insert(ctx context.Context, s *store.Score) error
	Count(ctx context.Context) (int, error)
	Games(ctx context.Context) ([]scaling.Game, error)
}

// Equivalent is a converted score in one target game.
type Equivalent struct {
	Game              scaling.Game `json:"game"`
	Score             int          `json:"score"`
	SampleCount       int          `json:"sampleCount"`
	UsesLearnedFactor bool         `json:"usesLearnedFactor"`
}

// Result is what Submit reports back after storing a score.
type Result struct {
	Score           store.Score  `json:"score"`
	ShowConversions bool         `json:"showConversions"`
	Equivalents     []Equivalent `json:"equivalents,omitempty"`
}

// Service orchestrates score entry, conversion and feedback.
type Service struct {
	est    Estimator
	scores ScoreStore
}

// NewService creates a Service.
func NewService(est Estimator, scores ScoreStore) *Service {
	return &Service{est: est, scores: scores}
}

// ConvertForAllPlayedGames converts score from the given game into every
// other game in played. The result is rebuilt on every call.
func (s *Service) ConvertForAllPlayedGames(from scaling.Game, score int, played []scaling.Game) []Equivalent {
	out := make([]Equivalent, 0, len(played))
	for _, to := range played {
		if to == from {
			continue
		}
		n := s.est.SampleCount(from, to)
		out = append(out, Equivalent{
			Game:              to,
			Score:             scaling.Apply(score, s.est.Factor(from, to, score)),
			SampleCount:       n,
			UsesLearnedFactor: n > 0,
		})
	}
	return out
}

// ShouldShowConversions reports whether enough history exists for
// conversions to be meaningful.
func ShouldShowConversions(totalScores, gamesPlayed int) bool {
	return totalScores >= MinScores && gamesPlayed >= MinGames
}

// Submit stores a score and, when the display criteria hold, returns its
// equivalents in every played game.
func (s *Service) Submit(ctx context.Context, sc store.Score) (*Result, error) {
	g, err := scaling.ParseGame(string(sc.Game))
	if err != nil {
		return nil, err
	}
	sc.Game = g
	if sc.Score < 0 {
		return nil, fmt.Errorf("submit score: negative score %d", sc.Score)
	}
	if err := s.scores.Insert(ctx, &sc); err != nil {
		return nil, fmt.Errorf("submit score: %w", err)
	}

	res := &Result{Score: sc}
	eq, show, err := s.Equivalents(ctx, sc.Game, sc.Score)
	if err != nil {
		return nil, err
	}
	res.ShowConversions = show
	res.Equivalents = eq
	return res, nil
}

// Equivalents converts a score into the played games when the display
// criteria hold. show is false otherwise.
func (s *Service) Equivalents(ctx context.Context, from scaling.Game, score int) (eq []Equivalent, show bool, err error) {
	played, err := s.scores.Games(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load played games: %w", err)
	}
	total, err := s.scores.Count(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("count scores: %w", err)
	}
	if !ShouldShowConversions(total, len(played)) {
		return nil, false, nil
	}
	return s.ConvertForAllPlayedGames(from, score, played), true, nil
}

// AddEquivalentScore records that fromScore in from is worth toScore in to
// and returns the refreshed equivalents for every played game.
func (s *Service) AddEquivalentScore(ctx context.Context, from scaling.Game, fromScore int, to scaling.Game, toScore int) ([]Equivalent, error) {
	if err := s.est.RecordSample(ctx, from, to, fromScore, toScore); err != nil {
		return nil, err
	}
	played, err := s.scores.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("load played games: %w", err)
	}
	return s.ConvertForAllPlayedGames(from, fromScore, played), nil
}
