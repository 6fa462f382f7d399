package scaling

import "sort"

// Table is an immutable matrix of default conversion factors keyed by
// (from, to). Pairs are directional; A→B need not be the reciprocal of B→A.
type Table struct {
	factors map[Game]map[Game]Factor
}

// NewTable builds a Table from a nested factor map. Self-pairs are dropped
// and the input is copied so later mutation of m has no effect.
func NewTable(m map[Game]map[Game]Factor) *Table {
	t := &Table{factors: make(map[Game]map[Game]Factor, len(m))}
	for from, row := range m {
		r := make(map[Game]Factor, len(row))
		for to, f := range row {
			if from == to || f == nil {
				continue
			}
			r[to] = f
		}
		t.factors[from] = r
	}
	return t
}

// Lookup returns the stored factor for the ordered pair.
func (t *Table) Lookup(from, to Game) (Factor, bool) {
	f, ok := t.factors[from][to]
	return f, ok
}

// Factor returns the ratio for converting score from one game to another.
// Unknown pairs, including self-pairs, return 1.0.
func (t *Table) Factor(from, to Game, score int) float64 {
	f, ok := t.Lookup(from, to)
	if !ok {
		return 1.0
	}
	return FactorAt(f, score)
}

// Convert returns floor(score * Factor(from, to, score)).
func (t *Table) Convert(from, to Game, score int) int {
	return Apply(score, t.Factor(from, to, score))
}

// Games returns every game that has a row, sorted by name.
func (t *Table) Games() []Game {
	games := make([]Game, 0, len(t.factors))
	for g := range t.factors {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i] < games[j] })
	return games
}

// Row returns a copy of the factors from a single game.
func (t *Table) Row(from Game) map[Game]Factor {
	row := make(map[Game]Factor, len(t.factors[from]))
	for to, f := range t.factors[from] {
		row[to] = f
	}
	return row
}

var defaultTable = NewTable(map[Game]map[Game]Factor{
	NESTetris: {
		GameBoyTetris:       Scalar(0.75),
		TetrisDX:            Scalar(0.75),
		TetrisDS:            Bucketed{3.0, 3.3, 4.5},
		TetrisEffect:        Bucketed{2.5, 3.8, 4.5},
		RosyRetrospectionDX: Bucketed{4.0, 1.5, 1.8},
		Apotris:             Bucketed{1.8, 3.8, 4.4},
	},
	GameBoyTetris: {
		NESTetris:           Scalar(1.33),
		TetrisDX:            Scalar(1.1),
		TetrisDS:            Bucketed{4.0, 2.0, 2.0},
		TetrisEffect:        Bucketed{4.0, 2.3, 2.3},
		RosyRetrospectionDX: Scalar(1.1),
		Apotris:             Bucketed{1.33, 1.33, 2.33},
	},
	TetrisDX: {
		NESTetris:           Scalar(1.33),
		GameBoyTetris:       Scalar(0.91),
		TetrisDS:            Bucketed{4.0, 2.0, 2.0},
		TetrisEffect:        Bucketed{4.0, 2.3, 2.3},
		RosyRetrospectionDX: Scalar(1.1),
		Apotris:             Bucketed{1.33, 1.33, 2.33},
	},
	TetrisDS: {
		NESTetris:           Bucketed{0.33, 0.3, 0.22},
		GameBoyTetris:       Bucketed{0.25, 0.5, 0.5},
		TetrisDX:            Bucketed{0.25, 0.5, 0.5},
		TetrisEffect:        Bucketed{0.83, 0.91, 1.0},
		RosyRetrospectionDX: Bucketed{0.25, 0.91, 0.67},
		Apotris:             Bucketed{0.33, 0.67, 0.9},
	},
	TetrisEffect: {
		NESTetris:           Bucketed{0.4, 0.26, 0.22},
		GameBoyTetris:       Bucketed{0.25, 0.43, 0.43},
		TetrisDX:            Bucketed{0.25, 0.43, 0.43},
		TetrisDS:            Bucketed{1.2, 1.1, 1.0},
		RosyRetrospectionDX: Bucketed{0.25, 0.43, 0.57},
		Apotris:             Bucketed{0.33, 0.67, 0.85},
	},
	RosyRetrospectionDX: {
		NESTetris:     Bucketed{0.25, 0.67, 0.57},
		GameBoyTetris: Scalar(0.91),
		TetrisDX:      Scalar(0.91),
		TetrisDS:      Bucketed{4.0, 1.5, 1.8},
		TetrisEffect:  Bucketed{4.0, 2.3, 1.8},
		Apotris:       Bucketed{1.1, 0.67, 0.5},
	},
	Apotris: {
		NESTetris:           Bucketed{0.56, 0.26, 0.23},
		GameBoyTetris:       Bucketed{0.75, 0.75, 0.5},
		TetrisDX:            Bucketed{0.75, 0.75, 0.5},
		TetrisDS:            Bucketed{3.0, 1.5, 1.0},
		TetrisEffect:        Bucketed{3.0, 1.7, 1.2},
		RosyRetrospectionDX: Bucketed{1.1, 0.67, 0.5},
	},
})

// DefaultTable returns the built-in conversion table.
func DefaultTable() *Table {
	return defaultTable
}
