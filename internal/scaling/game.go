package scaling

import "strings"

// Game identifies a Tetris release by its display name.
type Game string

const (
	NESTetris           Game = "NES Tetris"
	GameBoyTetris       Game = "Game Boy Tetris"
	TetrisDX            Game = "Tetris DX"
	TetrisDS            Game = "Tetris DS"
	TetrisEffect        Game = "Tetris Effect"
	RosyRetrospectionDX Game = "Rosy Retrospection DX"
	Apotris             Game = "Apotris"
	ModretroTetris      Game = "Modretro Tetris"
	TetrisMobile        Game = "Tetris Mobile"
)

// AllGames returns every selectable game in display order.
// Modretro Tetris and Tetris Mobile have no default factors yet and convert
// through the identity fallback until learned data exists.
func AllGames() []Game {
	return []Game{
		NESTetris,
		GameBoyTetris,
		TetrisDX,
		TetrisDS,
		TetrisEffect,
		RosyRetrospectionDX,
		Apotris,
		ModretroTetris,
		TetrisMobile,
	}
}

// ParseGame validates a game name. Matching ignores case and surrounding
// whitespace.
func ParseGame(s string) (Game, error) {
	name := strings.TrimSpace(s)
	for _, g := range AllGames() {
		if strings.EqualFold(string(g), name) {
			return g, nil
		}
	}
	return "", &UnknownGameError{Name: s}
}
