package analyzer

import (
	"strings"

	"github.com/accidentalproductions/tetristats/internal/scaling"
)

// Skill levels used when matching samples against the baseline game.
// Matching is exact string equality, so other labels are allowed.
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

// SkillLevels returns the suggested skill labels.
func SkillLevels() []string {
	return []string{SkillBeginner, SkillIntermediate, SkillAdvanced}
}

// Sample is one observed result used for batch analysis.
type Sample struct {
	Game       scaling.Game `json:"game"`
	Score      int          `json:"score"`
	Level      int          `json:"level"`
	SkillLevel string       `json:"skillLevel"`
	Notes      string       `json:"notes,omitempty"`
}

// NormalizeGame returns the canonical name for a known game. Other labels
// are kept as typed, minus surrounding whitespace.
func NormalizeGame(name string) scaling.Game {
	if g, err := scaling.ParseGame(name); err == nil {
		return g
	}
	return scaling.Game(strings.TrimSpace(name))
}
