package theme

import (
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

// Color palette, borrowed from the tetromino colors.
var (
	Primary   = lipgloss.Color("#A855F7") // T piece purple
	Secondary = lipgloss.Color("#06B6D4") // I piece cyan
	Accent    = lipgloss.Color("#F97316") // L piece orange
	Success   = lipgloss.Color("#22C55E") // S piece green
	Error     = lipgloss.Color("#EF4444") // Z piece red
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Learned = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Default = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Table cells
var (
	HeaderCell = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true).
			Padding(0, 1)

	Cell = lipgloss.NewStyle().
		Padding(0, 1)

	NumberCell = lipgloss.NewStyle().
			Padding(0, 1).
			Align(lipgloss.Right)
)

// Table renders rows under headers with a thin border. Columns listed in
// numeric are right-aligned.
func Table(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return HeaderCell
			case right[col]:
				return NumberCell
			default:
				return Cell
			}
		}).
		String()
}
