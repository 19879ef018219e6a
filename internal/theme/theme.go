// Package theme holds the colour palettes used to draw documents.
package theme

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name string

	// Document line colors
	Text  lipgloss.TerminalColor
	H1    lipgloss.Color
	H2    lipgloss.Color
	H3    lipgloss.Color
	Link  lipgloss.Color
	Quote lipgloss.Color
	Pre   lipgloss.Color

	Cursor lipgloss.Color

	// Bars
	Error     lipgloss.Color
	Surface   lipgloss.Color
	StatusFg  lipgloss.Color
	StatusDim lipgloss.Color
	Accent    lipgloss.Color
}

var themes = map[string]Theme{
	"default": Default,
	"gruvbox": Gruvbox,
}

// Default uses the terminal's own ANSI palette.
var Default = Theme{
	Name:      "default",
	Text:      lipgloss.NoColor{},
	H1:        lipgloss.Color("1"),
	H2:        lipgloss.Color("3"),
	H3:        lipgloss.Color("6"),
	Link:      lipgloss.Color("5"),
	Quote:     lipgloss.Color("7"),
	Pre:       lipgloss.Color("1"),
	Cursor:    lipgloss.Color("0"),
	Error:     lipgloss.Color("1"),
	Surface:   lipgloss.Color("0"),
	StatusFg:  lipgloss.Color("7"),
	StatusDim: lipgloss.Color("8"),
	Accent:    lipgloss.Color("3"),
}

var Gruvbox = Theme{
	Name:      "gruvbox",
	Text:      lipgloss.Color("#EBDBB2"),
	H1:        lipgloss.Color("#FB4934"),
	H2:        lipgloss.Color("#FABD2F"),
	H3:        lipgloss.Color("#8EC07C"),
	Link:      lipgloss.Color("#D3869B"),
	Quote:     lipgloss.Color("#FBF1C7"),
	Pre:       lipgloss.Color("#FB4934"),
	Cursor:    lipgloss.Color("#1D2021"),
	Error:     lipgloss.Color("#FB4934"),
	Surface:   lipgloss.Color("#3C3836"),
	StatusFg:  lipgloss.Color("#EBDBB2"),
	StatusDim: lipgloss.Color("#928374"),
	Accent:    lipgloss.Color("#D79921"),
}

// Current is the active theme.
var Current = Default

// Set changes the active theme by name.
func Set(name string) bool {
	if t, ok := themes[name]; ok {
		Current = t
		return true
	}
	return false
}

// List returns all available theme names, sorted.
func List() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
