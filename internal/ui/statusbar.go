package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/vidyasagar/gsurf/internal/theme"
)

// StatusBar shows the current page and fetch state on the last screen row.
type StatusBar struct {
	url      string
	title    string
	spinner  string
	message  string
	position string
	width    int
}

// NewStatusBar creates a new status bar.
func NewStatusBar() StatusBar {
	return StatusBar{}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetURL updates the displayed URL.
func (s *StatusBar) SetURL(url string) {
	s.url = url
}

// SetTitle updates the page title.
func (s *StatusBar) SetTitle(title string) {
	s.title = title
}

// SetLoading shows frame as a loading indicator; an empty frame hides it.
func (s *StatusBar) SetLoading(frame string) {
	s.spinner = frame
}

// SetMessage sets a message shown in place of the title, such as a status banner.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
}

// SetPosition shows the cursor line out of the total.
func (s *StatusBar) SetPosition(cursor, lines int) {
	if lines == 0 {
		s.position = ""
		return
	}
	s.position = fmt.Sprintf("%d/%d", cursor+1, lines)
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	base := lipgloss.NewStyle().
		Foreground(t.StatusFg).
		Background(t.Surface)

	var left string
	if s.spinner != "" {
		left = base.Foreground(t.Accent).Padding(0, 1).Render(s.spinner + " Loading " + s.url)
	} else {
		left = base.Bold(true).Padding(0, 1).Render(s.url)
	}

	var middle string
	switch {
	case s.message != "":
		middle = base.Foreground(t.Accent).Padding(0, 1).Render(s.message)
	case s.title != "":
		middle = base.Foreground(t.StatusDim).Padding(0, 1).Render(s.title)
	}

	right := base.Foreground(t.StatusDim).Padding(0, 1).Render(s.position)

	spacerWidth := s.width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := base.Render(strings.Repeat(" ", spacerWidth))

	return ansi.Truncate(left+middle+spacer+right, s.width, "…")
}
