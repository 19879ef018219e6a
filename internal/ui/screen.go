package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// ClearMode selects the region erased by Screen.Clear.
type ClearMode int

const (
	// ClearCurrentLine erases the row under the cursor.
	ClearCurrentLine ClearMode = iota
	// ClearFromCursorUp erases every row above the cursor and the cursor row up to and
	// including the cursor column.
	ClearFromCursorUp
	// ClearAll erases the whole screen.
	ClearAll
)

// Screen is the terminal surface the viewport draws on.
type Screen interface {
	Size() (width, height int)
	MoveTo(x, y int)
	Clear(mode ClearMode)
	// Print writes text at the cursor, replacing whatever the row held from there on,
	// and advances the cursor past it.
	Print(text string, style lipgloss.Style)
}

// Canvas is an in-memory Screen whose rows are composed into the program view.
type Canvas struct {
	width, height int
	x, y          int
	rows          []string
}

// NewCanvas returns a blank canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// Resize changes the canvas size and blanks it.
func (c *Canvas) Resize(width, height int) {
	c.width = max(width, 0)
	c.height = max(height, 0)
	c.rows = make([]string, c.height)
	c.x, c.y = 0, 0
}

func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

func (c *Canvas) MoveTo(x, y int) {
	c.x = max(x, 0)
	c.y = max(y, 0)
}

func (c *Canvas) Clear(mode ClearMode) {
	switch mode {
	case ClearCurrentLine:
		if c.y < c.height {
			c.rows[c.y] = ""
		}

	case ClearFromCursorUp:
		for y := 0; y < c.y && y < c.height; y++ {
			c.rows[y] = ""
		}
		if c.y < c.height {
			row := c.rows[c.y]
			if ansi.StringWidth(row) <= c.x+1 {
				c.rows[c.y] = ""
			} else {
				c.rows[c.y] = strings.Repeat(" ", c.x+1) + dropColumns(ansi.Strip(row), c.x+1)
			}
		}

	case ClearAll:
		clear(c.rows)
	}
}

func (c *Canvas) Print(text string, style lipgloss.Style) {
	if c.y >= c.height || c.x >= c.width {
		return
	}

	row := c.rows[c.y]
	if w := ansi.StringWidth(row); w < c.x {
		row += strings.Repeat(" ", c.x-w)
	} else {
		row = ansi.Truncate(row, c.x, "")
	}

	c.rows[c.y] = ansi.Truncate(row+style.Render(text), c.width, "")
	c.x += ansi.StringWidth(text)
}

// dropColumns removes the leading n display columns of the plain string s.
func dropColumns(s string, n int) string {
	w := 0
	for i, r := range s {
		if w >= n {
			return s[i:]
		}
		w += runewidth.RuneWidth(r)
	}
	return ""
}

// Row returns the content of row y.
func (c *Canvas) Row(y int) string {
	if y < 0 || y >= c.height {
		return ""
	}
	return c.rows[y]
}

// String renders every row, separated by newlines.
func (c *Canvas) String() string {
	return strings.Join(c.rows, "\n")
}
