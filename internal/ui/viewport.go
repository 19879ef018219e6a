package ui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vidyasagar/gsurf/internal/gemtext"
	"github.com/vidyasagar/gsurf/internal/theme"
	"github.com/vidyasagar/gsurf/internal/wrap"
)

const (
	// leftMargin is the column rows are drawn from.
	leftMargin = 2
	// wrapCacheSize bounds the number of widths a document stays wrapped at.
	wrapCacheSize = 8
)

// Outcome is what the viewport asks of the application after an event.
type Outcome struct {
	// Command is set when the event requests navigation or exit.
	Command *Command
	// ReadCommand asks for a command line to be read.
	ReadCommand bool
	// Notice is a short message for the status bar.
	Notice string
}

// Viewport shows a document one screen of wrapped lines at a time, with a line cursor.
// It draws on its Screen as its state changes and only repaints rows that changed.
type Viewport struct {
	screen Screen
	keys   KeyMap

	source  gemtext.Document
	wrapped wrap.Document
	cache   *lru.Cache[int, wrap.Document]

	width, height    int
	yscroll, ycursor int
	cmdError         bool

	drawnScroll, drawnCursor int
	stale                    bool

	// copy places text on the system clipboard.
	copy func(string) error
}

// NewViewport wraps doc for a w by h terminal, draws it on screen and places the cursor
// on the first line. The screen is expected to leave the terminal's last row free.
func NewViewport(screen Screen, doc gemtext.Document, w, h int) *Viewport {
	cache, _ := lru.New[int, wrap.Document](wrapCacheSize)

	v := &Viewport{
		screen: screen,
		keys:   DefaultKeyMap(),
		source: doc,
		cache:  cache,
		copy:   clipboard.WriteAll,
	}

	v.setSize(w, h)
	v.wrapped = v.wrap()
	v.stale = true
	v.Draw()

	return v
}

func (v *Viewport) setSize(w, h int) {
	v.width = max(w-4, wrap.MinWidth)
	v.height = max(h-2, 1)
}

func (v *Viewport) wrap() wrap.Document {
	if doc, ok := v.cache.Get(v.width); ok {
		return doc
	}
	doc := wrap.Wrap(v.source, v.width)
	v.cache.Add(v.width, doc)
	return doc
}

// Position returns the cursor line and the number of wrapped lines.
func (v *Viewport) Position() (cursor, lines int) {
	return v.ycursor, len(v.wrapped)
}

// Scroll returns the first visible wrapped line.
func (v *Viewport) Scroll() int {
	return v.yscroll
}

// Update handles a key, mouse or resize event.
func (v *Viewport) Update(msg tea.Msg) Outcome {
	var out Outcome

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.cmdError {
			v.clearCommandError()
		}
		out = v.key(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			break
		}
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			v.Down()
		case tea.MouseButtonWheelUp:
			v.Up()
		}

	case tea.WindowSizeMsg:
		v.Resize(msg.Width, msg.Height)
	}

	v.Draw()
	return out
}

func (v *Viewport) key(msg tea.KeyMsg) Outcome {
	switch {
	case key.Matches(msg, v.keys.Quit):
		cmd := Exit()
		return Outcome{Command: &cmd}

	case key.Matches(msg, v.keys.Down):
		v.Down()

	case key.Matches(msg, v.keys.Up):
		v.Up()

	case key.Matches(msg, v.keys.Command):
		return Outcome{ReadCommand: true}

	case key.Matches(msg, v.keys.Follow):
		if target, ok := v.link(); ok {
			cmd := TryLoad(target)
			return Outcome{Command: &cmd}
		}

	case key.Matches(msg, v.keys.Yank):
		target, ok := v.link()
		if !ok {
			break
		}
		if err := v.copy(target); err != nil {
			v.SetCommandError("copy failed: " + err.Error())
			break
		}
		return Outcome{Notice: "Copied " + target}
	}

	return Outcome{}
}

// link returns the URL of the link under the cursor.
func (v *Viewport) link() (string, bool) {
	if v.ycursor >= len(v.wrapped) {
		return "", false
	}
	l := v.wrapped[v.ycursor]
	if !l.IsLink() {
		return "", false
	}
	return l.URL, true
}

// Down moves the cursor one line down, scrolling when it leaves the window.
func (v *Viewport) Down() {
	if len(v.wrapped) == 0 {
		return
	}
	v.ycursor = min(v.ycursor+1, len(v.wrapped)-1)
	if v.ycursor >= v.yscroll+v.height {
		v.yscroll = min(v.yscroll+1, len(v.wrapped)-1)
	}
}

// Up moves the cursor one line up, scrolling when it leaves the window.
func (v *Viewport) Up() {
	if len(v.wrapped) == 0 {
		return
	}
	v.ycursor = max(v.ycursor-1, 0)
	if v.ycursor < v.yscroll {
		v.yscroll = max(v.yscroll-1, 0)
	}
}

// Resize rewraps the document for a w by h terminal, keeping the same fraction of it
// scrolled past.
func (v *Viewport) Resize(w, h int) {
	oldLen := len(v.wrapped)

	v.setSize(w, h)
	v.wrapped = v.wrap()
	v.stale = true

	n := len(v.wrapped)
	if n == 0 || oldLen == 0 {
		v.yscroll, v.ycursor = 0, 0
		return
	}

	v.yscroll = min(v.yscroll*n/oldLen, n-1)
	v.ycursor = min(v.ycursor*n/oldLen, n-1)
	v.ycursor = max(v.ycursor, v.yscroll)
	v.ycursor = min(v.ycursor, v.yscroll+v.height-1)
}

// SetCommandError shows msg on the command line until the next key press.
func (v *Viewport) SetCommandError(msg string) {
	v.screen.MoveTo(0, v.height)
	v.screen.Clear(ClearCurrentLine)
	v.screen.Print(msg, lipgloss.NewStyle().Foreground(theme.Current.Error))
	v.cmdError = true
}

// HasCommandError reports whether an error is being shown.
func (v *Viewport) HasCommandError() bool {
	return v.cmdError
}

func (v *Viewport) clearCommandError() {
	v.screen.MoveTo(0, v.height)
	v.screen.Clear(ClearCurrentLine)
	v.cmdError = false
}

// Draw repaints what changed since the previous call: the whole window after a scroll
// or resize, only the old and new cursor rows after a cursor move.
func (v *Viewport) Draw() {
	switch {
	case v.stale || v.yscroll != v.drawnScroll:
		v.screen.MoveTo(v.width, v.height-1)
		v.screen.Clear(ClearFromCursorUp)
		for row := 0; row < v.height && v.yscroll+row < len(v.wrapped); row++ {
			v.drawRow(row)
		}

	case v.ycursor != v.drawnCursor:
		v.drawRow(v.drawnCursor - v.yscroll)
		v.drawRow(v.ycursor - v.yscroll)
	}

	v.drawnScroll = v.yscroll
	v.drawnCursor = v.ycursor
	v.stale = false
}

func (v *Viewport) drawRow(row int) {
	i := v.yscroll + row
	if row < 0 || row >= v.height || i >= len(v.wrapped) {
		return
	}

	text, style := decorate(v.wrapped[i])

	v.screen.MoveTo(0, row)
	v.screen.Clear(ClearCurrentLine)

	if i != v.ycursor {
		v.screen.MoveTo(leftMargin, row)
		v.screen.Print(text, style)
		return
	}

	text = strings.Repeat(" ", leftMargin) + text
	if pad := v.width + 4 - ansi.StringWidth(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	v.screen.Print(text, style.Background(theme.Current.Cursor))
}

// decorate returns a wrapped line as drawn, prefix included, with its style.
func decorate(l wrap.Line) (string, lipgloss.Style) {
	t := theme.Current
	style := lipgloss.NewStyle()

	switch l.Kind {
	case gemtext.LineH1:
		return prefix(l, "# ") + l.Text, style.Foreground(t.H1)
	case gemtext.LineH2:
		return prefix(l, "## ") + l.Text, style.Foreground(t.H2)
	case gemtext.LineH3:
		return prefix(l, "### ") + l.Text, style.Foreground(t.H3)
	case gemtext.LineList:
		return prefix(l, "• ") + l.Text, style.Foreground(t.Text)
	case gemtext.LineQuote:
		return "> " + l.Text, style.Foreground(t.Quote)
	case gemtext.LineNamedLink:
		return prefix(l, "→ ") + l.Text, style.Foreground(t.Link)
	case gemtext.LineBareLink:
		return "→ " + l.URL, style.Foreground(t.Link)
	case gemtext.LinePre:
		return l.Text, style.Foreground(t.Pre)
	default:
		return l.Text, style.Foreground(t.Text)
	}
}

// prefix returns p on the first row of a block and blanks of the same width after it.
func prefix(l wrap.Line, p string) string {
	if l.First {
		return p
	}
	return strings.Repeat(" ", ansi.StringWidth(p))
}
