package ui

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/gsurf/internal/gemtext"
)

type op struct {
	name string
	x, y int
	mode ClearMode
	text string
}

// recorder is a Screen that logs every call.
type recorder struct {
	width, height int
	x, y          int
	ops           []op
}

func (r *recorder) Size() (int, int) { return r.width, r.height }

func (r *recorder) MoveTo(x, y int) {
	r.x, r.y = x, y
	r.ops = append(r.ops, op{name: "move", x: x, y: y})
}

func (r *recorder) Clear(mode ClearMode) {
	r.ops = append(r.ops, op{name: "clear", x: r.x, y: r.y, mode: mode})
}

func (r *recorder) Print(text string, _ lipgloss.Style) {
	r.ops = append(r.ops, op{name: "print", x: r.x, y: r.y, text: text})
}

func (r *recorder) reset() { r.ops = nil }

func (r *recorder) printedRows() []int {
	var rows []int
	for _, o := range r.ops {
		if o.name == "print" {
			rows = append(rows, o.y)
		}
	}
	return rows
}

func (r *recorder) count(mode ClearMode) int {
	n := 0
	for _, o := range r.ops {
		if o.name == "clear" && o.mode == mode {
			n++
		}
	}
	return n
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func textDoc(n int) gemtext.Document {
	doc := make(gemtext.Document, n)
	for i := range doc {
		doc[i] = gemtext.Text(fmt.Sprintf("line %d", i))
	}
	return doc
}

func newViewport(screen Screen, doc gemtext.Document) *Viewport {
	w, h := screen.Size()
	return NewViewport(screen, doc, w, h)
}

func TestViewport_HelloWorld(t *testing.T) {
	canvas := NewCanvas(40, 11)
	v := newViewport(canvas, gemtext.Document{gemtext.H1("Hello"), gemtext.Text("world")})

	assert.Equal(t, "  # Hello", strings.TrimRight(canvas.Row(0), " "))
	assert.Equal(t, "  world", canvas.Row(1))
	assert.Empty(t, canvas.Row(2))

	cursor, lines := v.Position()
	assert.Equal(t, 0, cursor)
	assert.Equal(t, 2, lines)
}

func TestViewport_Prefixes(t *testing.T) {
	canvas := NewCanvas(20, 30)
	doc := gemtext.Document{
		gemtext.Text("top"),
		gemtext.H2("one two three four"),
		gemtext.List("alpha beta gamma delta"),
		gemtext.Quote("to be or not to be"),
		gemtext.NamedLink("gemini://x.example/", "a long link name"),
		gemtext.BareLink("gemini://y.ex/"),
		gemtext.Pre("", "  code"),
	}
	newViewport(canvas, doc)

	var rows []string
	for y := 1; y < 30; y++ {
		if row := canvas.Row(y); row != "" {
			rows = append(rows, row)
		}
	}

	assert.Equal(t, []string{
		"  ## one two three",
		"     four",
		"  • alpha beta",
		"    gamma delta",
		"  > to be or not",
		"  > to be",
		"  → a long link",
		"    name",
		"  → gemini://y.ex/",
		"    code",
	}, rows)
}

func TestViewport_CursorMoveRepaintsTwoRows(t *testing.T) {
	screen := &recorder{width: 40, height: 12}
	v := newViewport(screen, textDoc(30))
	assert.Equal(t, 1, screen.count(ClearFromCursorUp))
	assert.Len(t, screen.printedRows(), 10)

	screen.reset()
	v.Update(keyRune('j'))

	assert.Zero(t, screen.count(ClearFromCursorUp))
	assert.Equal(t, 2, screen.count(ClearCurrentLine))
	assert.Equal(t, []int{0, 1}, screen.printedRows())

	screen.reset()
	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, []int{1, 0}, screen.printedRows())
}

func TestViewport_ScrollRedrawsWindow(t *testing.T) {
	screen := &recorder{width: 40, height: 7}
	v := newViewport(screen, textDoc(30))

	for range 4 {
		v.Update(keyRune('j'))
	}
	assert.Zero(t, v.Scroll())

	screen.reset()
	v.Update(keyRune('j'))

	assert.Equal(t, 1, v.Scroll())
	assert.Equal(t, 1, screen.count(ClearFromCursorUp))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, screen.printedRows())
	assert.Equal(t, op{name: "clear", x: 36, y: 4, mode: ClearFromCursorUp}, screen.ops[1])
}

func TestViewport_NoRepaintWhenNothingMoves(t *testing.T) {
	screen := &recorder{width: 40, height: 12}
	v := newViewport(screen, textDoc(3))

	screen.reset()
	v.Update(keyRune('k'))
	v.Update(keyRune('x'))

	assert.Empty(t, screen.ops)
}

func TestViewport_Invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for range 50 {
		w, h := 4+rng.IntN(80), 3+rng.IntN(40)
		v := newViewport(&recorder{width: w, height: h}, textDoc(rng.IntN(60)))

		for range 200 {
			switch rng.IntN(5) {
			case 0:
				v.Update(keyRune('k'))
			case 1:
				v.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
			case 2:
				v.Update(tea.WindowSizeMsg{Width: 4 + rng.IntN(80), Height: 3 + rng.IntN(40)})
			default:
				v.Update(keyRune('j'))
			}

			cursor, lines := v.Position()
			if lines == 0 {
				assert.Zero(t, cursor)
				assert.Zero(t, v.Scroll())
				continue
			}
			require.LessOrEqual(t, 0, v.Scroll())
			require.LessOrEqual(t, v.Scroll(), cursor)
			require.Less(t, cursor, lines)
			require.Less(t, cursor-v.Scroll(), v.height)
		}
	}
}

func TestViewport_ResizeKeepsFraction(t *testing.T) {
	doc := make(gemtext.Document, 100)
	for i := range doc {
		doc[i] = gemtext.Text("lorem ipsum dolor sit amet consectetur adipiscing elit")
	}

	v := newViewport(&recorder{width: 80, height: 22}, doc)
	for range 150 {
		v.Down()
	}
	_, before := v.Position()
	fraction := float64(v.Scroll()) / float64(before)

	v.Update(tea.WindowSizeMsg{Width: 30, Height: 22})

	_, after := v.Position()
	assert.Greater(t, after, before)
	assert.InDelta(t, fraction*float64(after), float64(v.Scroll()), 1)
}

func TestViewport_EmptyDocument(t *testing.T) {
	v := newViewport(&recorder{width: 40, height: 10}, nil)

	v.Update(keyRune('j'))
	v.Update(keyRune('k'))
	assert.Equal(t, Outcome{}, v.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	cursor, lines := v.Position()
	assert.Zero(t, cursor)
	assert.Zero(t, lines)
}

func TestViewport_Events(t *testing.T) {
	doc := gemtext.Document{
		gemtext.Text("intro"),
		gemtext.NamedLink("/next", "Next"),
		gemtext.BareLink("gemini://other.example/"),
	}
	v := newViewport(&recorder{width: 40, height: 10}, doc)

	assert.Equal(t, Outcome{}, v.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	v.Update(keyRune('j'))
	out := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, out.Command)
	assert.Equal(t, TryLoad("/next"), *out.Command)

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	out = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, out.Command)
	assert.Equal(t, TryLoad("gemini://other.example/"), *out.Command)

	assert.Equal(t, Outcome{ReadCommand: true}, v.Update(keyRune(':')))

	exit := Exit()
	assert.Equal(t, Outcome{Command: &exit}, v.Update(keyRune('q')))
	assert.Equal(t, Outcome{Command: &exit}, v.Update(tea.KeyMsg{Type: tea.KeyCtrlC}))
}

func TestViewport_Yank(t *testing.T) {
	v := newViewport(&recorder{width: 40, height: 10}, gemtext.Document{gemtext.BareLink("gemini://x.example/")})

	var copied string
	v.copy = func(s string) error {
		copied = s
		return nil
	}

	out := v.Update(keyRune('y'))
	assert.Equal(t, "gemini://x.example/", copied)
	assert.Equal(t, "Copied gemini://x.example/", out.Notice)

	v.copy = func(string) error { return errors.New("no clipboard") }
	v.Update(keyRune('y'))
	assert.True(t, v.HasCommandError())
}

func TestViewport_CommandErrorClearedByKey(t *testing.T) {
	canvas := NewCanvas(40, 11)
	v := newViewport(canvas, textDoc(3))

	v.SetCommandError("unknown command")
	assert.True(t, v.HasCommandError())
	assert.Equal(t, "unknown command", canvas.Row(9))

	v.Update(tea.WindowSizeMsg{Width: 40, Height: 11})
	assert.True(t, v.HasCommandError())

	v.Update(keyRune('x'))
	assert.False(t, v.HasCommandError())
	assert.Empty(t, canvas.Row(9))
}

func TestViewport_WrapCache(t *testing.T) {
	v := newViewport(&recorder{width: 40, height: 10}, textDoc(5))
	first := v.wrapped

	v.Resize(60, 10)
	v.Resize(40, 10)

	assert.Same(t, &first[0], &v.wrapped[0])
}
