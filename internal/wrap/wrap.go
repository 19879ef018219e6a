// Package wrap breaks parsed gemtext lines into screen lines of a given width.
package wrap

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/vidyasagar/gsurf/internal/gemtext"
)

// MinWidth accommodates the widest line prefix ("### ").
const MinWidth = 4

// Line is one screen line. Its embedded gemtext.Line carries the piece of the source
// payload shown on this row; First is set on the first row of each source block.
type Line struct {
	gemtext.Line
	First bool
}

// Document is a gemtext.Document expanded into screen lines.
type Document []Line

// Wrap expands doc into screen lines no wider than width columns, excluding the prefix
// each variant is drawn with.
func Wrap(doc gemtext.Document, width int) Document {
	if width < MinWidth {
		width = MinWidth
	}

	var out Document
	for _, l := range doc {
		out = wrapLine(out, l, width)
	}
	return out
}

// EffectiveWidth returns the columns left for the payload of a line of kind k.
func EffectiveWidth(k gemtext.Kind, width int) int {
	switch k {
	case gemtext.LineNamedLink, gemtext.LineH2:
		return width - 3
	case gemtext.LineH1, gemtext.LineList, gemtext.LineQuote:
		return width - 2
	case gemtext.LineH3:
		return width - 4
	default:
		return width
	}
}

func wrapLine(out Document, l gemtext.Line, width int) Document {
	switch l.Kind {
	case gemtext.LineBareLink:
		return append(out, Line{Line: l, First: true})

	case gemtext.LinePre:
		first := true
		text := l.Text
		for {
			row, rest, more := strings.Cut(text, "\n")
			piece := l
			piece.Text = strings.TrimSuffix(row, "\r")
			out = append(out, Line{Line: piece, First: first})
			first = false
			if !more {
				return out
			}
			text = rest
		}

	default:
		pieces := Words(l.Text, EffectiveWidth(l.Kind, width))
		if len(pieces) == 0 {
			pieces = []string{l.Text[:0]}
		}
		for i, p := range pieces {
			piece := l
			piece.Text = p
			out = append(out, Line{Line: piece, First: i == 0})
		}
		return out
	}
}

// Words greedily packs the whitespace-separated words of s into pieces of at most width
// columns. A word wider than width gets a piece of its own. Each piece is a slice of s
// running from the start of its first word to the end of its last.
func Words(s string, width int) []string {
	var pieces []string

	start, end := -1, -1
	for i := 0; i < len(s); {
		wordStart := indexNonSpace(s, i)
		if wordStart == -1 {
			break
		}
		wordEnd := indexSpace(s, wordStart)

		if start == -1 {
			start, end = wordStart, wordEnd
		} else if runewidth.StringWidth(s[start:wordEnd]) <= width {
			end = wordEnd
		} else {
			pieces = append(pieces, s[start:end])
			start, end = wordStart, wordEnd
		}

		i = wordEnd
	}

	if start != -1 {
		pieces = append(pieces, s[start:end])
	}
	return pieces
}

func indexNonSpace(s string, from int) int {
	i := strings.IndexFunc(s[from:], func(r rune) bool { return !unicode.IsSpace(r) })
	if i == -1 {
		return -1
	}
	return from + i
}

func indexSpace(s string, from int) int {
	i := strings.IndexFunc(s[from:], unicode.IsSpace)
	if i == -1 {
		return len(s)
	}
	return from + i
}
