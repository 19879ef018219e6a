// Package gemtext parses and writes text/gemini documents.
package gemtext

// Kind identifies the variant of a Line.
type Kind int

const (
	LineText Kind = iota
	LineBareLink
	LineNamedLink
	LinePre
	LineH1
	LineH2
	LineH3
	LineList
	LineQuote
)

func (k Kind) String() string {
	switch k {
	case LineText:
		return "Text"
	case LineBareLink:
		return "BareLink"
	case LineNamedLink:
		return "NamedLink"
	case LinePre:
		return "Pre"
	case LineH1:
		return "H1"
	case LineH2:
		return "H2"
	case LineH3:
		return "H3"
	case LineList:
		return "List"
	case LineQuote:
		return "Quote"
	default:
		return "Unknown"
	}
}

// Line is one parsed text/gemini block. Text holds the payload (the name of a NamedLink, the body of a Pre),
// URL is set for links and Alt for preformatted blocks. All fields are substrings of the parsed input.
type Line struct {
	Kind Kind
	Text string
	URL  string
	Alt  string
}

// Document is an ordered sequence of lines.
type Document []Line

func Text(s string) Line { return Line{Kind: LineText, Text: s} }

func BareLink(url string) Line { return Line{Kind: LineBareLink, URL: url} }

func NamedLink(url, name string) Line { return Line{Kind: LineNamedLink, URL: url, Text: name} }

// Pre builds a preformatted block; an empty alt means the fence carried none.
func Pre(alt, text string) Line { return Line{Kind: LinePre, Alt: alt, Text: text} }

func H1(s string) Line { return Line{Kind: LineH1, Text: s} }

func H2(s string) Line { return Line{Kind: LineH2, Text: s} }

func H3(s string) Line { return Line{Kind: LineH3, Text: s} }

func List(s string) Line { return Line{Kind: LineList, Text: s} }

func Quote(s string) Line { return Line{Kind: LineQuote, Text: s} }

// IsLink reports whether the line points somewhere.
func (l Line) IsLink() bool {
	return l.Kind == LineBareLink || l.Kind == LineNamedLink
}

// Links returns the URL of every link line, in document order.
func (d Document) Links() []string {
	var links []string
	for _, l := range d {
		if l.IsLink() {
			links = append(links, l.URL)
		}
	}
	return links
}

// Title returns the text of the first heading, or "" if the document has none.
func (d Document) Title() string {
	for _, l := range d {
		switch l.Kind {
		case LineH1, LineH2, LineH3:
			return l.Text
		}
	}
	return ""
}
