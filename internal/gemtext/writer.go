package gemtext

import (
	"bufio"
	"io"
	"strings"
)

// String returns the canonical text/gemini form of a single line, without a terminator.
// A payload ending in '\r' gets a second one, since the parser drops one before each '\n'.
func (l Line) String() string {
	switch l.Kind {
	case LineBareLink:
		return keepCR("=> " + l.URL)
	case LineNamedLink:
		return keepCR("=> " + l.URL + " " + l.Text)
	case LinePre:
		return fence + keepCR(l.Alt) + "\n" + keepCR(l.Text) + "\n" + fence
	case LineH1:
		return keepCR("# " + l.Text)
	case LineH2:
		return keepCR("## " + l.Text)
	case LineH3:
		return keepCR("### " + l.Text)
	case LineList:
		return keepCR("* " + l.Text)
	case LineQuote:
		return keepCR("> " + l.Text)
	default:
		return keepCR(l.Text)
	}
}

func keepCR(s string) string {
	if strings.HasSuffix(s, "\r") {
		return s + "\r"
	}
	return s
}

// WriteTo writes the document in canonical form, one block per line.
func (d Document) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64

	for _, l := range d {
		n, err := bw.WriteString(l.String())
		total += int64(n)
		if err != nil {
			return total, err
		}

		if err := bw.WriteByte('\n'); err != nil {
			return total, err
		}
		total++
	}

	return total, bw.Flush()
}

func (d Document) String() string {
	var b strings.Builder
	d.WriteTo(&b)
	return b.String()
}
