package gemtext

import "strings"

const fence = "```"

// Parse splits a text/gemini body into lines. It never fails: every input, including
// garbage, yields a document, and every payload is a substring of s.
func Parse(s string) Document {
	var doc Document

	for s != "" {
		line, rest := readLine(s)

		if strings.HasPrefix(line, fence) {
			var pre Line
			pre, rest = parsePre(line, rest)
			doc = append(doc, pre)
		} else {
			doc = append(doc, ParseLine(line))
		}

		s = rest
	}

	return doc
}

// ParseLine classifies a single line that is not part of a preformatted block.
func ParseLine(line string) Line {
	switch {
	case strings.HasPrefix(line, "###"):
		return H3(skipSpaces(line[3:]))
	case strings.HasPrefix(line, "##"):
		return H2(skipSpaces(line[2:]))
	case strings.HasPrefix(line, "#"):
		return H1(skipSpaces(line[1:]))
	case strings.HasPrefix(line, "* "):
		return List(skipSpaces(line[2:]))
	case strings.HasPrefix(line, ">"):
		return Quote(skipSpaces(line[1:]))
	case strings.HasPrefix(line, "=>"):
		return parseLink(line[2:])
	case strings.HasPrefix(line, fence):
		return Pre(line[len(fence):], "")
	default:
		return Text(line)
	}
}

func parseLink(s string) Line {
	s = skipWhitespace(s)

	end := strings.IndexFunc(s, isWhitespace)
	if end == -1 {
		return BareLink(s)
	}

	url := s[:end]
	name := skipWhitespace(s[end:])
	if name == "" {
		return BareLink(url)
	}
	return NamedLink(url, name)
}

// parsePre consumes a preformatted block whose opening fence line is open, with rest
// holding everything after it. The alt text is the rest of the fence line, verbatim. The
// block ends at a line that is exactly the fence; when no such line exists the block
// spans the remaining input.
func parsePre(open, rest string) (Line, string) {
	alt := open[len(fence):]

	body := rest
	for offset := 0; offset < len(body); {
		line, next := readLine(body[offset:])
		if line == fence {
			text := body[:offset]
			text = strings.TrimSuffix(text, "\n")
			text = strings.TrimSuffix(text, "\r")
			return Pre(alt, text), next
		}
		offset = len(body) - len(next)
	}

	text := strings.TrimSuffix(body, "\n")
	text = strings.TrimSuffix(text, "\r")
	return Pre(alt, text), ""
}

// readLine returns the first line of s without its terminator, and the input following it.
// Lines end at "\n", "\r\n" or the end of input.
func readLine(s string) (line, rest string) {
	i := strings.IndexByte(s, '\n')
	if i == -1 {
		return strings.TrimSuffix(s, "\r"), ""
	}
	return strings.TrimSuffix(s[:i], "\r"), s[i+1:]
}

func skipSpaces(s string) string {
	return strings.TrimLeft(s, " ")
}

func skipWhitespace(s string) string {
	return strings.TrimLeft(s, " \t")
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t'
}
