// Package gemini holds the Gemini protocol model: status codes, the response header and error kinds.
package gemini

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMetaLength is the longest meta string a header may carry.
const MaxMetaLength = 1024

// Response is a parsed server reply. Meta and Body share storage with the string passed to ParseResponse.
type Response struct {
	Status Status
	Meta   string
	Body   string
}

// Header returns the status line without its CRLF terminator.
func (r Response) Header() string {
	return fmt.Sprintf("%d %s", r.Status, r.Meta)
}

// ParseResponse parses "<SS> <META>\r\n" from the front of s and returns the untouched remainder as Body.
func ParseResponse(s string) (Response, error) {
	if len(s) < 2 || !isDigit(s[0]) || !isDigit(s[1]) {
		return Response{}, fmt.Errorf("%w: missing status code", ErrParse)
	}

	status, err := ParseStatus(int(s[0]-'0')*10 + int(s[1]-'0'))
	if err != nil {
		return Response{}, err
	}

	if len(s) < 3 || s[2] != ' ' {
		return Response{}, fmt.Errorf("%w: missing space after status", ErrParse)
	}
	rest := s[3:]

	end := strings.IndexByte(rest, '\r')
	if end == -1 {
		return Response{}, fmt.Errorf("%w: header is not terminated", ErrParse)
	}
	if end > MaxMetaLength {
		return Response{}, fmt.Errorf("%w: meta is longer than %d bytes", ErrParse, MaxMetaLength)
	}
	if !strings.HasPrefix(rest[end:], "\r\n") {
		return Response{}, fmt.Errorf("%w: header is not terminated by CRLF", ErrParse)
	}

	meta := rest[:end]
	if !utf8.ValidString(meta) {
		return Response{}, fmt.Errorf("%w: meta is not valid UTF-8", ErrParse)
	}

	return Response{
		Status: status,
		Meta:   meta,
		Body:   rest[end+2:],
	}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
