package gemini

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by parsing and fetching. Callers classify with errors.Is.
var (
	ErrInvalidStatusCode = errors.New("gemini: invalid status code")
	ErrParse             = errors.New("gemini: parsing failed")
	ErrTooManyRedirects  = errors.New("gemini: too many redirects")
	ErrInvalidURLScheme  = errors.New("gemini: invalid URL scheme")
	ErrNoHostname        = errors.New("gemini: no hostname")
	ErrUnknownMeta       = errors.New("gemini: unknown meta")
	ErrURLParse          = errors.New("gemini: invalid URL")
	ErrUTF8              = errors.New("gemini: body is not valid UTF-8")
	ErrTLS               = errors.New("gemini: TLS failure")
	ErrInvalidDNSName    = errors.New("gemini: invalid DNS name")
	ErrIO                = errors.New("gemini: I/O failure")
	ErrInputCancelled    = errors.New("gemini: input cancelled")
)

// StatusCodeError reports a two-digit code that is not a known Status.
type StatusCodeError struct {
	Code int
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("invalid status code `%d`", e.Code)
}

func (e *StatusCodeError) Is(target error) bool {
	return target == ErrInvalidStatusCode
}
