package gemini

import "fmt"

// Status is a two-digit Gemini response status code.
type Status int

// The closed set of status codes a server may send.
const (
	StatusInput                     Status = 10
	StatusSensitiveInput            Status = 11
	StatusSuccess                   Status = 20
	StatusRedirectTemporary         Status = 30
	StatusRedirectPermanent         Status = 31
	StatusTemporaryFailure          Status = 40
	StatusServerUnavailable         Status = 41
	StatusCGIError                  Status = 42
	StatusProxyError                Status = 43
	StatusSlowDown                  Status = 44
	StatusPermanentFailure          Status = 50
	StatusNotFound                  Status = 51
	StatusGone                      Status = 52
	StatusProxyRequestRefused       Status = 53
	StatusBadRequest                Status = 59
	StatusClientCertificateRequired Status = 60
	StatusCertificateNotAuthorized  Status = 61
	StatusCertificateNotValid       Status = 62
)

var statusNames = map[Status]string{
	StatusInput:                     "Input",
	StatusSensitiveInput:            "Sensitive Input",
	StatusSuccess:                   "Success",
	StatusRedirectTemporary:         "Temporary Redirect",
	StatusRedirectPermanent:         "Permanent Redirect",
	StatusTemporaryFailure:          "Temporary Failure",
	StatusServerUnavailable:         "Server Unavailable",
	StatusCGIError:                  "CGI Error",
	StatusProxyError:                "Proxy Error",
	StatusSlowDown:                  "Slow Down",
	StatusPermanentFailure:          "Permanent Failure",
	StatusNotFound:                  "Not Found",
	StatusGone:                      "Gone",
	StatusProxyRequestRefused:       "Proxy Request Refused",
	StatusBadRequest:                "Bad Request",
	StatusClientCertificateRequired: "Client Certificate Required",
	StatusCertificateNotAuthorized:  "Certificate Not Authorized",
	StatusCertificateNotValid:       "Certificate Not Valid",
}

// Statuses returns every known status code in ascending order.
func Statuses() []Status {
	return []Status{
		StatusInput, StatusSensitiveInput,
		StatusSuccess,
		StatusRedirectTemporary, StatusRedirectPermanent,
		StatusTemporaryFailure, StatusServerUnavailable, StatusCGIError, StatusProxyError, StatusSlowDown,
		StatusPermanentFailure, StatusNotFound, StatusGone, StatusProxyRequestRefused, StatusBadRequest,
		StatusClientCertificateRequired, StatusCertificateNotAuthorized, StatusCertificateNotValid,
	}
}

// ParseStatus converts a raw integer into a Status, failing for codes outside the known set.
func ParseStatus(n int) (Status, error) {
	s := Status(n)
	if _, ok := statusNames[s]; !ok {
		return 0, &StatusCodeError{Code: n}
	}
	return s, nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsInput reports whether the server is asking for user input.
func (s Status) IsInput() bool { return s == StatusInput || s == StatusSensitiveInput }

// IsSuccess reports whether the response carries a body.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// IsRedirect reports whether meta holds a new target URL.
func (s Status) IsRedirect() bool { return s == StatusRedirectTemporary || s == StatusRedirectPermanent }

func (s Status) IsTemporaryFailure() bool { return s/10 == 4 }

func (s Status) IsPermanentFailure() bool { return s/10 == 5 }

func (s Status) IsCertificate() bool { return s/10 == 6 }
