// Package browser fetches Gemini pages.
package browser

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/vidyasagar/gsurf/internal/gemini"
	"github.com/vidyasagar/gsurf/internal/gemtext"
	"golang.org/x/net/idna"
)

const (
	defaultPort  = "1965"
	dialTimeout  = 10 * time.Second
	maxBodySize  = 10 * 1024 * 1024 // 10 MB
	maxRedirects = 5
)

// Verifier decides whether the certificate chain presented by host is acceptable.
type Verifier interface {
	Verify(host string, certs [][]byte) error
}

// Prompter asks the user for a line of input. It returns gemini.ErrInputCancelled
// when the user declines.
type Prompter interface {
	Input(ctx context.Context, prompt string, sensitive bool) (string, error)
}

// Page is a fetched response. Response and Document share storage with the raw
// response, so a Page owns everything it refers to.
type Page struct {
	URL      *url.URL
	Response gemini.Response
	// Document is nil unless the response was a successful text response.
	Document gemtext.Document

	raw string
}

// Raw returns the response exactly as read from the connection.
func (p *Page) Raw() string {
	return p.raw
}

// Fetcher performs Gemini requests, following redirects and answering input prompts.
type Fetcher struct {
	dialer   *net.Dialer
	tls      *tls.Config
	verifier Verifier
	prompter Prompter
	maxSize  int64
}

// NewFetcher creates a Fetcher that trusts the certificates verifier accepts.
func NewFetcher(verifier Verifier, prompter Prompter) *Fetcher {
	return &Fetcher{
		dialer: &net.Dialer{Timeout: dialTimeout},
		tls: &tls.Config{
			MinVersion: tls.VersionTLS12,
			// Chains are checked by VerifyPeerCertificate against the trust store.
			InsecureSkipVerify: true,
		},
		verifier: verifier,
		prompter: prompter,
		maxSize:  maxBodySize,
	}
}

// Fetch retrieves u. Redirects and input prompts are followed up to five requests deep.
// A response that is neither a redirect, an input prompt nor a success is returned as
// a Page without a document.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) (*Page, error) {
	for depth := 0; ; depth++ {
		if depth >= maxRedirects {
			return nil, gemini.ErrTooManyRedirects
		}

		slog.Debug("Fetching", "url", u.String(), "depth", depth)

		raw, err := f.read(ctx, u)
		if err != nil {
			return nil, err
		}

		resp, err := gemini.ParseResponse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing response from %s: %w", u, err)
		}

		switch {
		case resp.Status.IsSuccess():
			doc, err := parseBody(resp)
			if err != nil {
				return nil, err
			}
			return &Page{URL: u, Response: resp, Document: doc, raw: raw}, nil

		case resp.Status.IsRedirect():
			if resp.Meta == "" {
				return nil, fmt.Errorf("%w: redirect without a target", gemini.ErrParse)
			}
			next, err := u.Parse(resp.Meta)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", gemini.ErrURLParse, err)
			}
			slog.Info("Following redirect", "from", u.String(), "to", next.String(), "status", int(resp.Status))
			u = next

		case resp.Status.IsInput():
			sensitive := resp.Status == gemini.StatusSensitiveInput
			slog.Info("Server requested input", "url", u.String(), "sensitive", sensitive)

			input, err := f.prompter.Input(ctx, resp.Meta, sensitive)
			if err != nil {
				return nil, err
			}

			next := *u
			next.RawQuery = escapeQuery(input)
			u = &next

		default:
			return &Page{URL: u, Response: resp, raw: raw}, nil
		}
	}
}

func parseBody(resp gemini.Response) (gemtext.Document, error) {
	// An empty meta stands for the protocol default, text/gemini; charset=utf-8.
	meta := resp.Meta
	if meta == "" {
		meta = "text/gemini"
	}

	switch {
	case strings.HasPrefix(meta, "text/gemini"):
		if !utf8.ValidString(resp.Body) {
			return nil, gemini.ErrUTF8
		}
		doc := gemtext.Parse(resp.Body)
		if doc == nil {
			doc = gemtext.Document{}
		}
		return doc, nil

	case strings.HasPrefix(meta, "text/"):
		if !utf8.ValidString(resp.Body) {
			return nil, gemini.ErrUTF8
		}
		return gemtext.Document{gemtext.Pre("", resp.Body)}, nil

	default:
		return nil, fmt.Errorf("%w: %s", gemini.ErrUnknownMeta, resp.Meta)
	}
}

// read performs a single request and returns the whole response.
func (f *Fetcher) read(ctx context.Context, u *url.URL) (string, error) {
	if u.Scheme != "gemini" {
		return "", fmt.Errorf("%w: %s", gemini.ErrInvalidURLScheme, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: %s", gemini.ErrNoHostname, u)
	}

	serverName, err := dnsName(host)
	if err != nil {
		return "", err
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}

	conn, err := f.dialer.DialContext(ctx, "tcp", net.JoinHostPort(serverName, port))
	if err != nil {
		return "", fmt.Errorf("%w: connecting to %s: %w", gemini.ErrIO, u.Host, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	cfg := f.tls.Clone()
	if _, err := netip.ParseAddr(serverName); err != nil {
		cfg.ServerName = serverName
	}
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		return f.verifier.Verify(serverName, rawCerts)
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return "", fmt.Errorf("%w: handshake with %s: %w", gemini.ErrTLS, u.Host, err)
	}

	if _, err := io.WriteString(tlsConn, u.String()+"\r\n"); err != nil {
		return "", fmt.Errorf("%w: sending request: %w", gemini.ErrIO, err)
	}

	data, err := io.ReadAll(io.LimitReader(tlsConn, f.maxSize+1))
	if err != nil && (len(data) == 0 || !isCleanClose(err)) {
		return "", fmt.Errorf("%w: reading response: %w", gemini.ErrIO, err)
	}
	if int64(len(data)) > f.maxSize {
		return "", fmt.Errorf("%w: response from %s is larger than %d bytes", gemini.ErrIO, u.Host, f.maxSize)
	}

	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %w", gemini.ErrIO, ctx.Err())
	}

	return string(data), nil
}

// isCleanClose reports whether err, seen after some data arrived, only means the server
// hung up without a TLS close_notify, which many servers do after the last byte.
func isCleanClose(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET)
}

// dnsName converts host to the ASCII form used on the wire. IP literals are returned unchanged.
func dnsName(host string) (string, error) {
	if _, err := netip.ParseAddr(host); err == nil {
		return host, nil
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", gemini.ErrInvalidDNSName, host, err)
	}
	return ascii, nil
}

// escapeQuery percent-encodes user input for the query component, with spaces as %20.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
