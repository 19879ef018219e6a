package browser

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/gsurf/internal/gemini"
	"github.com/vidyasagar/gsurf/internal/gemtext"
	"github.com/vidyasagar/gsurf/internal/storage"
	"github.com/vidyasagar/gsurf/internal/tofu"
)

type handler func(path, query string) string

type server struct {
	addr string

	lock     sync.Mutex
	requests []string
}

func (s *server) Requests() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *server) URL(t *testing.T, path string) *url.URL {
	t.Helper()

	u, err := url.Parse("gemini://" + s.addr + path)
	require.NoError(t, err)
	return u
}

func newCertificate(t *testing.T) tls.Certificate {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1)},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	require.NoError(t, err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}
}

// startServer serves h over TLS on a random local port until the test ends.
func startServer(t *testing.T, cert tls.Certificate, h handler) *server {
	t.Helper()

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	s := &server{addr: ln.Addr().String()}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go func() {
				defer conn.Close()

				line, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}

				s.lock.Lock()
				s.requests = append(s.requests, line)
				s.lock.Unlock()

				u, err := url.Parse(strings.TrimSuffix(line, "\r\n"))
				if err != nil {
					conn.Write([]byte("59 bad request\r\n"))
					return
				}
				conn.Write([]byte(h(u.Path, u.RawQuery)))
			}()
		}
	}()

	return s
}

type prompter struct {
	answer    string
	cancel    bool
	prompts   []string
	sensitive []bool
}

func (p *prompter) Input(_ context.Context, prompt string, sensitive bool) (string, error) {
	p.prompts = append(p.prompts, prompt)
	p.sensitive = append(p.sensitive, sensitive)
	if p.cancel {
		return "", gemini.ErrInputCancelled
	}
	return p.answer, nil
}

func newFetcher(t *testing.T, p Prompter) (*Fetcher, *storage.CertStore) {
	t.Helper()

	db, err := storage.OpenDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	certs := storage.NewCertStore(db)
	if p == nil {
		p = &prompter{cancel: true}
	}
	return NewFetcher(tofu.NewVerifier(certs), p), certs
}

func TestFetch_HelloWorld(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "20 text/gemini\r\n# Hello\nworld\n"
	})
	f, _ := newFetcher(t, nil)

	page, err := f.Fetch(context.Background(), s.URL(t, "/"))
	require.NoError(t, err)

	assert.Equal(t, gemini.StatusSuccess, page.Response.Status)
	assert.Equal(t, "text/gemini", page.Response.Meta)
	assert.Equal(t, gemtext.Document{gemtext.H1("Hello"), gemtext.Text("world")}, page.Document)
	assert.Equal(t, "20 text/gemini\r\n# Hello\nworld\n", page.Raw())
	assert.Equal(t, []string{"gemini://" + s.addr + "/\r\n"}, s.Requests())
}

func TestFetch_Redirect(t *testing.T) {
	s := startServer(t, newCertificate(t), func(path, _ string) string {
		if path == "/a" {
			return "31 /b\r\n"
		}
		return "20 text/gemini\r\nat " + path + "\n"
	})
	f, _ := newFetcher(t, nil)

	page, err := f.Fetch(context.Background(), s.URL(t, "/a"))
	require.NoError(t, err)

	assert.Equal(t, "/b", page.URL.Path)
	assert.Equal(t, gemtext.Document{gemtext.Text("at /b")}, page.Document)
	assert.Len(t, s.Requests(), 2)
}

func TestFetch_TooManyRedirects(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "30 /loop\r\n"
	})
	f, _ := newFetcher(t, nil)

	_, err := f.Fetch(context.Background(), s.URL(t, "/loop"))
	assert.ErrorIs(t, err, gemini.ErrTooManyRedirects)
	assert.Len(t, s.Requests(), maxRedirects)
}

func TestFetch_RedirectWithoutTarget(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "30 \r\n"
	})
	f, _ := newFetcher(t, nil)

	_, err := f.Fetch(context.Background(), s.URL(t, "/"))
	assert.ErrorIs(t, err, gemini.ErrParse)
}

func TestFetch_Input(t *testing.T) {
	s := startServer(t, newCertificate(t), func(_, query string) string {
		if query == "" {
			return "10 Query?\r\n"
		}
		return "20 text/gemini\r\nyou said " + query + "\n"
	})
	p := &prompter{answer: "hello world"}
	f, _ := newFetcher(t, p)

	page, err := f.Fetch(context.Background(), s.URL(t, "/search"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Query?"}, p.prompts)
	assert.Equal(t, []bool{false}, p.sensitive)
	assert.Equal(t, "hello%20world", page.URL.RawQuery)
	assert.Equal(t, "gemini://"+s.addr+"/search?hello%20world\r\n", s.Requests()[1])
	assert.Equal(t, gemtext.Document{gemtext.Text("you said hello%20world")}, page.Document)
}

func TestFetch_SensitiveInputCancelled(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "11 Password\r\n"
	})
	p := &prompter{cancel: true}
	f, _ := newFetcher(t, p)

	_, err := f.Fetch(context.Background(), s.URL(t, "/login"))
	assert.ErrorIs(t, err, gemini.ErrInputCancelled)
	assert.Equal(t, []bool{true}, p.sensitive)
	assert.Len(t, s.Requests(), 1)
}

func TestFetch_CertificateChanged(t *testing.T) {
	first := startServer(t, newCertificate(t), func(string, string) string {
		return "20 text/gemini\r\nfirst\n"
	})
	second := startServer(t, newCertificate(t), func(string, string) string {
		return "20 text/gemini\r\nsecond\n"
	})
	f, certs := newFetcher(t, nil)

	_, err := f.Fetch(context.Background(), first.URL(t, "/"))
	require.NoError(t, err)

	_, ok, err := certs.Get("127.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.Fetch(context.Background(), second.URL(t, "/"))
	assert.ErrorIs(t, err, gemini.ErrTLS)
	assert.ErrorIs(t, err, tofu.ErrCertNotValidForName)
	assert.Empty(t, second.Requests())

	_, err = f.Fetch(context.Background(), first.URL(t, "/"))
	assert.NoError(t, err)
}

func TestFetch_NotFound(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "51 Not found\r\n"
	})
	f, _ := newFetcher(t, nil)

	page, err := f.Fetch(context.Background(), s.URL(t, "/missing"))
	require.NoError(t, err)

	assert.Nil(t, page.Document)
	assert.Equal(t, gemini.StatusNotFound, page.Response.Status)
	assert.Equal(t, "51 Not found", page.Response.Header())
}

func TestFetch_PlainText(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "20 text/plain; charset=utf-8\r\n# not a heading\n=> not a link\n"
	})
	f, _ := newFetcher(t, nil)

	page, err := f.Fetch(context.Background(), s.URL(t, "/notes.txt"))
	require.NoError(t, err)

	assert.Equal(t, gemtext.Document{gemtext.Pre("", "# not a heading\n=> not a link\n")}, page.Document)
}

func TestFetch_EmptyMetaIsGemtext(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "20 \r\n* item\n"
	})
	f, _ := newFetcher(t, nil)

	page, err := f.Fetch(context.Background(), s.URL(t, "/"))
	require.NoError(t, err)

	assert.Equal(t, gemtext.Document{gemtext.List("item")}, page.Document)
}

func TestFetch_EmptyBody(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "20 text/gemini\r\n"
	})
	f, _ := newFetcher(t, nil)

	page, err := f.Fetch(context.Background(), s.URL(t, "/"))
	require.NoError(t, err)

	assert.NotNil(t, page.Document)
	assert.Empty(t, page.Document)
}

func TestFetch_ResponseTooLarge(t *testing.T) {
	s := startServer(t, newCertificate(t), func(path, _ string) string {
		if path == "/big" {
			return "20 text/gemini\r\n" + strings.Repeat("x", 64)
		}
		return "20 text/gemini\r\n" + strings.Repeat("x", 8)
	})
	f, _ := newFetcher(t, nil)
	f.maxSize = 40

	_, err := f.Fetch(context.Background(), s.URL(t, "/big"))
	assert.ErrorIs(t, err, gemini.ErrIO)

	page, err := f.Fetch(context.Background(), s.URL(t, "/small"))
	require.NoError(t, err)
	assert.Equal(t, gemtext.Document{gemtext.Text("xxxxxxxx")}, page.Document)
}

func TestFetch_UnknownMeta(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "20 image/png\r\n\x89PNG"
	})
	f, _ := newFetcher(t, nil)

	_, err := f.Fetch(context.Background(), s.URL(t, "/img.png"))
	assert.ErrorIs(t, err, gemini.ErrUnknownMeta)
}

func TestFetch_InvalidUTF8(t *testing.T) {
	s := startServer(t, newCertificate(t), func(string, string) string {
		return "20 text/gemini\r\n\xff\xfe\n"
	})
	f, _ := newFetcher(t, nil)

	_, err := f.Fetch(context.Background(), s.URL(t, "/"))
	assert.ErrorIs(t, err, gemini.ErrUTF8)
}

func TestFetch_MalformedHeader(t *testing.T) {
	for response, expected := range map[string]error{
		"2 text/gemini\r\n": gemini.ErrParse,
		"20 text/gemini\n":  gemini.ErrParse,
		"99 what\r\n":       gemini.ErrInvalidStatusCode,
		"":                  gemini.ErrParse,
	} {
		s := startServer(t, newCertificate(t), func(string, string) string {
			return response
		})
		f, _ := newFetcher(t, nil)

		_, err := f.Fetch(context.Background(), s.URL(t, "/"))
		assert.ErrorIs(t, err, expected, response)
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	f, _ := newFetcher(t, nil)

	for raw, expected := range map[string]error{
		"https://example.org/":          gemini.ErrInvalidURLScheme,
		"gemini:///path":                gemini.ErrNoHostname,
		"gemini://under_score.example/": gemini.ErrInvalidDNSName,
	} {
		u, err := url.Parse(raw)
		require.NoError(t, err)

		_, err = f.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, expected, raw)
	}
}

func TestFetch_Cancelled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	s := startServer(t, newCertificate(t), func(string, string) string {
		<-release
		return "20 text/gemini\r\nlate\n"
	})
	f, _ := newFetcher(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, s.URL(t, "/slow"))
	assert.ErrorIs(t, err, gemini.ErrIO)
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, "a%20b%26c%3Dd", escapeQuery("a b&c=d"))
	assert.Equal(t, "%E2%9C%93", escapeQuery("✓"))
	assert.Equal(t, "", escapeQuery(""))
}

func TestDNSName(t *testing.T) {
	name, err := dnsName("bücher.example")
	require.NoError(t, err)
	assert.Equal(t, "xn--bcher-kva.example", name)

	name, err = dnsName("::1")
	require.NoError(t, err)
	assert.Equal(t, "::1", name)
}
