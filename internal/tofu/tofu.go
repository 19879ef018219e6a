// Package tofu implements trust-on-first-use verification of server certificates.
package tofu

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrNoCertificates      = errors.New("tofu: server presented no certificate")
	ErrCertNotValidForName = errors.New("tofu: certificate differs from the one trusted for this host")
	ErrStore               = errors.New("tofu: certificate store failure")
)

// Store persists the first certificate seen for each host.
type Store interface {
	Get(host string) ([]byte, bool, error)
	Put(host string, der []byte) (bool, error)
}

// Verifier pins the leaf certificate a host presents on first contact and rejects any
// other certificate for that host afterwards.
type Verifier struct {
	mu    sync.RWMutex
	store Store
}

func NewVerifier(store Store) *Verifier {
	return &Verifier{store: store}
}

// Verify checks the chain presented by host. certs holds DER certificates, leaf first.
func (v *Verifier) Verify(host string, certs [][]byte) error {
	if len(certs) == 0 {
		return ErrNoCertificates
	}
	leaf := certs[0]

	v.mu.RLock()
	known, ok, err := v.store.Get(host)
	v.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if ok {
		return v.compare(host, known, leaf)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	known, ok, err = v.store.Get(host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if ok {
		return v.compare(host, known, leaf)
	}

	if _, err := v.store.Put(host, leaf); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	slog.Info("Trusting new certificate", "host", host)
	return nil
}

func (v *Verifier) compare(host string, known, leaf []byte) error {
	if bytes.Equal(known, leaf) {
		return nil
	}
	slog.Warn("Certificate mismatch", "host", host)
	return fmt.Errorf("%w: %s", ErrCertNotValidForName, host)
}
