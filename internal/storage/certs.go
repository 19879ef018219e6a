package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// CertStore maps a host name to the DER encoding of the certificate first seen for it.
type CertStore struct {
	db *sql.DB
}

// NewCertStore creates a certificate store using the given database.
func NewCertStore(db *DB) *CertStore {
	return &CertStore{db: db.conn}
}

// Get returns the certificate recorded for host. ok is false when there is none.
func (cs *CertStore) Get(host string) (der []byte, ok bool, err error) {
	err = cs.db.QueryRow(`SELECT der FROM certs WHERE host = ?`, host).Scan(&der)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading certificate for %s: %w", host, err)
	}
	return der, true, nil
}

// Put records der for host unless host already has a certificate. It reports whether
// the record was written.
func (cs *CertStore) Put(host string, der []byte) (bool, error) {
	res, err := cs.db.Exec(`INSERT OR IGNORE INTO certs (host, der) VALUES (?, ?)`, host, der)
	if err != nil {
		return false, fmt.Errorf("storing certificate for %s: %w", host, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storing certificate for %s: %w", host, err)
	}
	return n > 0, nil
}

// Count returns the number of trusted hosts.
func (cs *CertStore) Count() (int, error) {
	var count int
	if err := cs.db.QueryRow(`SELECT COUNT(*) FROM certs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting certificates: %w", err)
	}
	return count, nil
}
