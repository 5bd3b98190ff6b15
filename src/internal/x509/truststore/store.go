// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package truststore

import (
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/brylex/sancus/src/internal/x509/dn"
)

var (
	// ErrNilCertificate is returned when a nil certificate is added.
	ErrNilCertificate = errors.New("truststore: nil certificate")
	// ErrEmptyAlias is returned when a certificate is added without an alias.
	ErrEmptyAlias = errors.New("truststore: empty alias")
	// ErrDuplicateAlias is returned when an alias is already in use.
	ErrDuplicateAlias = errors.New("truststore: duplicate alias")
)

type entry struct {
	alias string
	cert  *x509.Certificate
}

// Store is an alias-keyed certificate collection.
//
// The zero value is an empty store ready for use. A Store is safe for
// concurrent use by multiple goroutines.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

// New returns an empty store.
func New() *Store { return &Store{} }

// NewAlias returns a fresh alias for tag in the form "<tag>_<uuid>".
func (s *Store) NewAlias(tag string) string {
	return tag + "_" + uuid.NewString()
}

// Add registers cert under alias.
func (s *Store) Add(alias string, cert *x509.Certificate) error {
	if cert == nil {
		return ErrNilCertificate
	}
	if alias == "" {
		return ErrEmptyAlias
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[alias]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAlias, alias)
	}

	s.index[alias] = len(s.entries)
	s.entries = append(s.entries, entry{alias: alias, cert: cert})
	return nil
}

// AddTagged registers cert under a fresh alias derived from tag and returns
// the alias.
func (s *Store) AddTagged(tag string, cert *x509.Certificate) (string, error) {
	alias := s.NewAlias(tag)
	if err := s.Add(alias, cert); err != nil {
		return "", err
	}
	return alias, nil
}

// Get returns the certificate registered under alias.
func (s *Store) Get(alias string) (*x509.Certificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[alias]
	if !ok {
		return nil, false
	}
	return s.entries[i].cert, true
}

// Len returns the number of registered certificates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Aliases returns the registered aliases in insertion order.
func (s *Store) Aliases() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	aliases := make([]string, len(s.entries))
	for i, e := range s.entries {
		aliases[i] = e.alias
	}
	return aliases
}

// AliasesWithTag returns the aliases created by [Store.NewAlias] for tag.
func (s *Store) AliasesWithTag(tag string) []string {
	prefix := tag + "_"
	return slices.DeleteFunc(s.Aliases(), func(alias string) bool {
		return !strings.HasPrefix(alias, prefix)
	})
}

// snapshot copies the entries so iteration never holds the lock while
// calling back into user code.
func (s *Store) snapshot() []entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// All yields every alias and certificate in insertion order.
func (s *Store) All() iter.Seq2[string, *x509.Certificate] {
	entries := s.snapshot()
	return func(yield func(string, *x509.Certificate) bool) {
		for _, e := range entries {
			if !yield(e.alias, e.cert) {
				return
			}
		}
	}
}

// Certificates returns every registered certificate in insertion order.
func (s *Store) Certificates() []*x509.Certificate {
	entries := s.snapshot()
	certs := make([]*x509.Certificate, len(entries))
	for i, e := range entries {
		certs[i] = e.cert
	}
	return certs
}

// FindBySubject returns the certificates whose subject equals id, in
// insertion order.
func (s *Store) FindBySubject(id dn.Identity) []*x509.Certificate {
	var found []*x509.Certificate
	for _, cert := range s.All() {
		if dn.Subject(cert).Equal(id) {
			found = append(found, cert)
		}
	}
	return found
}

// Contains reports whether an identical certificate is registered and, if
// so, under which alias.
func (s *Store) Contains(cert *x509.Certificate) (string, bool) {
	if cert == nil {
		return "", false
	}
	for alias, c := range s.All() {
		if c.Equal(cert) {
			return alias, true
		}
	}
	return "", false
}

// Subjects returns the subject identity of every registered certificate.
func (s *Store) Subjects() []dn.Identity {
	entries := s.snapshot()
	ids := make([]dn.Identity, len(entries))
	for i, e := range entries {
		ids[i] = dn.Subject(e.cert)
	}
	return ids
}

// CertPool returns a pool holding every registered certificate, suitable as
// the Roots of an [x509.VerifyOptions].
func (s *Store) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	for _, cert := range s.All() {
		pool.AddCert(cert)
	}
	return pool
}

// Merge adds every certificate of other under fresh aliases derived from
// tag, skipping certificates s already holds. It returns the number added.
func (s *Store) Merge(tag string, other *Store) (int, error) {
	if other == nil {
		return 0, nil
	}
	var added int
	for _, cert := range other.All() {
		if _, ok := s.Contains(cert); ok {
			continue
		}
		if _, err := s.AddTagged(tag, cert); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// WritePEM writes every certificate accepted by keep as PEM blocks in
// insertion order. A nil keep writes all certificates.
func (s *Store) WritePEM(w io.Writer, keep func(alias string, cert *x509.Certificate) bool) error {
	for alias, cert := range s.All() {
		if keep != nil && !keep(alias, cert) {
			continue
		}
		if _, err := w.Write(encoder.EncodePEM(cert)); err != nil {
			return err
		}
	}
	return nil
}
