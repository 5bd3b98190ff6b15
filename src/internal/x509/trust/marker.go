// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"crypto/x509"

	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/internal/x509/dn"
	"github.com/brylex/sancus/src/internal/x509/truststore"
)

// DefaultTag is recorded by a [Marker] created without a tag.
const DefaultTag = "TRUSTER"

// Marker records its tag on chain links whose identity is one of its
// accepted issuers.
type Marker struct {
	tag      string
	accepted map[string]struct{}
}

// NewMarker creates a marker accepting the given identities. An empty tag
// becomes [DefaultTag]; zero identities are ignored.
func NewMarker(tag string, accepted ...dn.Identity) *Marker {
	if tag == "" {
		tag = DefaultTag
	}
	m := &Marker{tag: tag, accepted: make(map[string]struct{}, len(accepted))}
	for _, id := range accepted {
		if !id.IsZero() {
			m.accepted[id.Key()] = struct{}{}
		}
	}
	return m
}

// FromCertificates creates a marker accepting the subjects of certs.
func FromCertificates(tag string, certs ...*x509.Certificate) *Marker {
	ids := make([]dn.Identity, 0, len(certs))
	for _, c := range certs {
		ids = append(ids, dn.Subject(c))
	}
	return NewMarker(tag, ids...)
}

// FromStore creates a marker accepting the subjects held by store at the
// time of the call. A nil store accepts nothing.
func FromStore(tag string, store *truststore.Store) *Marker {
	if store == nil {
		return NewMarker(tag)
	}
	return NewMarker(tag, store.Subjects()...)
}

// Tag returns the tag recorded on marked links.
func (m *Marker) Tag() string { return m.tag }

// Len returns the number of distinct accepted identities.
func (m *Marker) Len() int { return len(m.accepted) }

// Accepts reports whether id is one of the accepted identities.
func (m *Marker) Accepts(id dn.Identity) bool {
	if id.IsZero() {
		return false
	}
	_, ok := m.accepted[id.Key()]
	return ok
}

// Mark walks ch from head to tail and records the marker's tag on every
// accepted link that is not trusted yet. Placeholders are marked too. It
// returns the number of links newly marked.
func (m *Marker) Mark(ch *x509chain.Chain) int {
	if ch == nil || len(m.accepted) == 0 {
		return 0
	}

	var marked int
	for i, l := range ch.Links() {
		if m.Accepts(l.Identity()) && ch.MarkTrusted(i, m.tag) {
			marked++
		}
	}
	return marked
}
