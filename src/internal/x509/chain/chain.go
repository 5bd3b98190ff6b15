// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	x509certs "github.com/brylex/sancus/src/internal/x509/certs"
	"github.com/brylex/sancus/src/internal/x509/dn"
	"github.com/brylex/sancus/src/internal/x509/truststore"
)

// Well-known link tags.
const (
	// ResolvedByServer marks certificates presented by the peer or supplied
	// as the starting input.
	ResolvedByServer = "SERVER"
	// ResolvedByMissing marks placeholder links whose certificate is unknown.
	ResolvedByMissing = "MISSING"
	// TrustedByNone marks links no trust marker has accepted.
	TrustedByNone = "NOT"
)

var (
	// ErrInvalidArgument is returned for nil or empty inputs.
	ErrInvalidArgument = errors.New("x509chain: invalid argument")
	// ErrNoSuchLink is returned for a link index outside the chain.
	ErrNoSuchLink = errors.New("x509chain: no such link")
	// ErrAlreadyResolved is returned when a certificate is applied to a link
	// that already carries one.
	ErrAlreadyResolved = errors.New("x509chain: link already resolved")
	// ErrIdentityMismatch is returned when a certificate's subject differs
	// from the identity of the link it is applied to.
	ErrIdentityMismatch = errors.New("x509chain: certificate subject does not match link identity")
)

// noIssuer marks a link without an issuer link.
const noIssuer = -1

// Link is one position in a chain: an identity, optionally the certificate
// carrying that identity, and the tags recording who resolved and who
// trusted it.
//
// Links are handed out by value; mutating a chain never changes a Link a
// caller already holds.
type Link struct {
	identity   dn.Identity
	cert       *x509.Certificate
	resolvedBy string
	trustedBy  string
	issuer     int
}

// Identity returns the subject identity of the link.
func (l Link) Identity() dn.Identity { return l.identity }

// Certificate returns the link's certificate, or nil for a placeholder.
func (l Link) Certificate() *x509.Certificate { return l.cert }

// ResolvedBy returns the tag of the resolver that supplied the certificate,
// or [ResolvedByMissing] for a placeholder.
func (l Link) ResolvedBy() string { return l.resolvedBy }

// TrustedBy returns the tag of the trust marker that accepted the link, or
// [TrustedByNone].
func (l Link) TrustedBy() string { return l.trustedBy }

// IsPlaceholder reports whether the link still lacks a certificate.
func (l Link) IsPlaceholder() bool { return l.cert == nil }

// IsTrusted reports whether a trust marker accepted the link.
func (l Link) IsTrusted() bool { return l.trustedBy != TrustedByNone }

// IsTerminal reports whether the link carries a self-signed certificate, past
// which no issuer exists.
func (l Link) IsTerminal() bool { return l.cert != nil && IsSelfSigned(l.cert) }

// String renders the link as "[RESOLVER][T|U] identity".
func (l Link) String() string {
	trust := "U"
	if l.IsTrusted() {
		trust = "T"
	}
	return fmt.Sprintf("[%-7s][%s] %s", l.resolvedBy, trust, l.identity)
}

// IsSelfSigned reports whether cert's subject and issuer identities are equal.
// Signatures are not checked.
func IsSelfSigned(cert *x509.Certificate) bool {
	return cert != nil && dn.Subject(cert).Equal(dn.Issuer(cert))
}

// Chain is a sequence of [X.509] certificate links from a leaf toward a
// root, with placeholder links standing in for issuers that have not been
// found yet.
//
// Links live in an arena and refer to their issuer by index; index 0 is the
// head. Every chain owns a [truststore.Store] in which each applied
// certificate is registered.
//
// [X.509]: https://grokipedia.com/page/X.509
type Chain struct {
	mu    sync.RWMutex
	links []*Link
	last  int
	store *truststore.Store
	*x509certs.Certificate
}

// New creates a chain from certs with a fresh store.
//
// Parameters:
//   - certs: Certificates in any order; at least one is required
//
// Returns:
//   - *Chain: Chain ordered leaf to root, tagged [ResolvedByServer]
//   - error: [ErrInvalidArgument] if certs is empty or contains nil
func New(certs ...*x509.Certificate) (*Chain, error) {
	return NewWithStore(truststore.New(), certs...)
}

// NewWithStore creates a chain from certs that registers resolved
// certificates in store.
//
// The certificates are ordered by [SortIssuance]. The first becomes the
// head, and each following certificate replaces the placeholder issuer of
// the previous one. Certificates left over after a self-signed link cannot
// be linked; they are registered in the store so that resolvers consulting
// it can still find them.
//
// Parameters:
//   - store: Store for resolved certificates
//   - certs: Certificates in any order; at least one is required
//
// Returns:
//   - *Chain: New chain
//   - error: [ErrInvalidArgument] if store is nil, certs is empty or contains nil
func NewWithStore(store *truststore.Store, certs ...*x509.Certificate) (*Chain, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidArgument)
	}
	if err := validate(certs); err != nil {
		return nil, err
	}

	ch := NewEmpty(store)
	if err := ch.build(SortIssuance(certs), ResolvedByServer); err != nil {
		return nil, err
	}
	return ch, nil
}

// NewEmpty creates a chain without links, to be filled by [Chain.Populate].
// A nil store is replaced by a fresh one.
func NewEmpty(store *truststore.Store) *Chain {
	if store == nil {
		store = truststore.New()
	}
	return &Chain{
		last:        noIssuer,
		store:       store,
		Certificate: x509certs.New(),
	}
}

func validate(certs []*x509.Certificate) error {
	if len(certs) == 0 {
		return fmt.Errorf("%w: no certificates", ErrInvalidArgument)
	}
	for i, c := range certs {
		if c == nil {
			return fmt.Errorf("%w: certificate %d is nil", ErrInvalidArgument, i)
		}
	}
	return nil
}

// newLink creates a resolved link for cert and, unless cert is self-signed,
// a placeholder for its issuer. It returns the index of the resolved link,
// placing it at slot when slot is a valid index.
func (ch *Chain) newLink(slot int, cert *x509.Certificate, tag string) int {
	l := &Link{
		identity:   dn.Subject(cert),
		cert:       cert,
		resolvedBy: tag,
		trustedBy:  TrustedByNone,
		issuer:     noIssuer,
	}

	if slot >= 0 && slot < len(ch.links) {
		ch.links[slot] = l
	} else {
		slot = len(ch.links)
		ch.links = append(ch.links, l)
	}

	if !IsSelfSigned(cert) {
		l.issuer = ch.newPlaceholder(dn.Issuer(cert))
	}
	return slot
}

func (ch *Chain) newPlaceholder(id dn.Identity) int {
	ch.links = append(ch.links, &Link{
		identity:   id,
		resolvedBy: ResolvedByMissing,
		trustedBy:  TrustedByNone,
		issuer:     noIssuer,
	})
	return len(ch.links) - 1
}

// build lays out already ordered certificates on an empty chain.
func (ch *Chain) build(sorted []*x509.Certificate, tag string) error {
	cur := ch.newLink(noIssuer, sorted[0], tag)
	for _, cert := range sorted[1:] {
		next := ch.links[cur].issuer
		if next == noIssuer {
			if _, err := ch.store.AddTagged(tag, cert); err != nil {
				return err
			}
			continue
		}
		cur = ch.newLink(next, cert, tag)
	}
	ch.last = ch.tail()
	return nil
}

// tail returns the index of the final link of the walk from the head.
func (ch *Chain) tail() int {
	if len(ch.links) == 0 {
		return noIssuer
	}
	i := 0
	for steps := 0; ch.links[i].issuer != noIssuer && steps < len(ch.links); steps++ {
		i = ch.links[i].issuer
	}
	return i
}

// walk yields the arena indices from the head to the tail.
func (ch *Chain) walk() []int {
	if len(ch.links) == 0 {
		return nil
	}
	path := make([]int, 0, len(ch.links))
	for i := 0; i != noIssuer && len(path) < len(ch.links); i = ch.links[i].issuer {
		path = append(path, i)
	}
	return path
}

// Store returns the store in which resolved certificates are registered.
func (ch *Chain) Store() *truststore.Store { return ch.store }

// Len returns the number of links from head to tail, placeholders included.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.walk())
}

// IsEmpty reports whether the chain has no links yet.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) IsEmpty() bool {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.links) == 0
}

// Link returns a copy of the link at index i.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Link(i int) (Link, bool) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	if i < 0 || i >= len(ch.links) {
		return Link{}, false
	}
	return *ch.links[i], true
}

// Head returns the first link.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Head() (Link, bool) { return ch.Link(0) }

// Last returns the last-known link: the self-signed link that ends a
// complete walk, or the trailing placeholder of an incomplete one.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Last() (Link, bool) {
	ch.mu.RLock()
	last := ch.last
	ch.mu.RUnlock()
	return ch.Link(last)
}

// LastIndex returns the arena index of [Chain.Last], or -1 for an empty chain.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) LastIndex() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.last
}

// Issuer returns the index of the issuer link of link i.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Issuer(i int) (int, bool) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	if i < 0 || i >= len(ch.links) || ch.links[i].issuer == noIssuer {
		return noIssuer, false
	}
	return ch.links[i].issuer, true
}

// Predecessor returns the index of the link whose issuer is link i.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Predecessor(i int) (int, bool) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	for _, j := range ch.walk() {
		if ch.links[j].issuer == i {
			return j, true
		}
	}
	return noIssuer, false
}

// FirstUnresolved returns the index of the first placeholder on the walk
// from the head.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) FirstUnresolved() (int, bool) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	for _, i := range ch.walk() {
		if ch.links[i].cert == nil {
			return i, true
		}
	}
	return noIssuer, false
}

// EnsureIssuer returns the index of the issuer link of link i, creating a
// placeholder keyed by the certificate's issuer identity when a resolved,
// non-self-signed link has none. It reports false when link i is a
// placeholder, is self-signed, or does not exist.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) EnsureIssuer(i int) (int, bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if i < 0 || i >= len(ch.links) {
		return noIssuer, false
	}
	l := ch.links[i]
	if l.issuer != noIssuer {
		return l.issuer, true
	}
	if l.cert == nil || IsSelfSigned(l.cert) {
		return noIssuer, false
	}

	l.issuer = ch.newPlaceholder(dn.Issuer(l.cert))
	if ch.last == i {
		ch.last = l.issuer
	}
	return l.issuer, true
}

// Apply assigns cert to the placeholder at index i and records tag as its
// resolver.
//
// The certificate is registered in the chain's store under an alias derived
// from tag. If it is self-signed the link becomes the last link; otherwise a
// placeholder for its issuer is linked and becomes the last link.
//
// Parameters:
//   - i: Index of a placeholder link
//   - cert: Certificate whose subject equals the link's identity
//   - tag: Resolver tag recorded in ResolvedBy
//
// Returns:
//   - error: [ErrNoSuchLink], [ErrInvalidArgument], [ErrAlreadyResolved] or
//     [ErrIdentityMismatch]; the chain is unchanged on error
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Apply(i int, cert *x509.Certificate, tag string) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.apply(i, cert, tag)
}

func (ch *Chain) apply(i int, cert *x509.Certificate, tag string) error {
	if i < 0 || i >= len(ch.links) {
		return fmt.Errorf("%w: %d", ErrNoSuchLink, i)
	}
	if cert == nil || tag == "" {
		return fmt.Errorf("%w: certificate and tag are required", ErrInvalidArgument)
	}

	l := ch.links[i]
	if l.cert != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyResolved, l.identity)
	}
	if subject := dn.Subject(cert); !subject.Equal(l.identity) {
		return fmt.Errorf("%w: want %s, got %s", ErrIdentityMismatch, l.identity, subject)
	}

	if _, err := ch.store.AddTagged(tag, cert); err != nil {
		return err
	}

	l.cert = cert
	l.resolvedBy = tag

	if IsSelfSigned(cert) {
		l.issuer = noIssuer
		ch.last = i
		return nil
	}
	if l.issuer == noIssuer {
		l.issuer = ch.newPlaceholder(dn.Issuer(cert))
	}
	ch.last = l.issuer
	return nil
}

// Populate places certs on the chain.
//
// On an empty chain the certificates are laid out as [NewWithStore] does,
// tagged with tag. On a non-empty chain each certificate, in issuance
// order, fills the first placeholder whose identity equals its subject;
// certificates matching no placeholder are ignored.
//
// Parameters:
//   - certs: Certificates in any order; at least one is required
//   - tag: Resolver tag for the placed certificates
//
// Returns:
//   - int: Number of certificates placed on the chain
//   - error: [ErrInvalidArgument] for empty input
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Populate(certs []*x509.Certificate, tag string) (int, error) {
	if err := validate(certs); err != nil {
		return 0, err
	}
	if tag == "" {
		return 0, fmt.Errorf("%w: empty tag", ErrInvalidArgument)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	sorted := SortIssuance(certs)
	if len(ch.links) == 0 {
		if err := ch.build(sorted, tag); err != nil {
			return 0, err
		}
		return len(ch.walk()) - ch.placeholders(), nil
	}

	var placed int
	for _, cert := range sorted {
		subject := dn.Subject(cert)
		for _, i := range ch.walk() {
			l := ch.links[i]
			if l.cert != nil || !l.identity.Equal(subject) {
				continue
			}
			if err := ch.apply(i, cert, tag); err != nil {
				return placed, err
			}
			placed++
			break
		}
	}
	return placed, nil
}

func (ch *Chain) placeholders() int {
	var n int
	for _, i := range ch.walk() {
		if ch.links[i].cert == nil {
			n++
		}
	}
	return n
}

// MarkTrusted records tag as the trust marker of link i. It only changes a
// link not yet trusted and reports whether it did.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) MarkTrusted(i int, tag string) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if i < 0 || i >= len(ch.links) || tag == "" || tag == TrustedByNone {
		return false
	}
	l := ch.links[i]
	if l.trustedBy != TrustedByNone {
		return false
	}
	l.trustedBy = tag
	return true
}

// IsComplete reports whether the last link carries a self-signed
// certificate.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) IsComplete() bool {
	last, ok := ch.Last()
	return ok && last.IsTerminal()
}

// ToList returns the certificates from head toward the root, stopping at
// the first placeholder.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) ToList() []*x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	var certs []*x509.Certificate
	for _, i := range ch.walk() {
		if ch.links[i].cert == nil {
			break
		}
		certs = append(certs, ch.links[i].cert)
	}
	return certs
}

// Links yields the index and a copy of every link from head to tail.
//
// Thread Safety: Safe for concurrent use. The sequence reflects the chain
// at the time Links is called.
func (ch *Chain) Links() iter.Seq2[int, Link] {
	ch.mu.RLock()
	path := ch.walk()
	snapshot := make([]Link, len(path))
	for n, i := range path {
		snapshot[n] = *ch.links[i]
	}
	ch.mu.RUnlock()

	return func(yield func(int, Link) bool) {
		for n, i := range path {
			if !yield(i, snapshot[n]) {
				return
			}
		}
	}
}

// EncodePEM encodes the resolved certificates of [Chain.ToList] as PEM.
func (ch *Chain) EncodePEM() []byte {
	return ch.EncodeMultiplePEM(ch.ToList())
}

// String renders one line per link in the form "[RESOLVER][T|U] identity".
func (ch *Chain) String() string {
	var b strings.Builder
	for _, l := range ch.Links() {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}
