// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"crypto/x509"
	"fmt"

	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/internal/x509/truststore"
)

// AnchorSet resolves placeholders from a set of candidate certificates
// held in a trust store.
type AnchorSet struct {
	tag   string
	store *truststore.Store
	opts  options
}

// NewAnchorSet creates a resolver over a copy of certs. Links it fills are
// tagged with tag.
func NewAnchorSet(tag string, certs []*x509.Certificate, opts ...Option) (*AnchorSet, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: empty tag", ErrInvalidArgument)
	}
	store := truststore.New()
	for _, c := range certs {
		if c == nil {
			continue
		}
		if _, err := store.AddTagged(tag, c); err != nil {
			return nil, err
		}
	}
	return &AnchorSet{tag: tag, store: store, opts: newOptions(opts)}, nil
}

// NewAnchorSetFromStore creates a resolver over the entries of store. The
// store is read on every run, so later additions are seen.
func NewAnchorSetFromStore(tag string, store *truststore.Store, opts ...Option) (*AnchorSet, error) {
	if tag == "" || store == nil {
		return nil, fmt.Errorf("%w: tag and store are required", ErrInvalidArgument)
	}
	return &AnchorSet{tag: tag, store: store, opts: newOptions(opts)}, nil
}

// Tag returns the tag recorded on the links this resolver fills.
func (a *AnchorSet) Tag() string { return a.tag }

// Resolve fills placeholders with the earliest registered candidate whose
// subject equals the placeholder identity.
func (a *AnchorSet) Resolve(_ context.Context, ch *x509chain.Chain) (*x509chain.Chain, error) {
	if ch == nil {
		return nil, ErrInvalidArgument
	}

	_, err := fill(ch, a.tag, a.opts.maxDepth, func(_ int, l x509chain.Link) (*x509.Certificate, error) {
		found := a.store.FindBySubject(l.Identity())
		if len(found) == 0 {
			return nil, nil
		}
		a.opts.log.Printf("Resolved [%s] from %s", l.Identity(), a.tag)
		return found[0], nil
	})
	return ch, err
}
