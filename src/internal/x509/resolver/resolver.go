// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"crypto/x509"
	"errors"
	"time"

	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/logger"
)

// MaxDepth bounds the number of links a single resolver run may fill.
const MaxDepth = 16

var (
	// ErrInvalidArgument is returned for a nil chain or an invalid
	// constructor argument.
	ErrInvalidArgument = x509chain.ErrInvalidArgument
	// ErrCertificateParse is returned when a certificate source yields data
	// that cannot be decoded.
	ErrCertificateParse = errors.New("resolver: failed to parse certificate")
)

// Resolver fills placeholder links of a chain in place and returns the same
// chain.
type Resolver interface {
	Resolve(ctx context.Context, ch *x509chain.Chain) (*x509chain.Chain, error)
}

// Func adapts an ordinary function to the [Resolver] interface.
type Func func(ctx context.Context, ch *x509chain.Chain) (*x509chain.Chain, error)

// Resolve calls f(ctx, ch).
func (f Func) Resolve(ctx context.Context, ch *x509chain.Chain) (*x509chain.Chain, error) {
	return f(ctx, ch)
}

// Chain composes resolvers into one that runs them in order, each on the
// chain the previous one returned. It stops at the first error. Nil
// resolvers are skipped.
func Chain(resolvers ...Resolver) Resolver {
	return Func(func(ctx context.Context, ch *x509chain.Chain) (*x509chain.Chain, error) {
		if ch == nil {
			return nil, ErrInvalidArgument
		}
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			var err error
			if ch, err = r.Resolve(ctx, ch); err != nil {
				return ch, err
			}
		}
		return ch, nil
	})
}

// Option configures a resolver. Options that do not apply to a resolver are
// ignored by it.
type Option func(*options)

type options struct {
	log        logger.Logger
	maxDepth   int
	fetcher    Fetcher
	httpConfig *HTTPConfig
	timeout    time.Duration
	verifier   Verifier
	serverName string
	roots      []*x509.Certificate
}

func newOptions(opts []Option) options {
	o := options{
		log:      logger.Discard(),
		maxDepth: MaxDepth,
		timeout:  DefaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger that receives resolution steps.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMaxDepth overrides [MaxDepth] for a resolver.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithFetcher sets the fetcher used by [Remote].
func WithFetcher(f Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithHTTPConfig sets the HTTP configuration of the default [Remote] fetcher.
func WithHTTPConfig(cfg *HTTPConfig) Option {
	return func(o *options) { o.httpConfig = cfg }
}

// WithTimeout sets the [Handshake] dial and handshake timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithVerifier replaces the default [Handshake] peer verification.
func WithVerifier(v Verifier) Option {
	return func(o *options) { o.verifier = v }
}

// WithServerName sets the name sent in SNI and checked by the default
// [Handshake] verifier. It defaults to the host.
func WithServerName(name string) Option {
	return func(o *options) { o.serverName = name }
}

// WithRootCAs adds roots to those the default [Handshake] verifier trusts.
func WithRootCAs(certs ...*x509.Certificate) Option {
	return func(o *options) { o.roots = append(o.roots, certs...) }
}

// lookup returns the certificate for the placeholder at index i, or nil to
// leave it as a gap.
type lookup func(i int, l x509chain.Link) (*x509.Certificate, error)

// fill applies certificates from next to successive placeholders, starting
// at the first one and moving toward the root, until next leaves a gap, a
// self-signed certificate ends the chain, or maxDepth links were filled.
func fill(ch *x509chain.Chain, tag string, maxDepth int, next lookup) (int, error) {
	for i, l := range ch.Links() {
		if !l.IsPlaceholder() {
			ch.EnsureIssuer(i)
		}
	}

	var filled int
	for filled < maxDepth {
		i, ok := ch.FirstUnresolved()
		if !ok {
			return filled, nil
		}
		l, _ := ch.Link(i)

		cert, err := next(i, l)
		if err != nil || cert == nil {
			return filled, err
		}
		if err := ch.Apply(i, cert, tag); err != nil {
			return filled, err
		}
		filled++
	}
	return filled, nil
}
