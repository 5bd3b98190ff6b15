// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"crypto/x509"
	"fmt"

	x509certs "github.com/brylex/sancus/src/internal/x509/certs"
	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/internal/x509/dn"
)

// TagRemote is recorded on links filled from a downloaded issuer.
const TagRemote = "REMOTE"

// Remote resolves placeholders by downloading the issuer named in the
// caIssuers location of the certificate below each gap.
//
// Failures to locate or download an issuer leave the gap in place and are
// reported through Status and LastError. Only a downloaded payload that is
// not a certificate is returned as an error.
type Remote struct {
	tracker
	fetcher Fetcher
	decoder *x509certs.Certificate
	opts    options
}

// NewRemote creates a remote resolver. Without [WithFetcher] it downloads
// over HTTP using [WithHTTPConfig] or the default configuration.
func NewRemote(opts ...Option) *Remote {
	o := newOptions(opts)
	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(o.httpConfig)
	}
	return &Remote{
		tracker: newTracker(),
		fetcher: fetcher,
		decoder: x509certs.New(),
		opts:    o,
	}
}

// Resolve downloads issuers until the chain ends in a self-signed
// certificate or an issuer cannot be obtained.
func (r *Remote) Resolve(ctx context.Context, ch *x509chain.Chain) (*x509chain.Chain, error) {
	if ch == nil {
		return nil, ErrInvalidArgument
	}
	r.record(StatusSuccess, nil)

	_, err := fill(ch, TagRemote, r.opts.maxDepth, func(i int, l x509chain.Link) (*x509.Certificate, error) {
		return r.download(ctx, ch, i, l)
	})
	return ch, err
}

func (r *Remote) download(ctx context.Context, ch *x509chain.Chain, i int, l x509chain.Link) (*x509.Certificate, error) {
	prev, ok := ch.Predecessor(i)
	if !ok {
		r.record(StatusNoLocation, nil)
		return nil, nil
	}
	below, _ := ch.Link(prev)

	location, err := IssuerURL(below.Certificate())
	if err != nil {
		r.opts.log.Printf("Malformed issuer location in [%s]: %v", below.Identity(), err)
		r.record(StatusMalformedExtension, err)
		return nil, nil
	}
	if location == "" {
		r.opts.log.Printf("No remote download location for [%s]", l.Identity())
		r.record(StatusNoLocation, nil)
		return nil, nil
	}

	r.opts.log.Printf("Downloading issuer certificate from [%s]", location)
	data, err := r.fetcher.Fetch(ctx, location)
	if err != nil {
		status := Classify(err)
		r.opts.log.Printf("Download from [%s] failed (%s): %v", location, status, err)
		r.record(status, err)
		return nil, nil
	}

	cert, err := r.decoder.DecodeIssuer(data)
	if err != nil {
		r.record(StatusError, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrCertificateParse, location, err)
	}

	if subject := dn.Subject(cert); !subject.Equal(l.Identity()) {
		err := fmt.Errorf("%w: want %s, got %s", x509chain.ErrIdentityMismatch, l.Identity(), subject)
		r.opts.log.Printf("Discarding certificate from [%s]: %v", location, err)
		r.record(StatusIdentityMismatch, err)
		return nil, nil
	}

	return cert, nil
}
