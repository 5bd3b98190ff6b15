// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package engine

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/internal/x509/resolver"
	"github.com/brylex/sancus/src/internal/x509/trust"
	"github.com/brylex/sancus/src/internal/x509/truststore"
	"github.com/brylex/sancus/src/logger"
	"github.com/brylex/sancus/src/version"
)

var (
	// ErrNoInput is returned when neither a host nor certificates are given.
	ErrNoInput = errors.New("engine: a host or certificates are required")
	// ErrAmbiguousInput is returned when both a host and certificates are given.
	ErrAmbiguousInput = errors.New("engine: a host and certificates are mutually exclusive")
	// ErrNoCertificates is returned when a handshake yields no certificate.
	ErrNoCertificates = errors.New("engine: server presented no certificates")
)

// Input selects the source of the presented certificates. Exactly one of
// Host and Certificates must be set.
type Input struct {
	Host         string
	Port         int
	Certificates []*x509.Certificate
}

// Result is the outcome of a pipeline run.
type Result struct {
	Chain *x509chain.Chain
	// Handshake is empty for certificate input.
	Handshake resolver.Status
	// Remote is empty when issuer downloads are disabled.
	Remote resolver.Status
	// Trusted counts the links marked by the trust stores.
	Trusted int
}

type namedStore struct {
	name  string
	store *truststore.Store
}

// Pipeline resolves and trust-marks chains according to a [Config].
//
// Thread Safety: Safe for concurrent use; each run works on its own chain.
type Pipeline struct {
	config *Config
	log    logger.Logger
	stores []namedStore

	systemOnce  sync.Once
	systemStore *truststore.Store
}

// New creates a pipeline, loading the trust stores named by cfg. The system
// bundle is loaded on first use. A nil cfg uses [DefaultConfig]; a nil log
// discards messages.
func New(cfg *Config, log logger.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Discard()
	}

	p := &Pipeline{config: cfg, log: log}
	for _, ts := range cfg.TrustStores {
		store, err := truststore.LoadFile(ts.Name, ts.Path)
		if err != nil {
			return nil, fmt.Errorf("loading trust store %s: %w", ts.Name, err)
		}
		p.stores = append(p.stores, namedStore{name: ts.Name, store: store})
	}
	return p, nil
}

// Config returns the configuration the pipeline was created with.
func (p *Pipeline) Config() *Config { return p.config }

// anchorStores returns the configured stores followed by the system store
// when enabled and available.
func (p *Pipeline) anchorStores() []namedStore {
	stores := p.stores
	if !p.config.System {
		return stores
	}

	p.systemOnce.Do(func() {
		store, err := truststore.System()
		if err != nil {
			p.log.Printf("System trust store unavailable: %v", err)
			return
		}
		p.systemStore = store
	})
	if p.systemStore != nil {
		stores = append(stores[:len(stores):len(stores)], namedStore{name: truststore.SystemTag, store: p.systemStore})
	}
	return stores
}

// Run builds the chain described by in, completes it and marks trusted
// links.
//
// Returns:
//   - *Result: Outcome; set whenever a chain was built, even on error
//   - error: [ErrNoInput], [ErrAmbiguousInput], [ErrNoCertificates] or the
//     first hard resolver error
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	hasHost := in.Host != ""
	hasCerts := len(in.Certificates) > 0
	switch {
	case !hasHost && !hasCerts:
		return nil, ErrNoInput
	case hasHost && hasCerts:
		return nil, ErrAmbiguousInput
	}

	stores := p.anchorStores()
	res := &Result{}

	if hasCerts {
		ch, err := x509chain.New(in.Certificates...)
		if err != nil {
			return nil, err
		}
		res.Chain = ch
	} else {
		ch, err := p.handshake(ctx, in, stores, res)
		if err != nil {
			return res, err
		}
		res.Chain = ch
	}

	resolvers, remote, err := p.resolvers(res.Chain, stores)
	if err != nil {
		return res, err
	}
	if _, err := resolver.Chain(resolvers...).Resolve(ctx, res.Chain); err != nil {
		return res, err
	}
	if remote != nil {
		res.Remote = remote.Status()
	}

	for _, s := range stores {
		res.Trusted += trust.FromStore(s.name, s.store).Mark(res.Chain)
	}
	return res, nil
}

func (p *Pipeline) handshake(ctx context.Context, in Input, stores []namedStore, res *Result) (*x509chain.Chain, error) {
	port := in.Port
	if port == 0 {
		port = p.config.Defaults.Port
	}

	roots := truststore.New()
	for _, s := range stores {
		if _, err := roots.Merge(s.name, s.store); err != nil {
			return nil, err
		}
	}

	hs, err := resolver.NewHandshake(in.Host, port,
		resolver.WithLogger(p.log),
		resolver.WithTimeout(time.Duration(p.config.Defaults.HandshakeTimeout)*time.Second),
		resolver.WithRootCAs(roots.Certificates()...),
	)
	if err != nil {
		return nil, err
	}

	ch := x509chain.NewEmpty(nil)
	if _, err := hs.Resolve(ctx, ch); err != nil {
		return nil, err
	}
	res.Handshake = hs.Status()

	if ch.IsEmpty() {
		res.Chain = ch
		if cause := hs.LastError(); cause != nil {
			return nil, fmt.Errorf("%w: %s (%s): %w", ErrNoCertificates, hs.Address(), res.Handshake, cause)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoCertificates, hs.Address())
	}
	return ch, nil
}

// resolvers returns, in order: the chain's own store, the anchor stores,
// the certificate directories, the remote resolver and the anchor stores
// once more to close gaps left above issuers found by the later sources.
func (p *Pipeline) resolvers(ch *x509chain.Chain, stores []namedStore) ([]resolver.Resolver, *resolver.Remote, error) {
	opts := []resolver.Option{resolver.WithLogger(p.log)}

	own, err := resolver.NewAnchorSetFromStore(x509chain.ResolvedByServer, ch.Store(), opts...)
	if err != nil {
		return nil, nil, err
	}
	resolvers := []resolver.Resolver{own}

	anchors := make([]resolver.Resolver, 0, len(stores))
	for _, s := range stores {
		a, err := resolver.NewAnchorSetFromStore(s.name, s.store, opts...)
		if err != nil {
			return nil, nil, err
		}
		anchors = append(anchors, a)
	}
	resolvers = append(resolvers, anchors...)

	for _, dir := range p.config.CertDirs {
		d, err := resolver.NewDir(dir, opts...)
		if err != nil {
			return nil, nil, err
		}
		resolvers = append(resolvers, d)
	}

	var remote *resolver.Remote
	if p.config.Remote {
		httpConfig := resolver.NewHTTPConfig(version.Version)
		httpConfig.Timeout = time.Duration(p.config.Defaults.FetchTimeout) * time.Second
		httpConfig.UserAgent = p.config.UserAgent

		remote = resolver.NewRemote(append(opts, resolver.WithHTTPConfig(httpConfig))...)
		resolvers = append(resolvers, remote)
	}

	return append(resolvers, anchors...), remote, nil
}

// WriteResolved writes, as PEM, every certificate of the chain's store that
// was not presented by the server.
func WriteResolved(w io.Writer, ch *x509chain.Chain) error {
	store := ch.Store()
	presented := make(map[string]bool)
	for _, alias := range store.AliasesWithTag(x509chain.ResolvedByServer) {
		presented[alias] = true
	}
	return store.WritePEM(w, func(alias string, _ *x509.Certificate) bool {
		return !presented[alias]
	})
}
