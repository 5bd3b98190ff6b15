// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
)

// DefaultHandshakeTimeout bounds connecting to and handshaking with a
// server.
const DefaultHandshakeTimeout = 5 * time.Second

var (
	// ErrVerification wraps the error of a rejected peer chain.
	ErrVerification = errors.New("resolver: peer certificate verification failed")
	// ErrNoPeerCertificates is returned by the handshake when the server
	// presents no certificate.
	ErrNoPeerCertificates = errors.New("resolver: server presented no certificates")
)

// Verifier decides whether the certificates presented by a server are
// acceptable. authType is the negotiated cipher suite name.
type Verifier func(certs []*x509.Certificate, authType string) error

// Handshake resolves a chain from the certificates a TLS server presents.
//
// The presented certificates are recorded on the chain before the
// verifier runs, so they are kept when verification fails. The outcome of
// the connection is reported through Status and LastError.
type Handshake struct {
	tracker
	host string
	port int
	opts options
}

// NewHandshake creates a resolver for host:port.
func NewHandshake(host string, port int, opts ...Option) (*Handshake, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrInvalidArgument)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidArgument, port)
	}
	return &Handshake{
		tracker: newTracker(),
		host:    host,
		port:    port,
		opts:    newOptions(opts),
	}, nil
}

// Address returns the host:port dialed by h.
func (h *Handshake) Address() string {
	return net.JoinHostPort(h.host, strconv.Itoa(h.port))
}

// Resolve connects to the server and records its certificates on ch. An
// empty chain is built from them; otherwise they fill matching
// placeholders.
//
// Connection and verification failures are not returned; they set Status.
func (h *Handshake) Resolve(ctx context.Context, ch *x509chain.Chain) (*x509chain.Chain, error) {
	if ch == nil {
		return nil, ErrInvalidArgument
	}

	serverName := h.opts.serverName
	if serverName == "" {
		serverName = h.host
	}

	verify := h.opts.verifier
	if verify == nil {
		verify = h.defaultVerifier(ch, serverName)
	}

	config := &tls.Config{
		ServerName: serverName,
		// Verification happens in VerifyConnection once the presented
		// certificates are on the chain.
		InsecureSkipVerify: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) == 0 {
				return fmt.Errorf("%w: %w", ErrVerification, ErrNoPeerCertificates)
			}
			if _, err := ch.Populate(cs.PeerCertificates, x509chain.ResolvedByServer); err != nil {
				h.opts.log.Printf("Could not record certificates from [%s]: %v", h.Address(), err)
			}
			if err := verify(cs.PeerCertificates, tls.CipherSuiteName(cs.CipherSuite)); err != nil {
				return fmt.Errorf("%w: %w", ErrVerification, err)
			}
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.timeout)
	defer cancel()

	h.opts.log.Printf("Connecting to [%s]", h.Address())
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: h.opts.timeout},
		Config:    config,
	}
	conn, err := dialer.DialContext(ctx, "tcp", h.Address())
	if err == nil {
		conn.Close()
	}

	status := Classify(err)
	if err != nil {
		h.opts.log.Printf("Handshake with [%s] failed (%s): %v", h.Address(), status, err)
	}
	h.record(status, err)
	return ch, nil
}

// defaultVerifier checks the leaf against serverName using the chain's
// store and any configured roots as trust anchors. The pool is taken
// before the handshake, so the server cannot vouch for itself.
func (h *Handshake) defaultVerifier(ch *x509chain.Chain, serverName string) Verifier {
	roots := ch.Store().CertPool()
	for _, c := range h.opts.roots {
		roots.AddCert(c)
	}

	return func(certs []*x509.Certificate, _ string) error {
		intermediates := x509.NewCertPool()
		for _, c := range certs[1:] {
			intermediates.AddCert(c)
		}
		_, err := certs[0].Verify(x509.VerifyOptions{
			DNSName:       serverName,
			Roots:         roots,
			Intermediates: intermediates,
		})
		return err
	}
}
