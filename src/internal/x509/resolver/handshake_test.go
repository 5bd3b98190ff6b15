// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver_test

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brylex/sancus/src/internal/testutil/pki"
	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/internal/x509/resolver"
)

// serveTLS starts a TLS server presenting cert and returns its host and port.
func serveTLS(t *testing.T, cert tls.Certificate) (string, int) {
	t.Helper()
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{cert}}
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return splitAddr(t, srv.Listener.Addr())
}

func splitAddr(t *testing.T, addr net.Addr) (string, int) {
	t.Helper()
	host, portText, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portText)
	require.NoError(t, err)
	return host, port
}

func newLocalHierarchy(t *testing.T) hierarchy {
	t.Helper()
	return newHierarchy(t, pki.WithIPAddresses(net.ParseIP("127.0.0.1")))
}

func TestHandshake(t *testing.T) {
	h := newLocalHierarchy(t)

	tests := []struct {
		name     string
		presents []*x509.Certificate
		testFunc func(t *testing.T, host string, port int)
	}{
		{
			name:     "Full Chain",
			presents: []*x509.Certificate{h.intermediate.Cert, h.root.Cert},
			testFunc: func(t *testing.T, host string, port int) {
				hs, err := resolver.NewHandshake(host, port, resolver.WithRootCAs(h.root.Cert))
				require.NoError(t, err)
				assert.Equal(t, resolver.StatusPending, hs.Status())

				ch, err := hs.Resolve(context.Background(), x509chain.NewEmpty(nil))
				require.NoError(t, err)
				assert.Equal(t, resolver.StatusSuccess, hs.Status(), "last error: %v", hs.LastError())
				assert.True(t, ch.IsComplete())
				assert.Equal(t, 3, ch.Len())
				for _, l := range ch.Links() {
					assert.Equal(t, x509chain.ResolvedByServer, l.ResolvedBy())
				}
			},
		},
		{
			name:     "Partial Chain",
			presents: []*x509.Certificate{h.intermediate.Cert},
			testFunc: func(t *testing.T, host string, port int) {
				hs, err := resolver.NewHandshake(host, port, resolver.WithRootCAs(h.root.Cert))
				require.NoError(t, err)

				ch, err := hs.Resolve(context.Background(), x509chain.NewEmpty(nil))
				require.NoError(t, err)
				assert.Equal(t, resolver.StatusSuccess, hs.Status())
				assert.Equal(t, 3, ch.Len())

				last, ok := ch.Last()
				require.True(t, ok)
				assert.True(t, last.IsPlaceholder())
				assert.Equal(t, "Resolver Root CA", last.Identity().CommonName())
			},
		},
		{
			name: "Leaf Only Fails Verification But Keeps Certificates",
			testFunc: func(t *testing.T, host string, port int) {
				hs, err := resolver.NewHandshake(host, port)
				require.NoError(t, err)

				ch, err := hs.Resolve(context.Background(), x509chain.NewEmpty(nil))
				require.NoError(t, err)
				assert.Equal(t, resolver.StatusVerificationFailure, hs.Status())
				assert.ErrorIs(t, hs.LastError(), resolver.ErrVerification)

				head, ok := ch.Head()
				require.True(t, ok)
				assert.True(t, head.Certificate().Equal(h.leaf.Cert))

				last, _ := ch.Last()
				assert.True(t, last.IsPlaceholder())
				assert.Equal(t, "Resolver Intermediate CA", last.Identity().CommonName())
			},
		},
		{
			name:     "Custom Verifier",
			presents: []*x509.Certificate{h.intermediate.Cert},
			testFunc: func(t *testing.T, host string, port int) {
				var seen int
				var authType string
				rejected := errors.New("rejected")
				hs, err := resolver.NewHandshake(host, port, resolver.WithVerifier(
					func(certs []*x509.Certificate, at string) error {
						seen = len(certs)
						authType = at
						return rejected
					},
				))
				require.NoError(t, err)

				ch, err := hs.Resolve(context.Background(), x509chain.NewEmpty(nil))
				require.NoError(t, err)
				assert.Equal(t, 2, seen)
				assert.NotEmpty(t, authType)
				assert.Equal(t, resolver.StatusVerificationFailure, hs.Status())
				assert.ErrorIs(t, hs.LastError(), rejected)
				assert.Equal(t, 3, ch.Len())
			},
		},
		{
			name:     "Fills Existing Placeholders",
			presents: []*x509.Certificate{h.intermediate.Cert, h.root.Cert},
			testFunc: func(t *testing.T, host string, port int) {
				hs, err := resolver.NewHandshake(host, port, resolver.WithRootCAs(h.root.Cert))
				require.NoError(t, err)

				ch := leafChain(t, h)
				_, err = hs.Resolve(context.Background(), ch)
				require.NoError(t, err)
				assert.True(t, ch.IsComplete())
				assert.Equal(t, 3, ch.Len())
			},
		},
		{
			name:     "Wrong Server Name",
			presents: []*x509.Certificate{h.intermediate.Cert},
			testFunc: func(t *testing.T, host string, port int) {
				hs, err := resolver.NewHandshake(host, port,
					resolver.WithRootCAs(h.root.Cert),
					resolver.WithServerName("other.example.com"))
				require.NoError(t, err)

				_, err = hs.Resolve(context.Background(), x509chain.NewEmpty(nil))
				require.NoError(t, err)
				assert.Equal(t, resolver.StatusVerificationFailure, hs.Status())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := serveTLS(t, h.leaf.TLSCertificate(tt.presents...))
			tt.testFunc(t, host, port)
		})
	}
}

func TestHandshake_ConnectionFailures(t *testing.T) {
	t.Run("Refused", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		host, port := splitAddr(t, ln.Addr())
		require.NoError(t, ln.Close())

		hs, err := resolver.NewHandshake(host, port)
		require.NoError(t, err)

		ch, err := hs.Resolve(context.Background(), x509chain.NewEmpty(nil))
		require.NoError(t, err)
		assert.Equal(t, resolver.StatusRefused, hs.Status())
		assert.True(t, ch.IsEmpty())
	})

	t.Run("Timeout", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		// Accept connections and never answer the client hello.
		held := make(chan net.Conn, 4)
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					close(held)
					return
				}
				held <- conn
			}
		}()
		t.Cleanup(func() {
			ln.Close()
			for conn := range held {
				conn.Close()
			}
		})

		host, port := splitAddr(t, ln.Addr())
		hs, err := resolver.NewHandshake(host, port, resolver.WithTimeout(200*time.Millisecond))
		require.NoError(t, err)

		ch, err := hs.Resolve(context.Background(), x509chain.NewEmpty(nil))
		require.NoError(t, err)
		assert.Equal(t, resolver.StatusTimeout, hs.Status())
		assert.True(t, ch.IsEmpty())
	})

	t.Run("Invalid Arguments", func(t *testing.T) {
		_, err := resolver.NewHandshake("", 443)
		assert.ErrorIs(t, err, resolver.ErrInvalidArgument)

		_, err = resolver.NewHandshake("example.com", 0)
		assert.ErrorIs(t, err, resolver.ErrInvalidArgument)

		hs, err := resolver.NewHandshake("example.com", 443)
		require.NoError(t, err)
		assert.Equal(t, "example.com:443", hs.Address())

		_, err = hs.Resolve(context.Background(), nil)
		assert.ErrorIs(t, err, resolver.ErrInvalidArgument)
	})
}
