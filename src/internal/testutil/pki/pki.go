// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package pki issues throwaway certificate hierarchies for tests.
package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var serial atomic.Int64

// Authority is a certificate together with the key that signed into it.
type Authority struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

// Option customizes a certificate template before it is signed.
type Option func(*x509.Certificate)

// WithIssuerURL sets the caIssuers access location of the authority
// information access extension.
func WithIssuerURL(url string) Option {
	return func(tmpl *x509.Certificate) {
		tmpl.IssuingCertificateURL = append(tmpl.IssuingCertificateURL, url)
	}
}

// WithOCSPServer sets an OCSP access location, which must not be mistaken
// for an issuer location.
func WithOCSPServer(url string) Option {
	return func(tmpl *x509.Certificate) {
		tmpl.OCSPServer = append(tmpl.OCSPServer, url)
	}
}

// WithSubject replaces the generated subject.
func WithSubject(name pkix.Name) Option {
	return func(tmpl *x509.Certificate) {
		tmpl.Subject = name
	}
}

// WithDNSNames adds subject alternative names.
func WithDNSNames(names ...string) Option {
	return func(tmpl *x509.Certificate) {
		tmpl.DNSNames = append(tmpl.DNSNames, names...)
	}
}

// WithIPAddresses adds IP subject alternative names.
func WithIPAddresses(ips ...net.IP) Option {
	return func(tmpl *x509.Certificate) {
		tmpl.IPAddresses = append(tmpl.IPAddresses, ips...)
	}
}

// Name builds a subject with the given common name and a fixed organization.
func Name(cn string) pkix.Name {
	return pkix.Name{
		CommonName:   cn,
		Organization: []string{"Sancus Test"},
		Country:      []string{"US"},
	}
}

// NewRoot issues a self-signed CA.
func NewRoot(t testing.TB, cn string, opts ...Option) *Authority {
	t.Helper()
	tmpl := template(cn, true)
	for _, opt := range opts {
		opt(tmpl)
	}
	key := newKey(t)
	return sign(t, tmpl, tmpl, key, key)
}

// NewIntermediate issues a CA signed by a.
func (a *Authority) NewIntermediate(t testing.TB, cn string, opts ...Option) *Authority {
	t.Helper()
	tmpl := template(cn, true)
	for _, opt := range opts {
		opt(tmpl)
	}
	return sign(t, tmpl, a.Cert, newKey(t), a.Key)
}

// NewLeaf issues an end-entity certificate signed by a.
func (a *Authority) NewLeaf(t testing.TB, cn string, opts ...Option) *Authority {
	t.Helper()
	tmpl := template(cn, false)
	tmpl.DNSNames = []string{cn}
	for _, opt := range opts {
		opt(tmpl)
	}
	return sign(t, tmpl, a.Cert, newKey(t), a.Key)
}

// TLSCertificate returns a serving certificate that presents a followed by
// the given chain certificates.
func (a *Authority) TLSCertificate(chain ...*x509.Certificate) tls.Certificate {
	der := [][]byte{a.Cert.Raw}
	for _, c := range chain {
		der = append(der, c.Raw)
	}
	return tls.Certificate{
		Certificate: der,
		PrivateKey:  a.Key,
		Leaf:        a.Cert,
	}
}

// PEM encodes certs as concatenated CERTIFICATE blocks.
func PEM(certs ...*x509.Certificate) []byte {
	var out []byte
	for _, c := range certs {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})...)
	}
	return out
}

func template(cn string, ca bool) *x509.Certificate {
	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial.Add(1)),
		Subject:               Name(cn),
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  ca,
		KeyUsage:              x509.KeyUsageDigitalSignature,
	}
	if ca {
		tmpl.KeyUsage |= x509.KeyUsageCertSign | x509.KeyUsageCRLSign
	} else {
		tmpl.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	}
	return tmpl
}

func newKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate key")
	return key
}

func sign(t testing.TB, tmpl, parent *x509.Certificate, key *ecdsa.PrivateKey, signer crypto.Signer) *Authority {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, key.Public(), signer)
	require.NoError(t, err, "failed to create certificate")
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err, "failed to parse certificate")
	return &Authority{Cert: cert, Key: key}
}

var (
	oidData       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
)

// PKCS7 wraps certs in a degenerate, certificate-only SignedData bundle as
// served from .p7c issuer locations.
func PKCS7(t testing.TB, certs ...*x509.Certificate) []byte {
	t.Helper()

	var raw []byte
	for _, c := range certs {
		raw = append(raw, c.Raw...)
	}

	emptySet := asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagSet, IsCompound: true}
	signed := struct {
		Version          int
		DigestAlgorithms asn1.RawValue
		ContentInfo      struct{ ContentType asn1.ObjectIdentifier }
		Certificates     asn1.RawValue
		CRLs             asn1.RawValue
		SignerInfos      asn1.RawValue
	}{
		Version:          1,
		DigestAlgorithms: emptySet,
		Certificates:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: raw},
		CRLs:             asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 1, IsCompound: true},
		SignerInfos:      emptySet,
	}
	signed.ContentInfo.ContentType = oidData

	signedDER, err := asn1.Marshal(signed)
	require.NoError(t, err, "failed to marshal SignedData")

	der, err := asn1.Marshal(struct {
		ContentType asn1.ObjectIdentifier
		Content     asn1.RawValue
	}{
		ContentType: oidSignedData,
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: signedDER},
	})
	require.NoError(t, err, "failed to marshal ContentInfo")
	return der
}
