// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
)

var (
	// ErrEmptyInput indicates that no data was provided.
	ErrEmptyInput = errors.New("x509certs: empty input")

	// ErrInvalidPEMBlock indicates that the provided data does not contain a valid PEM block.
	ErrInvalidPEMBlock = errors.New("x509certs: invalid PEM block")

	// ErrInvalidBlockType indicates that the PEM block type is neither a certificate nor a bundle.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse the certificate from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrParsePKCS7 indicates a failure to parse PKCS7 formatted data.
	ErrParsePKCS7 = errors.New("x509certs: failed to parse PKCS7 data")

	// ErrNoCertificatesInPKCS indicates that no certificates were found in the PKCS7 data.
	ErrNoCertificatesInPKCS = errors.New("x509certs: no certificates found in PKCS7 data")
)

// Certificate decodes and encodes [X.509] certificates and PKCS#7
// certificate bundles.
//
// [X.509]: https://grokipedia.com/page/X.509
type Certificate struct {
	certBlockType   string
	bundleBlockType string
}

// New creates a new Certificate with default settings.
func New() *Certificate {
	return &Certificate{
		certBlockType:   "CERTIFICATE",
		bundleBlockType: "PKCS7",
	}
}

// IsPEM checks if the data is in PEM format.
func (c *Certificate) IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// decodePEMBlock decodes the first PEM block and checks its type.
func (c *Certificate) decodePEMBlock(data []byte) (*pem.Block, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMBlock
	}
	if block.Type != c.certBlockType && block.Type != c.bundleBlockType {
		return nil, ErrInvalidBlockType
	}
	return block, nil
}

// DecodeMultiple decodes every certificate in data.
//
// PEM input may mix CERTIFICATE and PKCS7 blocks; bundles are expanded in
// place. DER input is read as a sequence of certificates or, failing that,
// as a single PKCS#7 bundle.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	if c.IsPEM(data) {
		var certs []*x509.Certificate

		for len(data) > 0 {
			block, rest := pem.Decode(data)
			if block == nil {
				break
			}
			data = rest

			switch block.Type {
			case c.certBlockType:
				cert, err := x509.ParseCertificate(block.Bytes)
				if err != nil {
					return nil, ErrParseCertificate
				}
				certs = append(certs, cert)
			case c.bundleBlockType:
				bundle, err := c.DecodeBundle(block.Bytes)
				if err != nil {
					return nil, err
				}
				certs = append(certs, bundle...)
			default:
				return nil, ErrInvalidBlockType
			}
		}

		return certs, nil
	}

	certs, err := x509.ParseCertificates(data)
	if err == nil && len(certs) > 0 {
		return certs, nil
	}

	if bundle, bundleErr := c.DecodeBundle(data); bundleErr == nil {
		return bundle, nil
	}

	return nil, ErrParseCertificate
}

// DecodeBundle extracts the certificates embedded in a DER-encoded PKCS#7
// SignedData structure, in the order they appear.
func (c *Certificate) DecodeBundle(data []byte) ([]*x509.Certificate, error) {
	p, err := pkcs7.ParsePKCS7(data)
	if err != nil {
		return nil, ErrParsePKCS7
	}
	if len(p.Content.SignedData.Certificates) == 0 {
		return nil, ErrNoCertificatesInPKCS
	}
	return p.Content.SignedData.Certificates, nil
}

// Decode decodes a single certificate from data.
//
// DER and PEM certificates are tried first; PKCS#7 bundles yield their first
// embedded certificate.
func (c *Certificate) Decode(data []byte) (*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	if c.IsPEM(data) {
		block, err := c.decodePEMBlock(data)
		if err != nil {
			return nil, err
		}
		if block.Type == c.bundleBlockType {
			return c.firstOfBundle(block.Bytes)
		}
		data = block.Bytes
	}

	if cert, err := x509.ParseCertificate(data); err == nil {
		return cert, nil
	}

	if cert, err := c.firstOfBundle(data); err == nil {
		return cert, nil
	}

	return nil, ErrParseCertificate
}

// DecodeIssuer decodes a payload downloaded from an issuer location.
//
// Such payloads are commonly PKCS#7 bundles (.p7c), so the bundle form is
// attempted first and its first certificate returned; otherwise the payload
// is decoded as a single DER or PEM certificate.
func (c *Certificate) DecodeIssuer(data []byte) (*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if cert, err := c.firstOfBundle(data); err == nil {
		return cert, nil
	}
	return c.Decode(data)
}

func (c *Certificate) firstOfBundle(data []byte) (*x509.Certificate, error) {
	certs, err := c.DecodeBundle(data)
	if err != nil {
		return nil, err
	}
	return certs[0], nil
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	block := pem.Block{
		Type:  c.certBlockType,
		Bytes: cert.Raw,
	}
	return pem.EncodeToMemory(&block)
}

// EncodeDER encodes a certificate to DER format.
func (c *Certificate) EncodeDER(cert *x509.Certificate) []byte { return cert.Raw }

// EncodeMultiplePEM encodes multiple certificates to PEM format.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodePEM(cert)...)
	}

	return data
}

// EncodeMultipleDER encodes multiple certificates to DER format.
func (c *Certificate) EncodeMultipleDER(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodeDER(cert)...)
	}

	return data
}
