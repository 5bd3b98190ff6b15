// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brylex/sancus/src/internal/testutil/pki"
	x509certs "github.com/brylex/sancus/src/internal/x509/certs"
)

const (
	invalidPEM = `
-----BEGIN INVALID-----
MIIEmTCCBD+gAwIBAgIRANFjRCmF+Y2bUYHbhxwkEpowCgYIKoZIzj0EAwIwgY8x
-----END INVALID-----
`

	invalidCERT = `
-----BEGIN CERTIFICATE-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END CERTIFICATE-----
`
)

type fixture struct {
	root, intermediate, leaf *x509.Certificate
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := pki.NewRoot(t, "Codec Root CA")
	intermediate := root.NewIntermediate(t, "Codec Intermediate CA")
	leaf := intermediate.NewLeaf(t, "codec.example.com")
	return fixture{root: root.Cert, intermediate: intermediate.Cert, leaf: leaf.Cert}
}

func TestCertificateOperations(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name     string
		testFunc func(t *testing.T, decoder *x509certs.Certificate)
	}{
		{
			name: "Decode PEM Certificate",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				cert, err := decoder.Decode(pki.PEM(fx.leaf))
				require.NoError(t, err, "Decode() error")
				assert.True(t, cert.Equal(fx.leaf))
			},
		},
		{
			name: "Decode DER Certificate",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				cert, err := decoder.Decode(decoder.EncodeDER(fx.leaf))
				require.NoError(t, err, "Decode() error")
				assert.Equal(t, "codec.example.com", cert.Subject.CommonName)
			},
		},
		{
			name: "Decode Falls Back To Bundle",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				cert, err := decoder.Decode(pki.PKCS7(t, fx.intermediate, fx.root))
				require.NoError(t, err, "Decode() error")
				assert.True(t, cert.Equal(fx.intermediate), "expected first embedded certificate")
			},
		},
		{
			name: "Decode PEM Wrapped Bundle",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				data := pem.EncodeToMemory(&pem.Block{Type: "PKCS7", Bytes: pki.PKCS7(t, fx.root)})
				cert, err := decoder.Decode(data)
				require.NoError(t, err, "Decode() error")
				assert.True(t, cert.Equal(fx.root))
			},
		},
		{
			name: "Decode Bundle Preserves Order",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				certs, err := decoder.DecodeBundle(pki.PKCS7(t, fx.intermediate, fx.root))
				require.NoError(t, err, "DecodeBundle() error")
				require.Len(t, certs, 2)
				assert.True(t, certs[0].Equal(fx.intermediate))
				assert.True(t, certs[1].Equal(fx.root))
			},
		},
		{
			name: "Decode Bundle Rejects Certificate",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				_, err := decoder.DecodeBundle(fx.leaf.Raw)
				assert.ErrorIs(t, err, x509certs.ErrParsePKCS7)
			},
		},
		{
			name: "Decode Issuer Prefers Bundle",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				cert, err := decoder.DecodeIssuer(pki.PKCS7(t, fx.root, fx.intermediate))
				require.NoError(t, err, "DecodeIssuer() error")
				assert.True(t, cert.Equal(fx.root))
			},
		},
		{
			name: "Decode Issuer Falls Back To Certificate",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				cert, err := decoder.DecodeIssuer(fx.intermediate.Raw)
				require.NoError(t, err, "DecodeIssuer() error")
				assert.True(t, cert.Equal(fx.intermediate))

				cert, err = decoder.DecodeIssuer(pki.PEM(fx.root))
				require.NoError(t, err, "DecodeIssuer() error")
				assert.True(t, cert.Equal(fx.root))
			},
		},
		{
			name: "Decode Issuer Garbage",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				_, err := decoder.DecodeIssuer([]byte("<html>not found</html>"))
				assert.ErrorIs(t, err, x509certs.ErrParseCertificate)

				_, err = decoder.DecodeIssuer(nil)
				assert.ErrorIs(t, err, x509certs.ErrEmptyInput)
			},
		},
		{
			name: "Decode-Encode-Decode Round Trip",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate) {
				encoded := decoder.EncodePEM(fx.root)
				decoded, err := decoder.Decode(encoded)
				require.NoError(t, err, "Decode() error")
				assert.True(t, fx.root.Equal(decoded), "original and decoded certificates are not equal")
			},
		},
	}

	decoder := x509certs.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t, decoder)
		})
	}
}

func TestDecodeCertificate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected error
	}{
		{
			name:     "Invalid PEM Block",
			input:    []byte(invalidPEM),
			expected: x509certs.ErrInvalidBlockType,
		},
		{
			name:     "Invalid Certificate",
			input:    []byte(invalidCERT),
			expected: x509certs.ErrParseCertificate,
		},
		{
			name:     "Invalid DER Data",
			input:    []byte("not a certificate"),
			expected: x509certs.ErrParseCertificate,
		},
		{
			name:     "Empty Input",
			input:    nil,
			expected: x509certs.ErrEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder := x509certs.New()
			_, err := decoder.Decode(tt.input)
			assert.ErrorIs(t, err, tt.expected, "expected specific error")
		})
	}
}

func TestCertificate_IsPEM(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{
			name:     "Valid PEM",
			input:    pki.PEM(fx.leaf),
			expected: true,
		},
		{
			name:     "Invalid PEM",
			input:    []byte("not a pem block"),
			expected: false,
		},
		{
			name:     "Empty Input",
			input:    []byte(""),
			expected: false,
		},
		{
			name:     "PEM-like but invalid base64",
			input:    []byte("-----BEGIN CERTIFICATE-----\ninvalid-base64\n-----END CERTIFICATE-----"),
			expected: false,
		},
		{
			name:     "DER format (binary)",
			input:    fx.leaf.Raw,
			expected: false,
		},
	}

	decoder := x509certs.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decoder.IsPEM(tt.input), "IsPEM() result incorrect")
		})
	}
}

func TestCertificate_DecodeMultiple(t *testing.T) {
	fx := newFixture(t)
	decoder := x509certs.New()

	mixed := append(pki.PEM(fx.leaf), pem.EncodeToMemory(&pem.Block{
		Type:  "PKCS7",
		Bytes: pki.PKCS7(t, fx.intermediate, fx.root),
	})...)

	tests := []struct {
		name        string
		input       []byte
		expectCount int
		expectError error
	}{
		{
			name:        "Single PEM Certificate",
			input:       pki.PEM(fx.leaf),
			expectCount: 1,
		},
		{
			name:        "Multiple PEM Certificates",
			input:       decoder.EncodeMultiplePEM([]*x509.Certificate{fx.leaf, fx.intermediate, fx.root}),
			expectCount: 3,
		},
		{
			name:        "PEM Certificate And Bundle",
			input:       mixed,
			expectCount: 3,
		},
		{
			name:        "Concatenated DER",
			input:       decoder.EncodeMultipleDER([]*x509.Certificate{fx.leaf, fx.intermediate}),
			expectCount: 2,
		},
		{
			name:        "DER Bundle",
			input:       pki.PKCS7(t, fx.leaf, fx.intermediate, fx.root),
			expectCount: 3,
		},
		{
			name:        "Invalid PEM Type",
			input:       []byte(invalidPEM),
			expectError: x509certs.ErrInvalidBlockType,
		},
		{
			name:        "Invalid Certificate Data",
			input:       []byte(invalidCERT),
			expectError: x509certs.ErrParseCertificate,
		},
		{
			name:        "Whitespace Only",
			input:       []byte("  \n\t"),
			expectError: x509certs.ErrEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := decoder.DecodeMultiple(tt.input)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError, "expected specific error")
				return
			}

			require.NoError(t, err, "unexpected error")
			assert.Len(t, certs, tt.expectCount, "expected correct number of certificates")
		})
	}
}

func TestCertificate_EncodeMultiplePEM(t *testing.T) {
	fx := newFixture(t)
	decoder := x509certs.New()

	tests := []struct {
		name         string
		certs        []*x509.Certificate
		expectBlocks int
	}{
		{
			name:         "Single Certificate",
			certs:        []*x509.Certificate{fx.leaf},
			expectBlocks: 1,
		},
		{
			name:         "Whole Chain",
			certs:        []*x509.Certificate{fx.leaf, fx.intermediate, fx.root},
			expectBlocks: 3,
		},
		{
			name:         "Empty List",
			certs:        []*x509.Certificate{},
			expectBlocks: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := decoder.EncodeMultiplePEM(tt.certs)

			if tt.expectBlocks == 0 {
				assert.Empty(t, encoded, "expected empty result")
				return
			}

			var blocks []*pem.Block
			for rest := encoded; len(rest) > 0; {
				block, remainder := pem.Decode(rest)
				if block == nil {
					break
				}
				blocks = append(blocks, block)
				rest = remainder
			}

			require.Len(t, blocks, tt.expectBlocks, "expected correct number of PEM blocks")
			for i, block := range blocks {
				assert.Equal(t, "CERTIFICATE", block.Type)
				assert.Equal(t, tt.certs[i].Raw, block.Bytes, "block %d out of order", i)
			}
		})
	}
}
