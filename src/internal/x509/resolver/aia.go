// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ErrMalformedAIA is returned when the authority information access
// extension cannot be decoded.
var ErrMalformedAIA = errors.New("resolver: malformed authority information access extension")

var (
	oidAuthorityInfoAccess = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}
	oidCAIssuers           = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 2}
)

// uniformResourceIdentifier is the GeneralName choice [6] IA5String.
var uniformResourceIdentifier = cbasn1.Tag(6).ContextSpecific()

// IssuerURL returns the first caIssuers URI of cert's authority information
// access extension. It returns "" without error when the extension is
// absent or carries no caIssuers URI.
func IssuerURL(cert *x509.Certificate) (string, error) {
	if cert == nil {
		return "", nil
	}
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidAuthorityInfoAccess) {
			return ParseCAIssuers(ext.Value)
		}
	}
	return "", nil
}

// ParseCAIssuers decodes the value of an authority information access
// extension and returns its first caIssuers URI:
//
//	AuthorityInfoAccessSyntax ::= SEQUENCE SIZE (1..MAX) OF AccessDescription
//	AccessDescription ::= SEQUENCE {
//	    accessMethod    OBJECT IDENTIFIER,
//	    accessLocation  GeneralName }
//
// Lengths use the full DER encoding, so URIs longer than 127 bytes decode.
func ParseCAIssuers(der []byte) (string, error) {
	input := cryptobyte.String(der)

	var descriptions cryptobyte.String
	if !input.ReadASN1(&descriptions, cbasn1.SEQUENCE) || !input.Empty() {
		return "", ErrMalformedAIA
	}

	for !descriptions.Empty() {
		var (
			description cryptobyte.String
			method      asn1.ObjectIdentifier
			location    cryptobyte.String
			tag         cbasn1.Tag
		)
		if !descriptions.ReadASN1(&description, cbasn1.SEQUENCE) ||
			!description.ReadASN1ObjectIdentifier(&method) ||
			!description.ReadAnyASN1(&location, &tag) {
			return "", ErrMalformedAIA
		}

		if method.Equal(oidCAIssuers) && tag == uniformResourceIdentifier {
			return string(location), nil
		}
	}

	return "", nil
}
