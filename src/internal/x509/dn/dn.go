// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dn

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Attribute is a single attribute=value component of an [Identity].
type Attribute struct {
	Type  asn1.ObjectIdentifier
	Value string
}

// normalized returns the comparison form of the attribute.
//
// Values are NFC-normalized, trimmed and case-folded. A fresh [cases.Caser]
// is created on every call because casers are stateful and must not be shared
// between goroutines.
func (a Attribute) normalized() string {
	v := norm.NFC.String(strings.TrimSpace(a.Value))
	v = cases.Fold().String(v)
	return a.Type.String() + "=" + v
}

// Identity is the structured subject or issuer name of a certificate.
//
// The zero value is an empty identity, which is only equal to another empty
// identity.
type Identity struct {
	rdns  pkix.RDNSequence
	attrs []Attribute
}

// FromRDNSequence builds an Identity from a parsed RDN sequence.
func FromRDNSequence(seq pkix.RDNSequence) Identity {
	id := Identity{rdns: seq}
	for _, set := range seq {
		for _, atv := range set {
			id.attrs = append(id.attrs, Attribute{
				Type:  atv.Type,
				Value: valueString(atv.Value),
			})
		}
	}
	return id
}

// FromName builds an Identity from a [pkix.Name].
//
// Names parsed from certificates carry every attribute in Names; names built
// by hand only have the typed fields populated, so those are converted through
// ToRDNSequence.
func FromName(name pkix.Name) Identity {
	if len(name.Names) > 0 {
		seq := make(pkix.RDNSequence, 0, len(name.Names))
		for _, atv := range name.Names {
			seq = append(seq, pkix.RelativeDistinguishedNameSET{atv})
		}
		return FromRDNSequence(seq)
	}
	return FromRDNSequence(name.ToRDNSequence())
}

// fromRaw decodes a DER-encoded Name, falling back to the already parsed form.
func fromRaw(raw []byte, parsed pkix.Name) Identity {
	if len(raw) > 0 {
		var seq pkix.RDNSequence
		if rest, err := asn1.Unmarshal(raw, &seq); err == nil && len(rest) == 0 {
			return FromRDNSequence(seq)
		}
	}
	return FromName(parsed)
}

// Subject returns the subject identity of cert.
func Subject(cert *x509.Certificate) Identity {
	if cert == nil {
		return Identity{}
	}
	return fromRaw(cert.RawSubject, cert.Subject)
}

// Issuer returns the issuer identity of cert.
func Issuer(cert *x509.Certificate) Identity {
	if cert == nil {
		return Identity{}
	}
	return fromRaw(cert.RawIssuer, cert.Issuer)
}

// Len returns the number of attribute components.
func (id Identity) Len() int { return len(id.attrs) }

// IsZero reports whether the identity has no components.
func (id Identity) IsZero() bool { return len(id.attrs) == 0 }

// Attributes returns a copy of the identity's components in their original order.
func (id Identity) Attributes() []Attribute { return slices.Clone(id.attrs) }

// CommonName returns the first common name component, or "" if there is none.
func (id Identity) CommonName() string {
	for _, a := range id.attrs {
		if a.Type.Equal(oidCommonName) {
			return a.Value
		}
	}
	return ""
}

// Key returns a canonical, order-independent representation of the identity.
//
// Two identities are [Identity.Equal] exactly when their keys are equal, which
// makes Key suitable for map lookups.
func (id Identity) Key() string {
	parts := id.normalizedParts()
	return strings.Join(parts, "\x00")
}

func (id Identity) normalizedParts() []string {
	parts := make([]string, len(id.attrs))
	for i, a := range id.attrs {
		parts[i] = a.normalized()
	}
	slices.Sort(parts)
	return parts
}

// Equal reports whether id and other have the same number of components and
// every component of one is present in the other, independent of order.
func (id Identity) Equal(other Identity) bool {
	if len(id.attrs) != len(other.attrs) {
		return false
	}
	return slices.Equal(id.normalizedParts(), other.normalizedParts())
}

// Equal is a convenience wrapper around [Identity.Equal].
func Equal(a, b Identity) bool { return a.Equal(b) }

// String returns the RFC 4514 form of the identity.
func (id Identity) String() string {
	if id.rdns == nil {
		return ""
	}
	return id.rdns.String()
}

func valueString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
