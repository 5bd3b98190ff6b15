// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dn

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyName is returned by [Parse] for an empty string.
	ErrEmptyName = errors.New("dn: empty distinguished name")
	// ErrMalformedName is returned by [Parse] for input it cannot split into
	// attribute=value components.
	ErrMalformedName = errors.New("dn: malformed distinguished name")
	// ErrUnknownAttribute is returned by [Parse] for an attribute keyword that
	// is neither a known short name nor a dotted OID.
	ErrUnknownAttribute = errors.New("dn: unknown attribute type")
)

var (
	oidCommonName         = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidSurname            = asn1.ObjectIdentifier{2, 5, 4, 4}
	oidSerialNumber       = asn1.ObjectIdentifier{2, 5, 4, 5}
	oidCountry            = asn1.ObjectIdentifier{2, 5, 4, 6}
	oidLocality           = asn1.ObjectIdentifier{2, 5, 4, 7}
	oidProvince           = asn1.ObjectIdentifier{2, 5, 4, 8}
	oidStreetAddress      = asn1.ObjectIdentifier{2, 5, 4, 9}
	oidOrganization       = asn1.ObjectIdentifier{2, 5, 4, 10}
	oidOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}
	oidTitle              = asn1.ObjectIdentifier{2, 5, 4, 12}
	oidPostalCode         = asn1.ObjectIdentifier{2, 5, 4, 17}
	oidGivenName          = asn1.ObjectIdentifier{2, 5, 4, 42}
	oidDomainComponent    = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}
	oidUserID             = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}
	oidEmailAddress       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
)

var keywords = map[string]asn1.ObjectIdentifier{
	"CN":           oidCommonName,
	"SN":           oidSurname,
	"SERIALNUMBER": oidSerialNumber,
	"C":            oidCountry,
	"L":            oidLocality,
	"ST":           oidProvince,
	"S":            oidProvince,
	"STREET":       oidStreetAddress,
	"O":            oidOrganization,
	"OU":           oidOrganizationalUnit,
	"T":            oidTitle,
	"TITLE":        oidTitle,
	"POSTALCODE":   oidPostalCode,
	"GIVENNAME":    oidGivenName,
	"DC":           oidDomainComponent,
	"UID":          oidUserID,
	"E":            oidEmailAddress,
	"EMAILADDRESS": oidEmailAddress,
}

// Parse parses the textual form of a distinguished name such as
// "CN=Example Root, O=Example, C=US".
//
// Components are separated by ',' or ';', multi-valued components by '+'.
// Backslash escapes a single character or introduces a two-digit hex byte.
// As in RFC 4514, the most specific component comes first, so the result's
// [Identity.String] reproduces the input's order.
func Parse(s string) (Identity, error) {
	if strings.TrimSpace(s) == "" {
		return Identity{}, ErrEmptyName
	}

	rdnParts, err := split(s, ",;")
	if err != nil {
		return Identity{}, err
	}

	seq := make(pkix.RDNSequence, 0, len(rdnParts))
	for _, rdn := range rdnParts {
		avas, err := split(rdn, "+")
		if err != nil {
			return Identity{}, err
		}
		set := make(pkix.RelativeDistinguishedNameSET, 0, len(avas))
		for _, ava := range avas {
			atv, err := parseAttribute(ava)
			if err != nil {
				return Identity{}, err
			}
			set = append(set, atv)
		}
		seq = append(seq, set)
	}

	// Textual names list the most specific RDN first; the DER sequence is
	// stored root-most first.
	for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
		seq[i], seq[j] = seq[j], seq[i]
	}
	return FromRDNSequence(seq), nil
}

// MustParse is like [Parse] but panics on error. It is intended for tests and
// package-level variables.
func MustParse(s string) Identity {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// split cuts s at every unescaped separator, keeping escapes intact.
func split(s, seps string) ([]string, error) {
	var (
		parts   []string
		start   int
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case strings.IndexByte(seps, s[i]) >= 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if escaped {
		return nil, fmt.Errorf("%w: trailing escape in %q", ErrMalformedName, s)
	}
	parts = append(parts, s[start:])
	return parts, nil
}

func parseAttribute(ava string) (pkix.AttributeTypeAndValue, error) {
	eq := indexUnescaped(ava, '=')
	if eq < 0 {
		return pkix.AttributeTypeAndValue{}, fmt.Errorf("%w: missing '=' in %q", ErrMalformedName, ava)
	}

	keyword := strings.TrimSpace(ava[:eq])
	oid, err := attributeType(keyword)
	if err != nil {
		return pkix.AttributeTypeAndValue{}, err
	}

	value, err := unescape(strings.TrimSpace(ava[eq+1:]))
	if err != nil {
		return pkix.AttributeTypeAndValue{}, err
	}
	return pkix.AttributeTypeAndValue{Type: oid, Value: value}, nil
}

func attributeType(keyword string) (asn1.ObjectIdentifier, error) {
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty attribute type", ErrMalformedName)
	}
	if oid, ok := keywords[strings.ToUpper(keyword)]; ok {
		return oid, nil
	}

	arcs := strings.Split(strings.TrimPrefix(strings.ToUpper(keyword), "OID."), ".")
	if len(arcs) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, keyword)
	}
	oid := make(asn1.ObjectIdentifier, len(arcs))
	for i, arc := range arcs {
		n, err := strconv.Atoi(arc)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, keyword)
		}
		oid[i] = n
	}
	return oid, nil
}

func indexUnescaped(s string, c byte) int {
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == c:
			return i
		}
	}
	return -1
}

func unescape(s string) (string, error) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("%w: trailing escape in %q", ErrMalformedName, s)
		}
		if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			decoded, _ := hex.DecodeString(s[i+1 : i+3])
			b.Write(decoded)
			i += 2
			continue
		}
		b.WriteByte(s[i+1])
		i++
	}
	return b.String(), nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
