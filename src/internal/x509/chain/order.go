// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"

	"github.com/brylex/sancus/src/internal/x509/dn"
)

// CompareIssuance orders two certificates by issuance: it returns -1 when b
// issued a (a comes first), 1 when a issued b, and 0 when the two are
// unrelated or identical. Self-signed certificates never precede others
// by virtue of issuing themselves.
func CompareIssuance(a, b *x509.Certificate) int {
	if a == nil || b == nil || a == b || a.Equal(b) {
		return 0
	}
	switch {
	case dn.Issuer(a).Equal(dn.Subject(b)) && !IsSelfSigned(a):
		return -1
	case dn.Issuer(b).Equal(dn.Subject(a)) && !IsSelfSigned(b):
		return 1
	default:
		return 0
	}
}

type node struct {
	cert    *x509.Certificate
	subject string
	issuer  string
	self    bool
}

// SortIssuance returns certs ordered leaf first, each followed by its
// issuer. Duplicates are dropped.
//
// The leaf is the first certificate, in input order, that issued none of
// the others. From there each step picks the not yet used certificate whose
// subject equals the current issuer, until a self-signed certificate is
// reached or no issuer is present. Certificates off that path follow in
// input order. A set forming a single issuance path is therefore ordered
// leaf to root regardless of how it was given.
func SortIssuance(certs []*x509.Certificate) []*x509.Certificate {
	nodes := make([]node, 0, len(certs))
	for _, c := range certs {
		if c == nil || containsCert(nodes, c) {
			continue
		}
		nodes = append(nodes, node{
			cert:    c,
			subject: dn.Subject(c).Key(),
			issuer:  dn.Issuer(c).Key(),
			self:    IsSelfSigned(c),
		})
	}
	if len(nodes) == 0 {
		return nil
	}

	used := make([]bool, len(nodes))
	out := make([]*x509.Certificate, 0, len(nodes))

	cur := leafIndex(nodes)
	for cur >= 0 {
		used[cur] = true
		out = append(out, nodes[cur].cert)
		if nodes[cur].self {
			break
		}
		cur = issuerIndex(nodes, used, nodes[cur].issuer)
	}

	for i, n := range nodes {
		if !used[i] {
			out = append(out, n.cert)
		}
	}
	return out
}

func containsCert(nodes []node, c *x509.Certificate) bool {
	for _, n := range nodes {
		if n.cert.Equal(c) {
			return true
		}
	}
	return false
}

// leafIndex returns the first node that issued no other node.
func leafIndex(nodes []node) int {
	for i, n := range nodes {
		issued := false
		for j, m := range nodes {
			if i != j && !m.self && m.issuer == n.subject {
				issued = true
				break
			}
		}
		if !issued {
			return i
		}
	}
	return 0
}

func issuerIndex(nodes []node, used []bool, issuer string) int {
	for i, n := range nodes {
		if !used[i] && n.subject == issuer {
			return i
		}
	}
	return -1
}
