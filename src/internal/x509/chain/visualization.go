// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Link roles reported by the renderers.
const (
	RoleLeaf         = "End-Entity (Server/Leaf) Certificate"
	RoleIntermediate = "Intermediate CA Certificate"
	RoleRoot         = "Root CA Certificate"
	RoleSelfSigned   = "Self-Signed Certificate"
	RoleMissing      = "Missing Issuer"
)

type row struct {
	index int
	link  Link
	role  string
}

// rows collects the walk with the role of every link.
func (ch *Chain) rows() []row {
	var rows []row
	for i, l := range ch.Links() {
		rows = append(rows, row{index: i, link: l})
	}
	for n := range rows {
		rows[n].role = role(rows, n)
	}
	return rows
}

func role(rows []row, n int) string {
	l := rows[n].link
	switch {
	case l.IsPlaceholder():
		return RoleMissing
	case l.IsTerminal() && len(rows) == 1:
		return RoleSelfSigned
	case l.IsTerminal():
		return RoleRoot
	case n == 0:
		return RoleLeaf
	default:
		return RoleIntermediate
	}
}

func keyInfo(pub any) (string, int) {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return "RSA", key.Size() * 8
	case *ecdsa.PublicKey:
		return "ECDSA", key.Curve.Params().BitSize
	case ed25519.PublicKey:
		return "Ed25519", 256
	default:
		return "unknown", 0
	}
}

// RenderASCIITree renders the chain as an ASCII tree, one link per line,
// each prefixed with its resolver tag and trust mark.
//
// Returns:
//   - string: Tree representation of the chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree() string {
	rows := ch.rows()
	if len(rows) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for n, r := range rows {
		connector := "├── "
		if n == len(rows)-1 {
			connector = "└── "
		}
		result.WriteString(strings.Repeat("    ", n))
		result.WriteString(connector)
		result.WriteString(r.link.String())
		result.WriteString(" (" + r.role + ")\n")
	}

	return result.String()
}

// RenderTable renders the chain as a markdown table listing role, subject,
// resolver tag, trust mark and expiry of every link.
//
// Returns:
//   - string: Markdown table representation of the chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderTable() string {
	rows := ch.rows()
	if len(rows) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	headers := []string{"#", "Role", "Subject", "Resolved By", "Trusted By", "Valid Until", "Key"}
	table.Header(headers)

	var cells [][]string
	for n, r := range rows {
		validUntil, key := "-", "-"
		if cert := r.link.Certificate(); cert != nil {
			validUntil = cert.NotAfter.Format("2006-01-02")
			algo, size := keyInfo(cert.PublicKey)
			key = fmt.Sprintf("%d-bit %s", size, algo)
		}

		cells = append(cells, []string{
			fmt.Sprintf("%d", n+1),
			r.role,
			r.link.Identity().String(),
			r.link.ResolvedBy(),
			r.link.TrustedBy(),
			validUntil,
			key,
		})
	}

	table.Bulk(cells)
	table.Render()
	return buf.String()
}

// VisualizationLink describes one link in [Chain.ToVisualizationJSON].
type VisualizationLink struct {
	Index              int        `json:"index"`
	Role               string     `json:"role"`
	Subject            string     `json:"subject"`
	Issuer             string     `json:"issuer,omitempty"`
	ResolvedBy         string     `json:"resolvedBy"`
	TrustedBy          string     `json:"trustedBy"`
	Placeholder        bool       `json:"placeholder"`
	SerialNumber       string     `json:"serialNumber,omitempty"`
	SignatureAlgorithm string     `json:"signatureAlgorithm,omitempty"`
	PublicKeyAlgorithm string     `json:"publicKeyAlgorithm,omitempty"`
	KeySize            int        `json:"keySize,omitempty"`
	NotBefore          *time.Time `json:"notBefore,omitempty"`
	NotAfter           *time.Time `json:"notAfter,omitempty"`
	IsCA               bool       `json:"isCA"`
}

// VisualizationRelationship is an issued-by edge between two links.
type VisualizationRelationship struct {
	FromIndex int    `json:"fromIndex"`
	ToIndex   int    `json:"toIndex"`
	Type      string `json:"type"`
}

// Visualization is the document produced by [Chain.ToVisualizationJSON].
type Visualization struct {
	Timestamp     string                      `json:"timestamp"`
	ChainLength   int                         `json:"chainLength"`
	Complete      bool                        `json:"complete"`
	Links         []VisualizationLink         `json:"links"`
	Relationships []VisualizationRelationship `json:"relationships"`
}

// ToVisualizationJSON converts the chain to structured JSON for external
// tools. Indices follow the walk from the head, starting at 0.
//
// Returns:
//   - []byte: JSON representation of the chain
//   - error: Error if JSON marshaling fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) ToVisualizationJSON() ([]byte, error) {
	rows := ch.rows()

	data := Visualization{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ChainLength:   len(rows),
		Complete:      ch.IsComplete(),
		Links:         make([]VisualizationLink, len(rows)),
		Relationships: make([]VisualizationRelationship, 0, len(rows)),
	}

	for n, r := range rows {
		v := VisualizationLink{
			Index:       n,
			Role:        r.role,
			Subject:     r.link.Identity().String(),
			ResolvedBy:  r.link.ResolvedBy(),
			TrustedBy:   r.link.TrustedBy(),
			Placeholder: r.link.IsPlaceholder(),
		}
		if cert := r.link.Certificate(); cert != nil {
			notBefore, notAfter := cert.NotBefore, cert.NotAfter
			v.Issuer = cert.Issuer.String()
			v.SerialNumber = cert.SerialNumber.String()
			v.SignatureAlgorithm = cert.SignatureAlgorithm.String()
			v.PublicKeyAlgorithm, v.KeySize = keyInfo(cert.PublicKey)
			v.NotBefore = &notBefore
			v.NotAfter = &notAfter
			v.IsCA = cert.IsCA
		}
		data.Links[n] = v

		if n > 0 {
			data.Relationships = append(data.Relationships, VisualizationRelationship{
				FromIndex: n - 1,
				ToIndex:   n,
				Type:      "issued_by",
			})
		}
	}

	return json.MarshalIndent(data, "", "  ")
}
