// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Output formats understood by [Render].
const (
	FormatTree  = "tree"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatPEM   = "pem"
	FormatText  = "text"
)

// Formats lists every supported output format.
var Formats = []string{FormatTree, FormatTable, FormatJSON, FormatPEM, FormatText}

// ErrUnknownFormat is returned by [Render] for an unsupported format.
var ErrUnknownFormat = errors.New("engine: unknown output format")

// Render formats the chain of res.
//
// The text format lists one link per line as [RESOLVEDBY][T|U] DN, where T
// marks a trusted link.
func Render(res *Result, format string) (string, error) {
	if res == nil || res.Chain == nil {
		return "", nil
	}
	ch := res.Chain

	switch strings.ToLower(format) {
	case FormatTree:
		return ch.RenderASCIITree(), nil
	case FormatTable:
		return ch.RenderTable(), nil
	case FormatJSON:
		data, err := ch.ToVisualizationJSON()
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatPEM:
		return string(ch.EncodePEM()), nil
	case FormatText:
		var b strings.Builder
		for _, l := range ch.Links() {
			b.WriteString(l.String())
			b.WriteByte('\n')
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// TrustFlag returns "T" for a trusted link and "U" otherwise.
func TrustFlag(trusted bool) string {
	if trusted {
		return "T"
	}
	return "U"
}

// Summary returns a one-line description of res.
func Summary(res *Result) string {
	if res == nil || res.Chain == nil {
		return "No chain"
	}

	parts := make([]string, 0, 5)
	if res.Handshake != "" {
		parts = append(parts, "handshake="+string(res.Handshake))
	}
	if res.Remote != "" {
		parts = append(parts, "remote="+string(res.Remote))
	}
	parts = append(parts,
		fmt.Sprintf("links=%d", res.Chain.Len()),
		fmt.Sprintf("complete=%t", res.Chain.IsComplete()),
		fmt.Sprintf("trusted=%d", res.Trusted),
	)
	return strings.Join(parts, " ")
}
