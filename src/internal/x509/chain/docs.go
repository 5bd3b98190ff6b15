// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain models an [X.509] certificate chain that may still have
// gaps.
//
// A chain is built from whatever certificates are at hand, ordered by
// issuance. Each certificate that is not self-signed is followed by an issuer
// link; when that issuer is unknown the link is a placeholder carrying only
// the expected identity and the MISSING tag. Resolvers later fill
// placeholders with [Chain.Apply], and trust markers tag links with
// [Chain.MarkTrusted]. A chain is complete once its last link holds a
// self-signed certificate.
//
// Chains render as text, as an ASCII tree, as a markdown table via
// tablewriter, as JSON, and as PEM.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509chain
