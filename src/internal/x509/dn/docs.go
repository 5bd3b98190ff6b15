// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package dn models the subject and issuer names of [X.509] certificates as
// comparable identities. Two identities are equal when they carry the same
// attribute=value components regardless of the order in which those components
// appear, so a chain built from certificates produced by different toolchains
// still links up even when one of them reorders its [RDN] sequence.
//
// Attribute values are compared after Unicode normalization and case folding,
// matching the way LDAP distinguished names are usually compared.
//
// [X.509]: https://grokipedia.com/page/X.509
// [RDN]: https://grokipedia.com/page/Distinguished_name
package dn
