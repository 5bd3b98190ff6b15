// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package truststore provides an in-memory, alias-keyed collection of
// [X.509] certificates.
//
// A Store plays two roles. Every chain owns one and registers each
// certificate a resolver fills in under an alias derived from the
// resolver's tag, so the store doubles as a record of how the chain was
// completed. Stores loaded from PEM files or from the operating system's
// CA bundle serve as the anchor sets that resolvers search and trust
// markers compare against.
//
// Aliases produced by [Store.NewAlias] take the form "<TAG>_<uuid>".
//
// [X.509]: https://grokipedia.com/page/X.509
package truststore
