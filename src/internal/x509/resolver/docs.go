// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package resolver fills the placeholder links of an [x509chain.Chain].
//
// Every strategy implements [Resolver]. A resolver starts at the first
// placeholder and walks toward the root, applying the certificates it can
// find and stopping at the first gap it cannot fill. Resolved links are never
// touched, so running a resolver twice changes nothing the second time.
// Strategies are combined with [Chain]; each receives the chain as the
// previous one left it.
//
// Four strategies are provided:
//   - [AnchorSet] searches a fixed set of certificates, such as a trust store.
//   - [Dir] searches the certificate files of a directory.
//   - [Remote] downloads issuers from the [AIA] caIssuers location of the
//     certificate below the gap.
//   - [Handshake] connects to a TLS server and records the certificates it
//     presents.
//
// Network failures are not errors: they are classified into a [Status] that
// the remote and handshake resolvers expose after each run.
//
// [AIA]: https://grokipedia.com/page/Authority_information_access
package resolver
