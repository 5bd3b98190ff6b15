// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trust marks the links of an [x509chain.Chain] whose identity is
// accepted by a set of trust anchors.
//
// Marking is separate from resolution: a link can be trusted while still a
// placeholder, and a resolved link stays untrusted unless an anchor accepts
// its identity. A mark, once set, is never replaced.
package trust
