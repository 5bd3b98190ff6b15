// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface of Sancus.
// It implements a Cobra-based command that builds a certificate chain from a
// live TLS handshake or a certificate file, completes it from trust stores,
// certificate directories and remote issuer locations, marks the links the
// trust stores accept and prints the result as a coloured listing, ASCII
// tree, markdown table, JSON or PEM.
package cli
