// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package engine wires configuration, trust stores and resolvers into the
// resolution pipeline shared by the command-line interface and the MCP
// server.
//
// A [Pipeline] builds a chain from a live handshake or from presented
// certificates, completes it with the configured trust stores, certificate
// directories and remote issuer downloads, and finally marks the links the
// trust stores accept. [Render] formats the result.
package engine
