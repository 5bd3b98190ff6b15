// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// sancus-mcp is a Model Context Protocol (MCP) server that exposes X.509
// certificate chain completion to AI assistants and automation clients over
// stdio.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/brylex/sancus/cmd/sancus-mcp@latest
//
// # Environment Variables
//
//	SANCUS_CONFIG_FILE  Path to configuration file (JSON or YAML)
//
// # MCP Tools
//
//   - resolve_chain: Complete and trust-mark the chain of a certificate
//     (file path, PEM text or base64 payload) or of a TLS server
//
// Diagnostics are written to stderr as JSON lines; stdout carries the
// protocol.
package main
