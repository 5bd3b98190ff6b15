// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver exposes [X509] certificate chain resolution as a Model
// Context Protocol ([MCP]) server over stdio.
//
// The server offers a single resolve_chain tool that runs the same
// resolution pipeline as the command-line interface, configured from the
// file named by SANCUS_CONFIG_FILE.
//
// [X509]: https://grokipedia.com/page/X.509
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
