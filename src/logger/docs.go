// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logger provides the Logger interface used across the resolver
// engine and two implementations: CLILogger for human-readable terminal
// output and JSONLogger for structured JSON lines, used when stdout carries
// a protocol such as the MCP stdio transport. Both are safe for concurrent
// use.
package logger
