// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package posix provides [POSIX]-oriented helpers shared by the command line
// tools: the executable name used in usage strings, home directory expansion
// for configured paths, and the well-known locations of the operating
// system's CA bundle on [Unix-like] systems.
//
//	rootCmd := &cobra.Command{
//	    Use:   posix.GetExecutableName(),
//	    Short: "Certificate chain resolver",
//	}
//
// Cross-platform behavior of GetExecutableName:
//
//   - Linux/macOS: "/usr/bin/sancus" → "sancus"
//   - Windows: "C:\bin\sancus.exe" → "sancus"
//   - Fallback: Empty args → "sancus"
//
// [POSIX]: https://grokipedia.com/page/POSIX
// [Unix-like]: https://grokipedia.com/page/Unix-like
package posix
