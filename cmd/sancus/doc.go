// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// sancus is a command-line tool that completes X.509 certificate chains and
// marks the links accepted by a set of trust stores.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/brylex/sancus/cmd/sancus@latest
//
// # Usage
//
//	sancus (--host HOST | --file FILE) [FLAGS]
//
// # Flags
//
//	-H, --host        Resolve the chain presented by HOST during a TLS handshake
//	-p, --port        Port used with --host (default: 443)
//	-f, --file        Resolve the chain of a PEM, DER or PKCS#7 file
//	-d, --dir         Search a directory for issuer certificates (repeatable)
//	-t, --truststore  Use a PEM bundle as trust store, named after its file (repeatable)
//	    --system      Use the host CA bundle as SYSTEM trust store (default: true)
//	    --remote      Download issuers from authority information access locations (default: true)
//	    --format      Output format: tree, table, json, pem or text (default: tree)
//	    --save        Write the certificates not presented by the server as PEM
//	    --config      Configuration file (JSON or YAML)
//	-o, --output      Destination file (default: stdout)
//	    --no-color    Disable coloured output
//
// # Environment Variables
//
//	SANCUS_CONFIG_FILE  Path to configuration file (alternative to --config flag)
//
// # Examples
//
// List the chain of a server, one link per line:
//
//	sancus -H example.com --format text
//
// Complete a certificate file from a corporate bundle and save the issuers:
//
//	sancus -f leaf.pem -t ~/pki/corp-roots.pem --save issuers.pem
//
// Each link of the text listing reads [RESOLVER][T|U] DN, where RESOLVER is
// SERVER, a trust store name, DIR, REMOTE or MISSING.
package main
