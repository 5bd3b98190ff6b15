// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brylex/sancus/src/internal/engine"
	"github.com/brylex/sancus/src/internal/helper/posix"
	x509certs "github.com/brylex/sancus/src/internal/x509/certs"
)

// ResolveChainTool is the name of the chain resolution tool.
const ResolveChainTool = "resolve_chain"

var errUnreadableCertificate = errors.New("not a valid file path, PEM text or base64 data")

// Tools returns the tool definitions served by [NewServer], bound to
// pipeline.
func Tools(pipeline *engine.Pipeline) []server.ServerTool {
	config := pipeline.Config()
	h := &chainHandler{pipeline: pipeline, decoder: x509certs.New()}

	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ResolveChainTool,
				mcp.WithDescription("Resolve an X509 certificate chain presented by a TLS server or given as certificate data, "+
					"fill missing issuers from trust stores, certificate directories and issuer download locations, "+
					"and mark the links accepted by the trust stores"),
				mcp.WithString("certificate",
					mcp.Description("Certificate file path, PEM text or base64-encoded certificate data (exclusive with hostname)"),
				),
				mcp.WithString("hostname",
					mcp.Description("TLS server to perform a handshake with (exclusive with certificate)"),
				),
				mcp.WithNumber("port",
					mcp.Description(fmt.Sprintf("Port used with hostname (default: %d)", config.Defaults.Port)),
					mcp.DefaultNumber(float64(config.Defaults.Port)),
				),
				mcp.WithString("format",
					mcp.Description(fmt.Sprintf("Output format: %s (default: %s)", strings.Join(engine.Formats, ", "), config.Defaults.Format)),
					mcp.DefaultString(config.Defaults.Format),
				),
			),
			Handler: h.handleResolveChain,
		},
	}
}

type chainHandler struct {
	pipeline *engine.Pipeline
	decoder  *x509certs.Certificate
}

// handleResolveChain runs the pipeline on the certificate or hostname
// argument. Failures are reported as tool errors.
func (h *chainHandler) handleResolveChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	config := h.pipeline.Config()
	certInput := request.GetString("certificate", "")
	hostname := request.GetString("hostname", "")
	format := request.GetString("format", config.Defaults.Format)

	var in engine.Input
	switch {
	case certInput == "" && hostname == "":
		return mcp.NewToolResultError("certificate or hostname parameter required"), nil
	case certInput != "" && hostname != "":
		return mcp.NewToolResultError("certificate and hostname parameters are mutually exclusive"), nil
	case hostname != "":
		port := request.GetInt("port", config.Defaults.Port)
		if port < 1 || port > 65535 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid port %d", port)), nil
		}
		in = engine.Input{Host: hostname, Port: port}
	default:
		data, err := readCertificateInput(certInput)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read certificate: %v", err)), nil
		}
		certs, err := h.decoder.DecodeMultiple(data)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to decode certificate: %v", err)), nil
		}
		in = engine.Input{Certificates: certs}
	}

	res, err := h.pipeline.Run(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve certificate chain: %v", err)), nil
	}

	rendered, err := engine.Render(res, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(engine.Summary(res) + "\n\n" + rendered), nil
}

// readCertificateInput reads input as a file path, inline PEM text or
// base64 data, in that order.
func readCertificateInput(input string) ([]byte, error) {
	if data, err := os.ReadFile(posix.ExpandHome(input)); err == nil {
		return data, nil
	}
	if strings.Contains(input, "-----BEGIN") {
		return []byte(input), nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input)); err == nil {
		return decoded, nil
	}
	return nil, errUnreadableCertificate
}
