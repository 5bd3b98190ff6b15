// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/brylex/sancus/src/internal/engine"
	"github.com/brylex/sancus/src/logger"
)

// ServerName is the implementation name announced to clients.
const ServerName = "Sancus"

// NewServer creates an MCP server whose tools resolve chains with pipeline.
func NewServer(version string, pipeline *engine.Pipeline) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(true),
	)
	for _, tool := range Tools(pipeline) {
		s.AddTool(tool.Tool, tool.Handler)
	}
	return s
}

// Run serves the MCP server on stdin and stdout until ctx is done or the
// client disconnects.
//
// Configuration is loaded from the file named by the SANCUS_CONFIG_FILE
// environment variable, falling back to defaults. log must not write to
// stdout, which carries the protocol.
//
// Returns:
//   - error: Configuration or trust-store errors, the transport error, or
//     ctx.Err() wrapped with "server shutdown" once ctx is done
func Run(ctx context.Context, version string, log logger.Logger) error {
	config, err := engine.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pipeline, err := engine.New(config, log)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	stdioServer := server.NewStdioServer(NewServer(version, pipeline))

	errChan := make(chan error, 1)
	go func() {
		errChan <- stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("server shutdown: %w", ctx.Err())
	}
}
