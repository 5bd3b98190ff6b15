// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/brylex/sancus/src/logger"
	mcpserver "github.com/brylex/sancus/src/mcp-server"
	verpkg "github.com/brylex/sancus/src/version"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = verpkg.Version
	}
}

func main() {
	log := logger.NewJSONLogger(os.Stderr, false).WithComponent("mcp-server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpserver.Run(ctx, version, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}
