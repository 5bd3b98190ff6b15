// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/brylex/sancus/src/internal/helper/gc"
)

// Logger defines the interface for logging operations.
//
// Resolvers report each step through a Logger so that the same engine can
// drive both the terminal client and the [MCP] server.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// JSONLogger implements Logger by writing one JSON object per line:
//
//	{"level":"info","component":"remote","message":"..."}
//
// JSONLogger is safe for concurrent use by multiple goroutines.
type JSONLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	silent    bool
	component string
}

type entry struct {
	Level     string `json:"level"`
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

// NewJSONLogger creates a JSON logger writing to writer. A nil writer
// discards output. A silent logger drops every message.
func NewJSONLogger(writer io.Writer, silent bool) *JSONLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONLogger{
		writer: writer,
		silent: silent,
	}
}

// Discard returns a logger that drops every message.
func Discard() Logger { return NewJSONLogger(nil, true) }

// WithComponent returns a logger sharing m's destination whose entries carry
// the given component name.
func (m *JSONLogger) WithComponent(component string) *JSONLogger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &JSONLogger{
		writer:    m.writer,
		silent:    m.silent,
		component: component,
	}
}

// Printf formats and logs a structured message.
func (m *JSONLogger) Printf(format string, v ...any) {
	if m.silent {
		return
	}
	m.write(fmt.Sprintf(format, v...))
}

// Println logs a structured message built with fmt.Sprint semantics.
func (m *JSONLogger) Println(v ...any) {
	if m.silent {
		return
	}
	m.write(fmt.Sprint(v...))
}

func (m *JSONLogger) write(msg string) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	// Encoding a struct of strings cannot fail.
	_ = json.NewEncoder(buf).Encode(entry{
		Level:     "info",
		Component: m.component,
		Message:   msg,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.writer.Write(buf.Bytes())
}

// SetOutput sets the output destination. A nil writer discards output.
func (m *JSONLogger) SetOutput(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w == nil {
		m.writer = io.Discard
	} else {
		m.writer = w
	}
}
