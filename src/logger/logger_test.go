// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brylex/sancus/src/logger"
)

type logEntry struct {
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

func decodeLines(t *testing.T, data []byte) []logEntry {
	t.Helper()
	var entries []logEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var e logEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e), "invalid JSON line %q", scanner.Text())
		entries = append(entries, e)
	}
	return entries
}

func TestCLILogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Printf",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewCLILogger()
				log.SetOutput(&buf)

				log.Printf("Downloading issuer certificate from [%s]", "http://ca.example/int.crt")
				assert.Equal(t, "Downloading issuer certificate from [http://ca.example/int.crt]\n", buf.String())
			},
		},
		{
			name: "Println",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewCLILogger()
				log.SetOutput(&buf)

				log.Println("handshake", "SUCCESS")
				assert.Equal(t, "handshake SUCCESS\n", buf.String())
			},
		},
		{
			name: "SetOutput",
			testFunc: func(t *testing.T) {
				var first, second bytes.Buffer
				log := logger.NewCLILogger()

				log.SetOutput(&first)
				log.Println("first")
				log.SetOutput(&second)
				log.Println("second")

				assert.Equal(t, "first\n", first.String())
				assert.Equal(t, "second\n", second.String())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestJSONLogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Printf Writes JSON Line",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewJSONLogger(&buf, false)
				log.Printf("status %s", "TIMEOUT")

				entries := decodeLines(t, buf.Bytes())
				require.Len(t, entries, 1)
				assert.Equal(t, "info", entries[0].Level)
				assert.Equal(t, "status TIMEOUT", entries[0].Message)
				assert.Empty(t, entries[0].Component)
			},
		},
		{
			name: "Println Escapes Message",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewJSONLogger(&buf, false)
				log.Println(`quote " and newline`, "\nnext line")

				entries := decodeLines(t, buf.Bytes())
				require.Len(t, entries, 1)
				assert.Contains(t, entries[0].Message, `quote " and newline`)
				assert.Contains(t, entries[0].Message, "next line")
			},
		},
		{
			name: "Silent",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewJSONLogger(&buf, true)
				log.Printf("dropped")
				log.Println("dropped")
				assert.Zero(t, buf.Len())
			},
		},
		{
			name: "Component",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewJSONLogger(&buf, false).WithComponent("remote")
				log.Println("fetch")

				entries := decodeLines(t, buf.Bytes())
				require.Len(t, entries, 1)
				assert.Equal(t, "remote", entries[0].Component)
			},
		},
		{
			name: "Nil Writer",
			testFunc: func(t *testing.T) {
				log := logger.NewJSONLogger(nil, false)
				assert.NotPanics(t, func() { log.Println("nowhere") })

				log.SetOutput(nil)
				assert.NotPanics(t, func() { log.Println("nowhere") })
			},
		},
		{
			name: "Discard",
			testFunc: func(t *testing.T) {
				log := logger.Discard()
				var buf bytes.Buffer
				log.SetOutput(&buf)
				log.Println("dropped")
				assert.Zero(t, buf.Len())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func TestJSONLoggerConcurrent(t *testing.T) {
	var out lockedBuffer
	log := logger.NewJSONLogger(&out, false)

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Printf("message %d", i)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.buf.String()), "\n")
	assert.Len(t, lines, 64)
	assert.Len(t, decodeLines(t, out.buf.Bytes()), 64, "lines must not interleave")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ logger.Logger = logger.NewCLILogger()
	var _ logger.Logger = logger.NewJSONLogger(nil, true)
}
