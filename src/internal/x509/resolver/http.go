// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/brylex/sancus/src/internal/helper/gc"
	"github.com/brylex/sancus/src/version"
)

// maxIssuerSize caps the size of a downloaded issuer payload.
const maxIssuerSize = 1 << 20

var (
	// ErrUnsupportedScheme is returned for issuer locations that are not
	// http or https URLs.
	ErrUnsupportedScheme = errors.New("resolver: unsupported issuer location scheme")
	// ErrUnexpectedStatus is returned when an issuer location answers with a
	// status other than 200.
	ErrUnexpectedStatus = errors.New("resolver: unexpected HTTP status")
)

// HTTPConfig holds HTTP client configuration for issuer downloads.
type HTTPConfig struct {
	Timeout   time.Duration // HTTP request timeout
	Version   string        // Application version for User-Agent
	UserAgent string        // Custom User-Agent string, if empty will be constructed from Version

	mu     sync.Mutex
	client *http.Client
}

// NewHTTPConfig creates a new HTTP configuration with a 10 second timeout
// and the provided application version.
func NewHTTPConfig(version string) *HTTPConfig {
	return &HTTPConfig{
		Timeout: 10 * time.Second,
		Version: version,
	}
}

// GetUserAgent returns the User-Agent string, constructing it if not set.
func (c *HTTPConfig) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return fmt.Sprintf("Sancus-Chain-Resolver/%s (+https://github.com/brylex/sancus)", c.Version)
}

// Client returns an HTTP client configured with the current timeout.
//
// Thread Safety: Safe for concurrent use.
func (c *HTTPConfig) Client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.client = &http.Client{Timeout: c.Timeout}
		return c.client
	}

	if c.client.Timeout != c.Timeout {
		c.client.Timeout = c.Timeout
	}

	return c.client
}

// Fetcher downloads the payload behind an issuer location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts an ordinary function to the [Fetcher] interface.
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

// Fetch calls f(ctx, location).
func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// HTTPFetcher downloads issuer certificates over HTTP.
type HTTPFetcher struct {
	config *HTTPConfig
}

// NewHTTPFetcher creates a fetcher using cfg. A nil cfg uses the defaults of
// [NewHTTPConfig] for the current version.
func NewHTTPFetcher(cfg *HTTPConfig) *HTTPFetcher {
	if cfg == nil {
		cfg = NewHTTPConfig(version.Version)
	}
	return &HTTPFetcher{config: cfg}
}

// Fetch performs a GET request against location and returns the body.
//
// Returns:
//   - []byte: Response body, at most 1 MiB
//   - error: [ErrUnsupportedScheme], [ErrUnexpectedStatus], [gc.ErrTooLarge]
//     or the transport error
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.config.GetUserAgent())

	resp, err := f.config.Client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnexpectedStatus, location, resp.Status)
	}

	return gc.ReadAll(resp.Body, maxIssuerSize)
}
