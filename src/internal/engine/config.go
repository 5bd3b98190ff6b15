// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brylex/sancus/src/internal/helper/posix"
)

// ConfigFileEnv names the environment variable consulted for a
// configuration file when none is given explicitly.
const ConfigFileEnv = "SANCUS_CONFIG_FILE"

// Default configuration values.
const (
	DefaultHandshakeTimeout = 5
	DefaultFetchTimeout     = 10
	DefaultPort             = 443
	DefaultFormat           = FormatTree
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// TrustStoreConfig names a PEM bundle used as a trust-anchor set.
type TrustStoreConfig struct {
	// Name: Tag recorded on links the bundle resolves or trusts
	Name string `json:"name" yaml:"name"`
	// Path: PEM bundle location; a leading "~" expands to the home directory
	Path string `json:"path" yaml:"path"`
}

// Config represents the resolution configuration.
//
// Supported file extensions: .json, .yaml, .yml. Fields missing from the
// file keep their defaults.
type Config struct {
	// Defaults: Default settings for resolution
	Defaults struct {
		// HandshakeTimeout: Seconds allowed for connecting and handshaking
		HandshakeTimeout int `json:"handshakeTimeoutSeconds" yaml:"handshakeTimeoutSeconds"`
		// FetchTimeout: Seconds allowed for each issuer download
		FetchTimeout int `json:"fetchTimeoutSeconds" yaml:"fetchTimeoutSeconds"`
		// Port: Port dialed when a host is given without one
		Port int `json:"port" yaml:"port"`
		// Format: Output format (tree, table, json, pem, text)
		Format string `json:"format" yaml:"format"`
	} `json:"defaults" yaml:"defaults"`

	// UserAgent: User-Agent sent with issuer downloads; empty uses the built-in one
	UserAgent string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	// TrustStores: Named PEM bundles used as trust-anchor sets
	TrustStores []TrustStoreConfig `json:"trustStores,omitempty" yaml:"trustStores,omitempty"`
	// CertDirs: Directories searched for issuer certificates
	CertDirs []string `json:"certDirs,omitempty" yaml:"certDirs,omitempty"`
	// Remote: Download issuers from authority information access locations
	Remote bool `json:"remote" yaml:"remote"`
	// System: Use the host's CA bundle as the SYSTEM trust-anchor set
	System bool `json:"system" yaml:"system"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	config := &Config{
		Remote: true,
		System: true,
	}
	config.Defaults.HandshakeTimeout = DefaultHandshakeTimeout
	config.Defaults.FetchTimeout = DefaultFetchTimeout
	config.Defaults.Port = DefaultPort
	config.Defaults.Format = DefaultFormat
	return config
}

// detectConfigFormat determines the configuration file format based on file extension.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// unmarshalConfig unmarshals configuration data based on the specified format.
func unmarshalConfig(data []byte, config *Config, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a JSON or YAML file or applies defaults.
//
// Parameters:
//   - configPath: Path to the configuration file (optional, can be empty)
//
// Returns:
//   - *Config: Loaded configuration with defaults applied
//   - error: If the configuration file cannot be read or parsed
//
// Configuration Priority:
//  1. Default values are set
//  2. SANCUS_CONFIG_FILE environment variable is checked if configPath is empty
//  3. Config file values override defaults (if file exists and is valid)
//  4. Invalid values are reset to their defaults
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		configPath = os.Getenv(ConfigFileEnv)
	}

	if configPath != "" {
		configPath = posix.ExpandHome(configPath)
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		format := detectConfigFormat(configPath)
		if err := unmarshalConfig(data, config, format); err != nil {
			return nil, err
		}
	}

	config.normalize()
	return config, nil
}

// normalize resets invalid values to their defaults.
func (c *Config) normalize() {
	if c.Defaults.HandshakeTimeout <= 0 {
		c.Defaults.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Defaults.FetchTimeout <= 0 {
		c.Defaults.FetchTimeout = DefaultFetchTimeout
	}
	if c.Defaults.Port < 1 || c.Defaults.Port > 65535 {
		c.Defaults.Port = DefaultPort
	}
	c.Defaults.Format = strings.ToLower(c.Defaults.Format)
	if !slices.Contains(Formats, c.Defaults.Format) {
		c.Defaults.Format = DefaultFormat
	}

	c.TrustStores = slices.DeleteFunc(c.TrustStores, func(ts TrustStoreConfig) bool {
		return ts.Path == ""
	})
	for i, ts := range c.TrustStores {
		if ts.Name == "" {
			c.TrustStores[i].Name = StoreName(ts.Path)
		}
	}
	c.CertDirs = slices.DeleteFunc(c.CertDirs, func(dir string) bool { return dir == "" })
}

// StoreName derives a trust-store tag from a bundle path: the upper-cased
// base name without extension.
func StoreName(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}
