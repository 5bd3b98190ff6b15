// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brylex/sancus/src/internal/helper/gc"
	"github.com/brylex/sancus/src/internal/helper/posix"
	x509certs "github.com/brylex/sancus/src/internal/x509/certs"
	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/internal/x509/dn"
)

// TagDir is recorded on links filled from a certificate directory.
const TagDir = "DIR"

// maxCertFileSize caps the size of a single certificate file.
const maxCertFileSize = 1 << 20

var certExtensions = map[string]bool{
	".pem": true,
	".crt": true,
	".cer": true,
	".der": true,
}

// Dir resolves placeholders from the certificate files of a directory.
//
// Files with a .pem, .crt, .cer or .der extension are read in lexical
// order on every run; when two files share a subject the later one wins.
type Dir struct {
	path    string
	decoder *x509certs.Certificate
	opts    options
}

// NewDir creates a directory resolver. A leading "~" in path expands to the
// home directory.
func NewDir(path string, opts ...Option) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrInvalidArgument)
	}
	return &Dir{
		path:    posix.ExpandHome(path),
		decoder: x509certs.New(),
		opts:    newOptions(opts),
	}, nil
}

// Path returns the directory searched by d.
func (d *Dir) Path() string { return d.path }

// Resolve fills placeholders from the directory.
//
// Returns:
//   - error: The read error for an unreadable directory, or
//     [ErrCertificateParse] naming the first file that cannot be decoded
func (d *Dir) Resolve(_ context.Context, ch *x509chain.Chain) (*x509chain.Chain, error) {
	if ch == nil {
		return nil, ErrInvalidArgument
	}

	index, err := d.load()
	if err != nil {
		return ch, err
	}

	_, err = fill(ch, TagDir, d.opts.maxDepth, func(_ int, l x509chain.Link) (*x509.Certificate, error) {
		cert := index[l.Identity().Key()]
		if cert != nil {
			d.opts.log.Printf("Resolved [%s] from directory %s", l.Identity(), d.path)
		}
		return cert, nil
	})
	return ch, err
}

func (d *Dir) load() (map[string]*x509.Certificate, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("resolver: reading directory: %w", err)
	}

	index := make(map[string]*x509.Certificate)
	for _, entry := range entries {
		if entry.IsDir() || !certExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		name := filepath.Join(d.path, entry.Name())
		cert, err := d.readCertificate(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCertificateParse, name, err)
		}
		index[dn.Subject(cert).Key()] = cert
	}
	return index, nil
}

func (d *Dir) readCertificate(name string) (*x509.Certificate, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := gc.ReadAll(f, maxCertFileSize)
	if err != nil {
		return nil, err
	}
	return d.decoder.Decode(data)
}
