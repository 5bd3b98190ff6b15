// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package truststore

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/brylex/sancus/src/internal/helper/gc"
	"github.com/brylex/sancus/src/internal/helper/posix"
	x509certs "github.com/brylex/sancus/src/internal/x509/certs"
)

// SystemTag is the tag used for certificates loaded by [System].
const SystemTag = "SYSTEM"

// maxFileSize bounds trust material read from disk.
const maxFileSize = 16 << 20

// ErrNoSystemBundle is returned by [System] when none of the well-known CA
// bundle locations can be read.
var ErrNoSystemBundle = errors.New("truststore: no system CA bundle found")

var encoder = x509certs.New()

// AddPEM decodes every certificate in data (PEM, DER or PKCS#7) and
// registers each under a fresh alias derived from tag. It returns the
// number of certificates added.
func (s *Store) AddPEM(tag string, data []byte) (int, error) {
	certs, err := encoder.DecodeMultiple(data)
	if err != nil {
		return 0, err
	}
	for i, cert := range certs {
		if _, err := s.AddTagged(tag, cert); err != nil {
			return i, err
		}
	}
	return len(certs), nil
}

// AddFile reads path and registers its certificates as [Store.AddPEM] does.
func (s *Store) AddFile(tag, path string) (int, error) {
	data, err := readFile(posix.ExpandHome(path))
	if err != nil {
		return 0, err
	}
	n, err := s.AddPEM(tag, data)
	if err != nil {
		return n, fmt.Errorf("truststore: %s: %w", path, err)
	}
	return n, nil
}

// LoadFile returns a new store holding the certificates of path.
func LoadFile(tag, path string) (*Store, error) {
	s := New()
	if _, err := s.AddFile(tag, path); err != nil {
		return nil, err
	}
	return s, nil
}

// System loads the operating system's CA bundle from the first readable
// location returned by [posix.CertificateBundlePaths].
func System() (*Store, error) {
	for _, path := range posix.CertificateBundlePaths() {
		data, err := readFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				continue
			}
			return nil, err
		}

		s := New()
		if s.addLenient(SystemTag, data) == 0 {
			continue
		}
		return s, nil
	}
	return nil, ErrNoSystemBundle
}

// addLenient registers every CERTIFICATE block of data that parses, skipping
// the rest. Distribution bundles occasionally carry entries the x509 package
// refuses, which must not hide the remainder of the bundle.
func (s *Store) addLenient(tag string, data []byte) int {
	var added int
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		data = rest

		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			continue
		}
		if _, err := s.AddTagged(tag, cert); err == nil {
			added++
		}
	}
	return added
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := gc.ReadAll(f, maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("truststore: reading %s: %w", path, err)
	}
	return data, nil
}
