// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import "os"

// CertFileEnv names the environment variable that overrides the system CA
// bundle location.
const CertFileEnv = "SSL_CERT_FILE"

// certificateBundles lists the CA bundle locations of common distributions,
// most common first.
var certificateBundles = []string{
	"/etc/ssl/certs/ca-certificates.crt",                // Debian/Ubuntu/Gentoo etc.
	"/etc/pki/tls/certs/ca-bundle.crt",                  // Fedora/RHEL 6
	"/etc/ssl/ca-bundle.pem",                            // OpenSUSE
	"/etc/pki/tls/cacert.pem",                           // OpenELEC
	"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem", // CentOS/RHEL 7
	"/etc/ssl/cert.pem",                                 // Alpine Linux, macOS
}

// CertificateBundlePaths returns the candidate system CA bundle files in
// lookup order. A non-empty SSL_CERT_FILE takes precedence over the built-in
// locations.
func CertificateBundlePaths() []string {
	paths := make([]string, 0, len(certificateBundles)+1)
	if env := os.Getenv(CertFileEnv); env != "" {
		paths = append(paths, env)
	}
	return append(paths, certificateBundles...)
}
