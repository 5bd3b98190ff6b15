// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"
)

// Status classifies the outcome of a network-backed resolver run.
type Status string

// Resolution outcomes.
const (
	StatusPending             Status = "PENDING"
	StatusSuccess             Status = "SUCCESS"
	StatusUnknownHost         Status = "UNKNOWN_HOST"
	StatusTimeout             Status = "TIMEOUT"
	StatusRefused             Status = "REFUSED"
	StatusHandshakeFailure    Status = "HANDSHAKE_FAILURE"
	StatusVerificationFailure Status = "VERIFICATION_FAILURE"
	StatusNoLocation          Status = "NO_LOCATION"
	StatusMalformedExtension  Status = "MALFORMED_EXTENSION"
	StatusIdentityMismatch    Status = "IDENTITY_MISMATCH"
	StatusError               Status = "ERROR"
)

// Classify maps a network or handshake error to a [Status]. A nil error is
// [StatusSuccess].
func Classify(err error) Status {
	if err == nil {
		return StatusSuccess
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return StatusUnknownHost
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}

	if isVerificationError(err) {
		return StatusVerificationFailure
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return StatusRefused
	}

	var (
		alert  tls.AlertError
		header tls.RecordHeaderError
		opErr  *net.OpError
	)
	switch {
	case errors.As(err, &alert), errors.As(err, &header):
		return StatusHandshakeFailure
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return StatusHandshakeFailure
	case errors.As(err, &opErr) && isAlertOp(opErr.Op):
		return StatusHandshakeFailure
	}

	return StatusError
}

// isAlertOp reports whether op marks an alert sent or received by crypto/tls.
func isAlertOp(op string) bool {
	return op == "remote error" || op == "local error"
}

func isVerificationError(err error) bool {
	if errors.Is(err, ErrVerification) {
		return true
	}
	var (
		unknown  x509.UnknownAuthorityError
		invalid  x509.CertificateInvalidError
		hostname x509.HostnameError
		verify   *tls.CertificateVerificationError
	)
	return errors.As(err, &unknown) ||
		errors.As(err, &invalid) ||
		errors.As(err, &hostname) ||
		errors.As(err, &verify)
}

// tracker records the outcome of the most recent run.
type tracker struct {
	mu     sync.Mutex
	status Status
	err    error
}

func newTracker() tracker { return tracker{status: StatusPending} }

func (t *tracker) record(status Status, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.err = err
}

// Status returns the outcome of the most recent run.
func (t *tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// LastError returns the error behind the most recent non-successful
// outcome, if any.
func (t *tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
