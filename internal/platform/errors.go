package platform

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
)

// ErrorKind classifies why a request failed, separating backend answers
// from transport problems so a hung or unreachable backend surfaces as
// its own error rather than as a generic failure.
type ErrorKind string

const (
	// KindHTTPStatus means the backend answered with a non-2xx status.
	KindHTTPStatus ErrorKind = "http_status"
	// KindTimeout means the request exceeded its deadline.
	KindTimeout ErrorKind = "timeout"
	// KindDNS means the backend host could not be resolved.
	KindDNS ErrorKind = "dns"
	// KindConnectionRefused means the backend refused the connection.
	KindConnectionRefused ErrorKind = "connection_refused"
	// KindNetworkUnreachable means no route to the backend exists.
	KindNetworkUnreachable ErrorKind = "network_unreachable"
	// KindTLS means certificate verification failed.
	KindTLS ErrorKind = "tls"
	// KindTransport covers remaining transport-level failures.
	KindTransport ErrorKind = "transport"
)

// APIError is the error type returned for failed backend calls.
type APIError struct {
	// Status is the HTTP status code, zero for transport failures.
	Status int
	// Kind classifies the failure.
	Kind ErrorKind
	// Message is the backend's message when one was sent, otherwise a
	// generic fallback suitable for a toast.
	Message string
	// cause is the underlying transport error, nil for HTTP failures.
	cause error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("platform: %s (status %d)", e.Message, e.Status)
	}

	return fmt.Sprintf("platform: %s (%s)", e.Message, e.Kind)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsTransport reports whether err never reached the backend.
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// Message extracts a user-facing message from err: the backend message
// when available, a generic fallback otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return "Something went wrong. Please try again."
}

func httpError(status int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}

	return &APIError{Status: status, Kind: KindHTTPStatus, Message: message}
}

func transportError(err error) *APIError {
	kind := classifyTransportError(err)

	message := "platform backend is unreachable"
	if kind == KindTimeout {
		message = "platform backend did not answer in time"
	}

	return &APIError{Kind: kind, Message: message, cause: err}
}

func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return KindTLS
	}

	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certInvalid) {
		return KindTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		var syscallErr *os.SyscallError
		if errors.As(opErr.Err, &syscallErr) {
			switch syscallErr.Err {
			case syscall.ECONNREFUSED:
				return KindConnectionRefused
			case syscall.ENETUNREACH, syscall.EHOSTUNREACH:
				return KindNetworkUnreachable
			}
		}

		return KindTransport
	}

	return KindTransport
}
