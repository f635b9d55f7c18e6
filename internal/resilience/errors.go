package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorKind classifies an external call failure for retry and reporting.
type ErrorKind int

const (
	// KindUnknown is an error nothing more is known about. Not retried.
	KindUnknown ErrorKind = iota
	// KindNotFound is a 404-class response. Not retried.
	KindNotFound
	// KindTransient is a 5xx, a timeout or a broken connection. Retried.
	KindTransient
	// KindClient is any other 4xx. Not retried.
	KindClient
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	HTTPStatus() int
}

// TransientError wraps an error that is safe to retry (5xx, timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code that made the error transient, or 0.
func (e *TransientError) HTTPStatus() int {
	return e.StatusCode
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// ClassifyStatus maps an HTTP status code to an ErrorKind. 2xx/3xx map to
// KindUnknown since they are not failures.
func ClassifyStatus(code int) ErrorKind {
	switch {
	case code == http.StatusNotFound, code == http.StatusGone:
		return KindNotFound
	case IsTransientHTTPStatus(code):
		return KindTransient
	case code >= 400 && code < 500:
		return KindClient
	default:
		return KindUnknown
	}
}

// Classify inspects an error chain and returns its kind. Status codes win
// over transport heuristics.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var sc StatusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() != 0 {
		return ClassifyStatus(sc.HTTPStatus())
	}
	if IsTransient(err) {
		return KindTransient
	}
	return KindUnknown
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, a deadline, or a common transient network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	// A per-call timeout counts as a transient failure.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped HTTP client errors lose their type; fall back to the message.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"unexpected eof",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether a status code is a server-side or
// timeout failure that is safe to retry. Client errors, 429 included, are not.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return statusCode >= 500 && statusCode < 600
	}
}
