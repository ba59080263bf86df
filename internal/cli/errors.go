package cli

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates a connection failure to a node or registry.
// It wraps the underlying error and provides categorization for better user feedback.
type ConnectionError struct {
	// Endpoint is the URL that could not be reached.
	Endpoint string
	// Type categorizes the connection error.
	Type ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Type, e.Endpoint, e.Reason)
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError analyzes an error and returns a ConnectionError with
// the appropriate type. If the error is nil, returns nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ConnectionError{Endpoint: endpoint, Type: ConnectionErrorDNS, Reason: err}
	}

	if isTimeoutError(err) {
		return &ConnectionError{Endpoint: endpoint, Type: ConnectionErrorTimeout, Reason: err}
	}

	if isNetworkError(err.Error()) {
		return &ConnectionError{Endpoint: endpoint, Type: ConnectionErrorNetwork, Reason: err}
	}

	return &ConnectionError{Endpoint: endpoint, Type: ConnectionErrorUnknown, Reason: err}
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	// Check for net.Error timeout (interface, needs manual unwrapping)
	for e := err; e != nil; {
		if ne, ok := e.(net.Error); ok && ne.Timeout() {
			return true
		}
		if u, ok := e.(interface{ Unwrap() error }); ok {
			e = u.Unwrap()
		} else {
			break
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if the error string indicates a network connectivity issue.
func isNetworkError(errStr string) bool {
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// ValidationError indicates the deployment run was rejected before anything
// was deployed: an unreachable or incompatible target, or a target that
// could not be prepared. The CLI maps it to a distinct exit code.
type ValidationError struct {
	// Stage is the orchestrator stage that rejected the run.
	Stage string
	// Target is the deployment target that failed, when known.
	Target string
	// Reason is the underlying error.
	Reason error
}

func (e *ValidationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s failed for target %q: %v", e.Stage, e.Target, e.Reason)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}
