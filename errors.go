package kuro

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// =============================================================================
// Provider errors
// =============================================================================

// APIError is a non-success response from a Kuro endpoint. Code and Message
// are the provider's values, surfaced verbatim.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("kuro: api error %d", e.Code)
	}
	return fmt.Sprintf("kuro: api error %d: %s", e.Code, e.Message)
}

// IsAPIError reports whether err carries a provider error code.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// ChallengeRequiredError signals that the provider demands an interactive
// geetest challenge before the request can succeed. Recoverable exactly once
// per flow by solving the challenge and retrying with the solution attached.
type ChallengeRequiredError struct {
	Code int
}

func (e *ChallengeRequiredError) Error() string {
	return fmt.Sprintf("kuro: captcha challenge required (code %d)", e.Code)
}

// IsChallengeRequired reports whether err signals a pending geetest challenge.
func IsChallengeRequired(err error) bool {
	var ce *ChallengeRequiredError
	return errors.As(err, &ce)
}

// MalformedResponseError wraps a response body that could not be decoded into
// the expected shape.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kuro: malformed response: %s: %v", e.Reason, e.Err)
	}
	return "kuro: malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Local usage errors
// =============================================================================

// RegionMismatchError is returned when a region-gated operation is invoked on
// a client configured for a different region. No request is sent.
type RegionMismatchError struct {
	Op   string
	Want Region
	Have Region
}

func (e *RegionMismatchError) Error() string {
	return fmt.Sprintf("kuro: %s requires region %q, client is configured for %q", e.Op, e.Want, e.Have)
}

// PortInUseError is returned when the challenge server cannot bind its local
// port. No browser window has been opened at that point.
type PortInUseError struct {
	Port int
	Err  error
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("kuro: challenge server port %d unavailable: %v", e.Port, e.Err)
}

func (e *PortInUseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Transient transport errors
// =============================================================================

// retryableErrorPatterns contains error message substrings that indicate
// transient transport failures.
var retryableErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"context deadline exceeded",
	"TLS handshake timeout",
	"EOF",
	"malformed HTTP response",
	"transport connection broken",
	"use of closed network connection",
}

// IsRetryableError checks if the error is temporary and worth retrying.
// Provider and usage errors are never retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsAPIError(err) || IsChallengeRequired(err) {
		return false
	}

	var re *RegionMismatchError
	if errors.As(err, &re) {
		return false
	}

	if isNetworkTimeout(err) {
		return true
	}
	return containsRetryablePattern(err.Error())
}

func isNetworkTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func containsRetryablePattern(errStr string) bool {
	for _, pattern := range retryableErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
