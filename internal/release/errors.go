package release

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrorKind classifies API failures for message tailoring.
type ErrorKind int

const (
	// KindNetwork is the generic network fallback.
	KindNetwork ErrorKind = iota
	// KindNotFound covers missing repositories and releases (HTTP 404).
	KindNotFound
	// KindRateLimit covers exhausted API quota (HTTP 403/429 with rate headers).
	KindRateLimit
	// KindTimeout covers deadline expiry.
	KindTimeout
	// KindDNS covers name resolution failure.
	KindDNS
	// KindConnection covers refused or reset connections.
	KindConnection
	// KindTLS covers certificate problems.
	KindTLS
	// KindValidation covers malformed input such as a bad repo identifier.
	KindValidation
)

// APIError reports a failed interaction with the release API.
type APIError struct {
	Kind    ErrorKind
	Repo    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("release api: %s: %s: %v", e.Repo, e.Message, e.Err)
	}
	return fmt.Sprintf("release api: %s: %s", e.Repo, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable hint for the user, empty when none
// applies.
func (e *APIError) Suggestion() string {
	switch e.Kind {
	case KindRateLimit:
		return "Set GITHUB_TOKEN to authenticate, or wait for the rate limit to reset"
	case KindTimeout:
		return "Check your internet connection and try again"
	case KindDNS:
		return "Check your DNS settings and internet connection"
	case KindConnection:
		return "The service may be down or blocked. Check if you can reach github.com in a browser"
	case KindTLS:
		return "There may be a certificate issue. Check that your system time is correct"
	case KindNotFound:
		return "Verify the repository exists and has published releases"
	case KindValidation:
		return "Use the owner/name form, for example openai/codex"
	default:
		return "Check your internet connection and try again"
	}
}

// NotFoundError reports that no release asset matched the candidate list
// or the target prefix. Hints carries up to MaxHints product asset names
// from the release as a diagnostic aid.
type NotFoundError struct {
	Repo   string
	Tag    string
	Prefix string
	Hints  []string
	More   int
}

// MaxHints caps the diagnostic name list on NotFoundError.
const MaxHints = 10

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no release asset matches %s* in %s %s", e.Prefix, e.Repo, e.Tag)
}

// Classify examines an error chain and returns the most specific kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindNetwork
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return KindTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return KindTimeout
		}
		var innerDNS *net.DNSError
		if errors.As(opErr.Err, &innerDNS) {
			return KindDNS
		}
		return KindConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return KindTimeout
		}
		if strings.Contains(urlErr.Err.Error(), "certificate") ||
			strings.Contains(urlErr.Err.Error(), "tls") ||
			strings.Contains(urlErr.Err.Error(), "x509") {
			return KindTLS
		}
		return Classify(urlErr.Err)
	}

	return KindNetwork
}
