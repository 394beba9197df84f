// Package registry provides HTTP clients for package registries.
//
// The shared [Client] layers response caching and retry-with-backoff under
// every registry-specific client. Registry clients map HTTP failures onto
// two sentinel errors: [ErrNotFound] for missing packages (non-retryable)
// and [ErrNetwork] for transport-level failures (retryable when transient).
package registry

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/depsync/pkg/httputil"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NewCache creates a file-based cache with the given TTL in the default cache directory.
// See [httputil.NewCache] for details on cache location and behavior.
func NewCache(ttl time.Duration) (*httputil.Cache, error) {
	return httputil.NewCache("", ttl)
}

// NormalizePkgName converts a package name to its canonical registry form:
// trimmed and lowercased. Scoped names (@scope/pkg) keep their structure.
func NormalizePkgName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// URLEncode percent-encodes a string for use in URL paths. Scoped npm
// package names contain a slash that must survive encoding, so the slash
// is encoded as %2f the way the npm registry expects.
func URLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2F", "%2f")
}
