// Package httputil provides HTTP client helpers shared by registry clients:
// a file-based response cache with TTL expiry, and retry logic with
// exponential backoff for transient failures.
package httputil
