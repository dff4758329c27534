package sync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/klauern/pagesync/internal/source"
)

// Category classifies a fetch failure and drives the retry decision.
type Category string

const (
	// CategoryFilter indicates a malformed or rejected filter/request.
	CategoryFilter Category = "filter"

	// CategoryNetwork indicates a connection-level failure.
	CategoryNetwork Category = "network"

	// CategoryRateLimit indicates the source is throttling us.
	CategoryRateLimit Category = "rate_limit"

	// CategoryServer indicates a 5xx-shaped source failure.
	CategoryServer Category = "server"

	// CategoryAuth indicates rejected or missing credentials.
	CategoryAuth Category = "auth"

	// CategoryNotFound indicates the requested resource does not exist.
	CategoryNotFound Category = "not_found"

	// CategoryUnknown is the fallback when nothing else matches.
	CategoryUnknown Category = "unknown"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// FetchError wraps a source failure with its classification.
type FetchError struct {
	Category Category
	Err      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed (%s): %v", e.Category, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError classifies and wraps a fetch failure.
func NewFetchError(err error) *FetchError {
	return &FetchError{Category: Classify(err), Err: err}
}

// Classify buckets a fetch failure into a category. Status codes are
// authoritative when the error carries one; otherwise message substrings
// decide, checked in precedence order: filter, network, rate limit,
// server, auth, not found.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	// An already classified error keeps its category.
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Category
	}

	var apiErr *source.APIError
	if errors.As(err, &apiErr) {
		if cat, ok := classifyStatus(apiErr.StatusCode); ok {
			return cat
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryNetwork
	}

	return classifyMessage(err.Error())
}

// classifyStatus maps an HTTP status code to a category.
func classifyStatus(status int) (Category, bool) {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return CategoryFilter, true
	case status == http.StatusTooManyRequests:
		return CategoryRateLimit, true
	case status >= 500:
		return CategoryServer, true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryAuth, true
	case status == http.StatusNotFound || status == http.StatusGone:
		return CategoryNotFound, true
	default:
		return CategoryUnknown, false
	}
}

// Substring heuristics per category, matched against the lowercased
// error text in the order the categories are listed in classifyMessage.
var (
	filterMarkers    = []string{"filter", "validation", "invalid request", "malformed", "unprocessable"}
	networkMarkers   = []string{"connection", "network", "timeout", "timed out", "dial", "refused", "reset by peer", "no such host", "broken pipe", "eof"}
	rateLimitMarkers = []string{"429", "rate limit", "rate_limited", "too many requests", "quota"}
	serverMarkers    = []string{"500", "502", "503", "504", "internal server", "bad gateway", "service unavailable", "server error"}
	authMarkers      = []string{"401", "403", "unauthorized", "forbidden", "permission", "invalid token", "authentication"}
	notFoundMarkers  = []string{"404", "not found", "does not exist", "gone"}
)

// classifyMessage applies substring heuristics in precedence order.
func classifyMessage(msg string) Category {
	msg = strings.ToLower(msg)

	ordered := []struct {
		category Category
		markers  []string
	}{
		{CategoryFilter, filterMarkers},
		{CategoryNetwork, networkMarkers},
		{CategoryRateLimit, rateLimitMarkers},
		{CategoryServer, serverMarkers},
		{CategoryAuth, authMarkers},
		{CategoryNotFound, notFoundMarkers},
	}

	for _, entry := range ordered {
		for _, marker := range entry.markers {
			if strings.Contains(msg, marker) {
				return entry.category
			}
		}
	}
	return CategoryUnknown
}

// ShouldRetry reports whether a failure category is worth one more
// attempt. Only transient shapes qualify; auth, filter, and not-found
// failures would fail identically on retry.
func ShouldRetry(c Category) bool {
	switch c {
	case CategoryNetwork, CategoryRateLimit, CategoryServer:
		return true
	default:
		return false
	}
}
