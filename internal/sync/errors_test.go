package sync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/klauern/pagesync/internal/source"
)

func TestClassifyStatusCodes(t *testing.T) {
	tests := map[string]struct {
		status int
		want   Category
	}{
		"bad request is filter":          {400, CategoryFilter},
		"unprocessable is filter":        {422, CategoryFilter},
		"too many requests is ratelimit": {429, CategoryRateLimit},
		"internal error is server":       {500, CategoryServer},
		"bad gateway is server":          {502, CategoryServer},
		"unauthorized is auth":           {401, CategoryAuth},
		"forbidden is auth":              {403, CategoryAuth},
		"not found":                      {404, CategoryNotFound},
		"gone is not found":              {410, CategoryNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := &source.APIError{StatusCode: tt.status, Message: "nope"}
			if got := Classify(err); got != tt.want {
				t.Errorf("Classify(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassifyMessages(t *testing.T) {
	tests := map[string]struct {
		msg  string
		want Category
	}{
		"rate limit text":    {"429 rate limit exceeded", CategoryRateLimit},
		"quota text":         {"quota exhausted, retry later", CategoryRateLimit},
		"unauthorized text":  {"401 unauthorized", CategoryAuth},
		"permission text":    {"permission denied for integration", CategoryAuth},
		"connection refused": {"dial tcp: connection refused", CategoryNetwork},
		"timeout text":       {"request timed out", CategoryNetwork},
		"validation text":    {"validation failed: bad filter payload", CategoryFilter},
		"server error text":  {"503 service unavailable", CategoryServer},
		"missing page":       {"page does not exist", CategoryNotFound},
		"nonsense":           {"splines failed to reticulate", CategoryUnknown},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Classify(errors.New(tt.msg)); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// Filter markers outrank everything else in message matching.
	err := errors.New("invalid request: server error while parsing filter")
	if got := Classify(err); got != CategoryFilter {
		t.Errorf("Classify() = %v, want %v", got, CategoryFilter)
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil); got != CategoryUnknown {
		t.Errorf("Classify(nil) = %v, want %v", got, CategoryUnknown)
	}
}

func TestClassifyWrappedFetchError(t *testing.T) {
	inner := NewFetchError(&source.APIError{StatusCode: 429, Message: "slow down"})
	wrapped := fmt.Errorf("listing collection: %w", inner)

	if got := Classify(wrapped); got != CategoryRateLimit {
		t.Errorf("Classify(wrapped) = %v, want %v", got, CategoryRateLimit)
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		category Category
		want     bool
	}{
		{CategoryNetwork, true},
		{CategoryRateLimit, true},
		{CategoryServer, true},
		{CategoryFilter, false},
		{CategoryAuth, false},
		{CategoryNotFound, false},
		{CategoryUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := ShouldRetry(tt.category); got != tt.want {
				t.Errorf("ShouldRetry(%v) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := &source.APIError{StatusCode: 500, Message: "boom"}
	err := NewFetchError(cause)

	var apiErr *source.APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected FetchError to unwrap to *source.APIError")
	}
	if err.Category != CategoryServer {
		t.Errorf("Category = %v, want %v", err.Category, CategoryServer)
	}
}
