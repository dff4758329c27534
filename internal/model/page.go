package model

import (
	"errors"
	"time"
)

// Page represents a single record fetched from the remote workspace.
// Instances are read-only once decoded; sync components never mutate them.
type Page struct {
	ID         string                   `json:"id"`
	Title      string                   `json:"title"`
	LastEdited time.Time                `json:"last_edited_time"`
	Archived   bool                     `json:"archived,omitempty"`
	Properties map[string]PropertyValue `json:"properties,omitempty"`

	// ContentRef is the opaque handle used to fetch the page's block
	// content. Upstream it equals the page id.
	ContentRef string `json:"content_ref,omitempty"`
}

var (
	// ErrMissingID indicates a record arrived without an identifier.
	ErrMissingID = errors.New("page has no id")

	// ErrMissingEditTime indicates a record arrived without an edit timestamp.
	ErrMissingEditTime = errors.New("page has no last edited time")
)

// Validate reports whether the page carries the fields every sync
// decision depends on. Invalid pages are counted as failures, never
// processed.
func (p Page) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	if p.LastEdited.IsZero() {
		return ErrMissingEditTime
	}
	return nil
}

// EditedUTC returns the last edited timestamp normalized to UTC.
// All freshness comparisons happen in UTC regardless of the zone the
// source reported.
func (p Page) EditedUTC() time.Time {
	return p.LastEdited.UTC()
}
