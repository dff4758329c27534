package model

import "time"

// Filter narrows a collection listing server-side. A nil *Filter means an
// unfiltered full listing.
type Filter struct {
	// EditedAfter keeps only pages whose last edit is strictly newer than
	// the given instant. Set from the sync watermark on incremental passes.
	EditedAfter *time.Time
}

// EditedAfterFilter builds a filter from a watermark instant.
func EditedAfterFilter(t time.Time) *Filter {
	utc := t.UTC()
	return &Filter{EditedAfter: &utc}
}
