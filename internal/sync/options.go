package sync

import "time"

// PassConfig selects the shape of a single pass. Each trigger maps to
// different defaults: manual syncs and scheduled runs check deletions,
// webhook page events do not, and a force refresh ignores the watermark.
type PassConfig struct {
	// CheckDeletions runs deletion reconciliation against the full
	// source listing.
	CheckDeletions bool

	// Incremental pre-filters the fetch by the sync watermark.
	Incremental bool

	// ForceRefresh ignores the watermark and per-page skip checks,
	// reprocessing every page.
	ForceRefresh bool
}

// Options holds the tuning knobs for the pass coordinator. The zero
// value is not usable; start from DefaultOptions.
type Options struct {
	// Collection is the remote collection id to sync.
	Collection string

	// CompareHashes adds content/property hash equality to the per-page
	// skip decision, on top of the edit-time comparison.
	CompareHashes bool

	// BulkMode allows the bulk execution strategy.
	BulkMode bool

	// BulkThreshold is the minimum batch size for bulk execution.
	BulkThreshold int

	// RefilterThreshold triggers the client-side re-filter when a
	// server-filtered batch exceeds this count.
	RefilterThreshold int

	// GraceWindow exempts recently synced links from deletion.
	GraceWindow time.Duration

	// DeleteBatchSize is the link paging size during reconciliation.
	DeleteBatchSize int

	// ProgressEvery emits a progress update every N pages in
	// sequential mode.
	ProgressEvery int

	// ReclaimEvery releases working memory every N pages in
	// sequential mode.
	ReclaimEvery int

	// MemoryBudgetMB feeds the time budget's memory tiers.
	MemoryBudgetMB int

	// Background doubles the time budget for unattended runs.
	Background bool

	// RetryBackoff is the wait before retrying a retryable fetch.
	RetryBackoff time.Duration

	// LeaseTTL bounds how long a crashed pass can hold the pass lease.
	// Zero derives the TTL from the time budget.
	LeaseTTL time.Duration

	// DryRun walks the full decision pipeline without writing.
	DryRun bool
}

// DefaultOptions returns the standard pass tuning.
func DefaultOptions() Options {
	return Options{
		CompareHashes:     true,
		BulkMode:          true,
		BulkThreshold:     10,
		RefilterThreshold: 50,
		GraceWindow:       24 * time.Hour,
		DeleteBatchSize:   1000,
		ProgressEvery:     10,
		ReclaimEvery:      25,
		MemoryBudgetMB:    512,
		RetryBackoff:      time.Second,
	}
}
