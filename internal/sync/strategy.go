package sync

// Strategy selects how a batch of changed pages is executed.
type Strategy string

const (
	// StrategyBulk processes the batch as one cohesive loop, trading
	// per-page progress and memory reclamation for throughput. Stats
	// merge once at the end.
	StrategyBulk Strategy = "bulk"

	// StrategySequential processes one page at a time, polling the time
	// budget at every iteration boundary, emitting progress and
	// reclaiming working memory on a fixed cadence.
	StrategySequential Strategy = "sequential"
)

// IsValid returns true if the strategy is recognized.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyBulk, StrategySequential:
		return true
	default:
		return false
	}
}

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// SelectStrategy chooses the execution strategy for a batch. Bulk
// requires bulk mode enabled and a batch at least BulkThreshold pages
// large; everything else runs sequentially.
func SelectStrategy(recordCount int, opts Options) Strategy {
	if opts.BulkMode && recordCount >= opts.BulkThreshold {
		return StrategyBulk
	}
	return StrategySequential
}
