package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/klauern/pagesync/internal/model"
)

// RecordOutcome is the result of processing one page during a pass.
type RecordOutcome struct {
	// ExternalID is the page's remote id.
	ExternalID string

	// Title is the page title, for human-readable reporting.
	Title string

	// Outcome is what happened to the page.
	Outcome model.Outcome

	// Reason carries context for skipped and failed outcomes.
	Reason string
}

// Result contains the complete outcome of one sync pass. It is mutated
// only by the pass's own goroutine and is final once Run returns it.
type Result struct {
	// PassID uniquely identifies this pass.
	PassID string

	// Total is the number of pages handed to processing after the
	// server-side pre-filter.
	Total int

	// Imported counts pages stored for the first time.
	Imported int

	// Updated counts pages whose local document was rewritten.
	Updated int

	// Skipped counts pages left untouched because nothing changed.
	Skipped int

	// Failed counts pages that errored. Failures never abort a pass.
	Failed int

	// Deleted counts local documents removed by deletion reconciliation.
	Deleted int

	// Errors collects per-page and reconciliation error messages.
	Errors []string

	// Elapsed is the wall-clock duration of the pass.
	Elapsed time.Duration

	// Stopped is true when the time budget truncated the pass. A stopped
	// pass is still a success; the remaining pages defer to the next run.
	Stopped bool

	// DryRun indicates no writes were performed.
	DryRun bool

	// Records holds the per-page outcomes in processing order.
	Records []RecordOutcome
}

// record tallies one page outcome into the counters.
func (r *Result) record(ro RecordOutcome) {
	r.Records = append(r.Records, ro)

	switch ro.Outcome {
	case model.OutcomeImported:
		r.Imported++
	case model.OutcomeUpdated:
		r.Updated++
	case model.OutcomeSkipped:
		r.Skipped++
	case model.OutcomeFailed:
		r.Failed++
		msg := ro.Reason
		if msg == "" {
			msg = "unknown failure"
		}
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", ro.ExternalID, msg))
	}
}

// addError records a non-page-scoped error message, such as a
// reconciliation failure.
func (r *Result) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Processed returns the number of pages that received an outcome.
func (r *Result) Processed() int {
	return r.Imported + r.Updated + r.Skipped + r.Failed
}

// Changed returns the number of pages whose local state was modified.
func (r *Result) Changed() int {
	return r.Imported + r.Updated + r.Deleted
}

// Success returns true if no page failed.
func (r *Result) Success() bool {
	return r.Failed == 0
}

// Summary returns a human-readable summary of the pass.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("Dry run - no changes made\n")
	}

	sb.WriteString(fmt.Sprintf("Synced %d of %d pages in %s\n",
		r.Processed(), r.Total, r.Elapsed.Round(time.Millisecond)))

	sb.WriteString(fmt.Sprintf("  Imported: %d\n", r.Imported))
	sb.WriteString(fmt.Sprintf("  Updated:  %d\n", r.Updated))
	sb.WriteString(fmt.Sprintf("  Skipped:  %d\n", r.Skipped))
	sb.WriteString(fmt.Sprintf("  Deleted:  %d\n", r.Deleted))
	sb.WriteString(fmt.Sprintf("  Failed:   %d\n", r.Failed))

	if r.Stopped {
		sb.WriteString("\nTime budget reached; remaining pages deferred to the next pass\n")
	}

	if len(r.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", e))
		}
	}

	return sb.String()
}
