package model

// Outcome represents the result of processing a single page during a
// sync pass. Exactly one outcome is recorded per processed page; a
// failed page never affects its siblings.
type Outcome string

const (
	// OutcomeImported indicates a page was stored for the first time.
	OutcomeImported Outcome = "imported"

	// OutcomeUpdated indicates an existing local document was rewritten.
	OutcomeUpdated Outcome = "updated"

	// OutcomeSkipped indicates the page was unchanged since the last sync
	// and its link was left untouched.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed indicates an error occurred processing the page.
	OutcomeFailed Outcome = "failed"
)

// IsValid returns true if the outcome is recognized.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeImported, OutcomeUpdated, OutcomeSkipped, OutcomeFailed:
		return true
	default:
		return false
	}
}

// AllOutcomes returns every recognized outcome.
func AllOutcomes() []Outcome {
	return []Outcome{OutcomeImported, OutcomeUpdated, OutcomeSkipped, OutcomeFailed}
}

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}
