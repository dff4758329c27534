package model

import "time"

// Link ties a remote page to its locally stored document. Exactly one
// link exists per external id; the store enforces uniqueness.
type Link struct {
	ExternalID     string    `json:"external_id"`
	LocalID        int64     `json:"local_id"`
	LastSyncedEdit time.Time `json:"last_synced_edit"`
	ContentHash    string    `json:"content_hash,omitempty"`
	PropertiesHash string    `json:"properties_hash,omitempty"`

	// Protected marks a link the deletion reconciler must never remove,
	// regardless of whether the remote page still exists.
	Protected bool `json:"protected,omitempty"`

	// SyncedAt records when the link was last written. Recently synced
	// links are exempt from deletion reconciliation for a grace window.
	SyncedAt time.Time `json:"synced_at"`
}

// SyncedWithin returns true if the link was written inside the given
// window, measured back from now.
func (l Link) SyncedWithin(window time.Duration, now time.Time) bool {
	if l.SyncedAt.IsZero() {
		return false
	}
	return now.UTC().Sub(l.SyncedAt.UTC()) < window
}
