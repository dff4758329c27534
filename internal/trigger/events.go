// Package trigger maps the three pass triggers onto the coordinator:
// webhook events with per-type pass defaults, a scheduled ticker loop,
// and the serve-mode HTTP surface that carries both.
package trigger

import (
	"context"
	"fmt"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/sync"
)

// EventType identifies a webhook event.
type EventType string

const (
	// EventPageCreated fires when a page is added upstream.
	EventPageCreated EventType = "page.created"

	// EventPageUpdated fires when a page's metadata changes.
	EventPageUpdated EventType = "page.updated"

	// EventContentUpdated fires when a page's block content changes.
	EventContentUpdated EventType = "page.content_updated"

	// EventPageDeleted fires when a page is removed upstream.
	EventPageDeleted EventType = "page.deleted"

	// EventCollectionUpdated fires on collection-level changes, where
	// individual page ids are unknown.
	EventCollectionUpdated EventType = "collection.updated"
)

// IsValid returns true if the event type is recognized.
func (t EventType) IsValid() bool {
	switch t {
	case EventPageCreated, EventPageUpdated, EventContentUpdated,
		EventPageDeleted, EventCollectionUpdated:
		return true
	default:
		return false
	}
}

// Event is one decoded webhook delivery. Signature verification happens
// upstream of this package.
type Event struct {
	Type         EventType `json:"type"`
	PageID       string    `json:"page_id,omitempty"`
	CollectionID string    `json:"collection_id,omitempty"`
}

// Runner is the slice of the pass coordinator the triggers drive.
type Runner interface {
	Run(ctx context.Context, cfg sync.PassConfig) (*sync.Result, error)
	SyncPage(ctx context.Context, id string) (*sync.Result, error)
	DeleteLocal(ctx context.Context, externalID string) (bool, error)
}

// Dispatcher routes webhook events to the coordinator with per-type
// pass defaults.
type Dispatcher struct {
	runner Runner
}

// NewDispatcher creates a dispatcher over the given runner.
func NewDispatcher(runner Runner) *Dispatcher {
	return &Dispatcher{runner: runner}
}

// Dispatch handles one event. Delete events bypass the pass entirely
// and drop the single local document; collection events run a full
// incremental pass with deletion checking; page events sync just the
// named page, falling back to an incremental pass without deletions
// when the delivery carries no page id.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*sync.Result, error) {
	if !ev.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}

	logging.Info("dispatching webhook event",
		"event", string(ev.Type),
		logging.Page(ev.PageID))

	switch ev.Type {
	case EventPageDeleted:
		if ev.PageID == "" {
			return nil, fmt.Errorf("%s event without page id", ev.Type)
		}
		deleted, err := d.runner.DeleteLocal(ctx, ev.PageID)
		if err != nil {
			return nil, err
		}
		res := &sync.Result{}
		if deleted {
			res.Deleted = 1
		}
		return res, nil

	case EventCollectionUpdated:
		return d.runner.Run(ctx, sync.PassConfig{
			Incremental:    true,
			CheckDeletions: true,
		})

	default:
		if ev.PageID != "" {
			return d.runner.SyncPage(ctx, ev.PageID)
		}
		return d.runner.Run(ctx, sync.PassConfig{Incremental: true})
	}
}
