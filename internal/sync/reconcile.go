package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/klauern/pagesync/internal/logging"
)

// Reconciler removes local documents whose pages vanished upstream. It
// only ever runs against a full, successfully fetched source listing;
// the empty-set guard protects the store when an upstream failure
// degrades the listing to nothing.
type Reconciler struct {
	store     Store
	grace     time.Duration
	batchSize int
	dryRun    bool
	clock     func() time.Time
}

// NewReconciler creates a deletion reconciler.
func NewReconciler(store Store, grace time.Duration, batchSize int, dryRun bool, clock func() time.Time) *Reconciler {
	if clock == nil {
		clock = time.Now
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Reconciler{
		store:     store,
		grace:     grace,
		batchSize: batchSize,
		dryRun:    dryRun,
		clock:     clock,
	}
}

// Reconcile scans the link index in local-id order and deletes every
// document whose external id is absent from currentIDs, unless the link
// is protected or was synced within the grace window. Per-link failures
// are logged and counted; the scan never aborts on them. Returns the
// number of documents deleted and any error messages collected.
func (r *Reconciler) Reconcile(ctx context.Context, currentIDs map[string]struct{}) (int, []string) {
	if len(currentIDs) == 0 {
		logging.Warn("deletion reconciliation skipped: empty source listing")
		return 0, nil
	}

	now := r.clock()
	deleted := 0
	var errs []string
	afterID := int64(0)

	for {
		links, err := r.store.ListLinks(ctx, afterID, r.batchSize)
		if err != nil {
			errs = append(errs, fmt.Sprintf("list links: %v", err))
			logging.Error("deletion scan aborted", logging.Err(err))
			return deleted, errs
		}
		if len(links) == 0 {
			break
		}

		for _, link := range links {
			afterID = link.LocalID

			if _, present := currentIDs[link.ExternalID]; present {
				continue
			}
			if link.Protected {
				logging.Debug("orphan is protected, keeping",
					logging.Page(link.ExternalID))
				continue
			}
			if link.SyncedWithin(r.grace, now) {
				logging.Debug("orphan inside grace window, keeping",
					logging.Page(link.ExternalID))
				continue
			}

			if r.dryRun {
				logging.Info("would delete orphaned document",
					logging.Page(link.ExternalID))
				deleted++
				continue
			}

			if _, err := r.store.DeleteDocument(ctx, link.LocalID); err != nil {
				errs = append(errs, fmt.Sprintf("delete document %s: %v", link.ExternalID, err))
				logging.Warn("failed to delete orphaned document",
					logging.Page(link.ExternalID),
					logging.Err(err))
				continue
			}
			if _, err := r.store.DeleteLink(ctx, link.ExternalID); err != nil {
				errs = append(errs, fmt.Sprintf("delete link %s: %v", link.ExternalID, err))
				logging.Warn("failed to delete link",
					logging.Page(link.ExternalID),
					logging.Err(err))
				continue
			}

			deleted++
			logging.Info("deleted orphaned document", logging.Page(link.ExternalID))
		}

		if len(links) < r.batchSize {
			break
		}
	}

	return deleted, errs
}
