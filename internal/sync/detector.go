package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/model"
)

// Detector decides which pages actually changed. It builds the
// watermark filter for the server-side pre-fetch, performs the fetch
// with classification-driven recovery, and owns the per-page skip
// decision and link bookkeeping.
type Detector struct {
	source        Source
	store         Store
	compareHashes bool
	backoff       time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewDetector creates a change detector.
func NewDetector(source Source, store Store, compareHashes bool, backoff time.Duration) *Detector {
	return &Detector{
		source:        source,
		store:         store,
		compareHashes: compareHashes,
		backoff:       backoff,
		sleep:         sleepContext,
	}
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BuildFilter maps the watermark to a server-side filter. No watermark
// means the pass has never completed, so the fetch runs unfiltered.
func (d *Detector) BuildFilter(watermark *time.Time) *model.Filter {
	if watermark == nil {
		return nil
	}
	return model.EditedAfterFilter(*watermark)
}

// ShouldSkip reports whether a page is unchanged since its link was last
// written. Both timestamps are normalized to UTC before comparing; when
// hash comparison is on, the property and content hashes must also match.
// A nil link means the page has never been synced and is never skipped.
func (d *Detector) ShouldSkip(page model.Page, link *model.Link) bool {
	if link == nil {
		return false
	}
	if page.EditedUTC().After(link.LastSyncedEdit.UTC()) {
		return false
	}
	if d.compareHashes {
		if HashProperties(page.Properties) != link.PropertiesHash {
			return false
		}
	}
	return true
}

// FetchChanged retrieves the page listing with the recovery ladder from
// the pass design: classify the failure, retry the same filtered request
// once after a fixed backoff when the category is retryable, then fall
// back to one unfiltered full fetch, and finally degrade to an empty
// listing so the pass can still finish reconciliation and statistics.
// The degraded flag tells the orchestrator the listing is not
// trustworthy as "nothing changed".
func (d *Detector) FetchChanged(ctx context.Context, collectionID string, filter *model.Filter) (pages []model.Page, degraded bool, err error) {
	pages, err = d.source.ListPages(ctx, collectionID, filter)
	if err == nil {
		return pages, false, nil
	}

	cat := Classify(err)
	logging.Warn("page listing failed",
		logging.Collection(collectionID),
		logging.Category(cat.String()),
		logging.Err(err))

	if ShouldRetry(cat) {
		if serr := d.sleep(ctx, d.backoff); serr != nil {
			return nil, true, serr
		}
		pages, err = d.source.ListPages(ctx, collectionID, filter)
		if err == nil {
			return pages, false, nil
		}
		logging.Warn("page listing retry failed",
			logging.Collection(collectionID),
			logging.Err(err))
	}

	// A filtered request may be failing because of the filter itself.
	// One unfiltered fetch is the last recovery step.
	if filter != nil {
		pages, err = d.source.ListPages(ctx, collectionID, nil)
		if err == nil {
			logging.Info("unfiltered fallback fetch succeeded",
				logging.Collection(collectionID),
				logging.Count(len(pages)))
			return pages, false, nil
		}
		logging.Warn("unfiltered fallback fetch failed",
			logging.Collection(collectionID),
			logging.Err(err))
	}

	return nil, true, nil
}

// Refilter re-checks a server-filtered batch client-side, dropping pages
// whose link says nothing changed. Defense in depth against imperfect
// server filters; each dropped page is recorded as skipped.
func (d *Detector) Refilter(ctx context.Context, pages []model.Page, pctx *PassContext) ([]model.Page, error) {
	kept := pages[:0]
	for _, page := range pages {
		link, err := d.store.FindLinkByExternalID(ctx, page.ID)
		if err != nil {
			return nil, fmt.Errorf("refilter %s: %w", page.ID, err)
		}
		if d.ShouldSkip(page, link) {
			pctx.Stats.record(RecordOutcome{
				ExternalID: page.ID,
				Title:      page.Title,
				Outcome:    model.OutcomeSkipped,
				Reason:     "unchanged on re-filter",
			})
			continue
		}
		kept = append(kept, page)
	}
	return kept, nil
}

// UpdateLink recomputes the change-detection state for a page and
// persists its link. Called only after the document write succeeded, so
// a failed write never marks a page as synced.
func (d *Detector) UpdateLink(ctx context.Context, page model.Page, localID int64, content string, now time.Time) error {
	var protected bool
	if existing, err := d.store.FindLinkByExternalID(ctx, page.ID); err == nil && existing != nil {
		protected = existing.Protected
	}

	link := model.Link{
		ExternalID:     page.ID,
		LocalID:        localID,
		LastSyncedEdit: page.EditedUTC(),
		ContentHash:    HashContent(content),
		PropertiesHash: HashProperties(page.Properties),
		Protected:      protected,
		SyncedAt:       now.UTC(),
	}
	if err := d.store.SaveLink(ctx, link); err != nil {
		return fmt.Errorf("update link for %s: %w", page.ID, err)
	}
	return nil
}

// HashContent returns the hex sha256 of rendered content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// HashProperties returns the hex sha256 over the canonical forms of a
// property set. Keys are sorted so map iteration order never shows up as
// a change.
func HashProperties(props map[string]model.PropertyValue) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(props[k].Canonical())
		sb.WriteString("\n")
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
