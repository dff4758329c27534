package sync

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/model"
	"github.com/klauern/pagesync/internal/progress"
	"github.com/klauern/pagesync/internal/render"
)

// Source is the slice of the workspace client a pass consumes.
type Source interface {
	ListPages(ctx context.Context, collectionID string, filter *model.Filter) ([]model.Page, error)
	GetPage(ctx context.Context, id string) (model.Page, error)
	GetBlocks(ctx context.Context, id string) ([]model.Block, error)
}

// Store is the slice of the content store a pass consumes.
type Store interface {
	FindLinkByExternalID(ctx context.Context, externalID string) (*model.Link, error)
	SaveLink(ctx context.Context, link model.Link) error
	DeleteLink(ctx context.Context, externalID string) (bool, error)
	ListLinks(ctx context.Context, afterID int64, limit int) ([]model.Link, error)
	CreateOrUpdateDocument(ctx context.Context, page model.Page, content string) (int64, error)
	DeleteDocument(ctx context.Context, localID int64) (bool, error)
	Watermark(ctx context.Context) (*time.Time, error)
	SetWatermark(ctx context.Context, t time.Time) error
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, name, holder string) error
}

// leaseName serializes sync passes across manual, scheduled, and
// webhook triggers for one source/store pair.
const leaseName = "sync-pass"

var (
	// ErrPassActive indicates another pass holds the lease.
	ErrPassActive = errors.New("another sync pass is already active")

	// ErrNoRecords indicates a first-ever pass retrieved nothing. With no
	// watermark on record there is no way to tell "empty collection"
	// from "broken transport", so the pass fails loudly.
	ErrNoRecords = errors.New("no records retrievable from source")
)

// Syncer composes the change detector, deletion reconciler, time budget
// governor, error classifier, and batch strategy into end-to-end sync
// passes. Collaborators are injected as interfaces.
type Syncer struct {
	source   Source
	store    Store
	renderer render.Renderer
	sink     progress.Sink
	opts     Options
	clock    func() time.Time

	detector   *Detector
	reconciler *Reconciler
	governor   *Governor
}

// SyncerOption customizes a Syncer.
type SyncerOption func(*Syncer)

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) SyncerOption {
	return func(s *Syncer) {
		s.clock = clock
	}
}

// WithSleep overrides the retry backoff sleep. Used by tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) SyncerOption {
	return func(s *Syncer) {
		s.detector.sleep = sleep
	}
}

// New creates a Syncer.
func New(source Source, store Store, renderer render.Renderer, sink progress.Sink, opts Options, syncerOpts ...SyncerOption) *Syncer {
	s := &Syncer{
		source:   source,
		store:    store,
		renderer: renderer,
		sink:     sink,
		opts:     opts,
		clock:    time.Now,
	}
	s.detector = NewDetector(source, store, opts.CompareHashes, opts.RetryBackoff)

	for _, opt := range syncerOpts {
		opt(s)
	}

	s.governor = NewGovernor(s.clock)
	s.reconciler = NewReconciler(store, opts.GraceWindow, opts.DeleteBatchSize, opts.DryRun, s.clock)
	return s
}

// Run executes one sync pass. Per-page errors are tallied in the result
// and never abort the pass; only a lease conflict, a store failure, or a
// first-ever pass that retrieves nothing surfaces as an error.
func (s *Syncer) Run(ctx context.Context, cfg PassConfig) (*Result, error) {
	mode := ModeIncremental
	if !cfg.Incremental || cfg.ForceRefresh {
		mode = ModeFull
	}
	limit := OptimalTimeout(mode, s.opts.MemoryBudgetMB, s.opts.Background)

	passID := uuid.NewString()
	start := s.clock()

	if err := s.acquireLease(ctx, passID, limit); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.store.ReleaseLease(ctx, leaseName, passID); err != nil {
			logging.Warn("failed to release pass lease", logging.Pass(passID), logging.Err(err))
		}
	}()

	pctx := newPassContext(passID, cfg, s.opts, s.sink, start, limit)
	pctx.Logger.Info("sync pass starting",
		logging.Collection(s.opts.Collection),
		"mode", string(mode),
		"budget", limit.String(),
		"dry_run", s.opts.DryRun)

	res, err := s.runPass(ctx, pctx, start, limit)
	if err != nil {
		pctx.Progress(StatusFailed, err.Error())
		return nil, err
	}

	res.Elapsed = s.clock().Sub(start)
	status := StatusCompleted
	if res.Stopped {
		status = StatusStopped
	}
	pctx.Progress(status, fmt.Sprintf("processed %d of %d pages", res.Processed(), res.Total))

	pctx.Logger.Info("sync pass finished",
		"imported", res.Imported,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"deleted", res.Deleted,
		"failed", res.Failed,
		"stopped", res.Stopped,
		logging.Duration(res.Elapsed))
	return res, nil
}

// runPass is the pass body, run while holding the lease.
func (s *Syncer) runPass(ctx context.Context, pctx *PassContext, start time.Time, limit time.Duration) (*Result, error) {
	cfg := pctx.Config
	res := pctx.Stats

	watermark, err := s.store.Watermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	var filter *model.Filter
	if cfg.Incremental && !cfg.ForceRefresh {
		filter = s.detector.BuildFilter(watermark)
	}

	pages, degraded, err := s.detector.FetchChanged(ctx, s.opts.Collection, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch pages: %w", err)
	}

	// An empty listing is ambiguous. The watermark decides: no watermark
	// means the pass has never completed, so nothing retrievable is an
	// error; with a watermark, zero changes is a legitimate result.
	if len(pages) == 0 && watermark == nil {
		return nil, ErrNoRecords
	}
	if degraded {
		res.addError("page listing unavailable; processed no pages this pass")
	}

	if cfg.CheckDeletions {
		s.reconcileDeletions(ctx, pctx, pages, filter, degraded)
	}

	if filter != nil && len(pages) > s.opts.RefilterThreshold {
		pages, err = s.detector.Refilter(ctx, pages, pctx)
		if err != nil {
			return nil, err
		}
		pctx.Logger.Debug("client-side re-filter applied", logging.Count(res.Skipped))
	}

	res.Total = len(pages) + res.Skipped

	strategy := SelectStrategy(len(pages), s.opts)
	pctx.Logger.Debug("strategy selected",
		logging.Operation("process"),
		"strategy", strategy.String(),
		logging.Count(len(pages)))

	switch strategy {
	case StrategyBulk:
		s.runBulk(ctx, pctx, pages)
	default:
		s.runSequential(ctx, pctx, pages, start, limit)
	}

	// The watermark advances only when the pass saw everything: not
	// truncated by the budget and not running on a degraded listing. A
	// held-back watermark just re-offers the same pages next pass, where
	// the skip check keeps the rework cheap.
	if !res.Stopped && !degraded && !s.opts.DryRun {
		if err := s.store.SetWatermark(ctx, s.clock().UTC()); err != nil {
			return nil, fmt.Errorf("persist watermark: %w", err)
		}
	}

	return res, nil
}

// acquireLease takes the pass lease, with a TTL generous enough to
// outlive the budget so a crashed pass cannot block successors forever.
func (s *Syncer) acquireLease(ctx context.Context, passID string, limit time.Duration) error {
	ttl := s.opts.LeaseTTL
	if ttl <= 0 {
		ttl = limit + 5*time.Minute
	}

	ok, err := s.store.AcquireLease(ctx, leaseName, passID, ttl)
	if err != nil {
		return fmt.Errorf("acquire pass lease: %w", err)
	}
	if !ok {
		return ErrPassActive
	}
	return nil
}

// reconcileDeletions runs the deletion reconciler against the full
// unfiltered listing, never the incrementally filtered subset.
func (s *Syncer) reconcileDeletions(ctx context.Context, pctx *PassContext, pages []model.Page, filter *model.Filter, degraded bool) {
	full := pages
	if filter != nil || degraded {
		var err error
		full, err = s.source.ListPages(ctx, s.opts.Collection, nil)
		if err != nil {
			pctx.Stats.addError(fmt.Sprintf("full listing for deletion check: %v", err))
			pctx.Logger.Warn("skipping deletion check: full listing failed", logging.Err(err))
			return
		}
	}

	ids := make(map[string]struct{}, len(full))
	for _, p := range full {
		ids[p.ID] = struct{}{}
	}

	deleted, errs := s.reconciler.Reconcile(ctx, ids)
	pctx.Stats.Deleted = deleted
	for _, e := range errs {
		pctx.Stats.addError(e)
	}
}

// runSequential processes pages one at a time, polling the time budget
// at every iteration boundary. When the budget trips, the in-flight page
// has already finished; no further page is attempted.
func (s *Syncer) runSequential(ctx context.Context, pctx *PassContext, pages []model.Page, start time.Time, limit time.Duration) {
	warned := false

	for i := range pages {
		if i > 0 {
			status := s.governor.Status(start, limit)
			if status.ShouldStop {
				pctx.Stats.Stopped = true
				pctx.Logger.Warn("time budget reached, deferring remaining pages",
					logging.Count(len(pages)-i),
					logging.Duration(status.Elapsed))
				break
			}
			if status.ShouldWarn && !warned {
				warned = true
				pctx.Logger.Warn("time budget running low",
					"used_percent", fmt.Sprintf("%.0f", status.UsedPercent))
			}
		}

		outcome := s.processPage(ctx, pctx, pages[i])
		pctx.Stats.record(outcome)

		// Drop the processed page's property and block references so
		// reclamation has something to collect.
		pages[i] = model.Page{}

		done := i + 1
		if s.opts.ProgressEvery > 0 && done%s.opts.ProgressEvery == 0 {
			pctx.Progress(StatusRunning, fmt.Sprintf("processed %d of %d pages", done, len(pages)))
		}
		if s.opts.ReclaimEvery > 0 && done%s.opts.ReclaimEvery == 0 {
			runtime.GC()
		}
	}
}

// runBulk processes the batch as one cohesive loop: no per-page
// progress, reclamation, or budget polls, and a single stats merge at
// the end. Outcomes stay isolated per page.
func (s *Syncer) runBulk(ctx context.Context, pctx *PassContext, pages []model.Page) {
	pctx.Progress(StatusRunning, fmt.Sprintf("bulk processing %d pages", len(pages)))

	outcomes := make([]RecordOutcome, 0, len(pages))
	for i := range pages {
		outcomes = append(outcomes, s.processPage(ctx, pctx, pages[i]))
	}

	for _, o := range outcomes {
		pctx.Stats.record(o)
	}
}

// processPage runs one page through the skip/fetch/render/persist
// pipeline and returns its outcome. Every failure is contained here.
func (s *Syncer) processPage(ctx context.Context, pctx *PassContext, page model.Page) RecordOutcome {
	out := RecordOutcome{ExternalID: page.ID, Title: page.Title}

	if err := page.Validate(); err != nil {
		out.Outcome = model.OutcomeFailed
		out.Reason = fmt.Sprintf("validation: %v", err)
		return out
	}

	link, err := s.store.FindLinkByExternalID(ctx, page.ID)
	if err != nil {
		out.Outcome = model.OutcomeFailed
		out.Reason = fmt.Sprintf("link lookup: %v", err)
		return out
	}

	if !pctx.Config.ForceRefresh && s.detector.ShouldSkip(page, link) {
		out.Outcome = model.OutcomeSkipped
		out.Reason = "unchanged"
		return out
	}

	blocks, err := s.source.GetBlocks(ctx, page.ContentRef)
	if err != nil {
		out.Outcome = model.OutcomeFailed
		out.Reason = fmt.Sprintf("fetch content: %v", err)
		return out
	}

	content, err := s.renderer.Render(page, blocks)
	if err != nil {
		out.Outcome = model.OutcomeFailed
		out.Reason = fmt.Sprintf("render: %v", err)
		return out
	}

	if link == nil {
		out.Outcome = model.OutcomeImported
	} else {
		out.Outcome = model.OutcomeUpdated
	}

	if s.opts.DryRun {
		return out
	}

	localID, err := s.store.CreateOrUpdateDocument(ctx, page, content)
	if err != nil {
		out.Outcome = model.OutcomeFailed
		out.Reason = fmt.Sprintf("persist: %v", err)
		return out
	}

	if err := s.detector.UpdateLink(ctx, page, localID, content, s.clock()); err != nil {
		// The document is written but the link is stale; the page will
		// reprocess next pass rather than be silently skipped.
		out.Outcome = model.OutcomeFailed
		out.Reason = err.Error()
		return out
	}

	return out
}

// SyncPage routes a single page through the standard per-page pipeline,
// bypassing listing and deletion reconciliation. Used by webhook page
// events and the --page flag.
func (s *Syncer) SyncPage(ctx context.Context, id string) (*Result, error) {
	passID := uuid.NewString()
	start := s.clock()

	if err := s.acquireLease(ctx, passID, time.Minute); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.store.ReleaseLease(ctx, leaseName, passID); err != nil {
			logging.Warn("failed to release pass lease", logging.Pass(passID), logging.Err(err))
		}
	}()

	pctx := newPassContext(passID, PassConfig{}, s.opts, s.sink, start, time.Minute)

	page, err := s.source.GetPage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", id, err)
	}

	pctx.Stats.Total = 1
	pctx.Stats.record(s.processPage(ctx, pctx, page))
	pctx.Stats.Elapsed = s.clock().Sub(start)
	pctx.Progress(StatusCompleted, fmt.Sprintf("synced page %s", id))
	return pctx.Stats, nil
}

// DeleteLocal removes the local document and link for one external id.
// The fast path for delete-type webhook events; no pass runs. Returns
// false when the page was never synced.
func (s *Syncer) DeleteLocal(ctx context.Context, externalID string) (bool, error) {
	link, err := s.store.FindLinkByExternalID(ctx, externalID)
	if err != nil {
		return false, fmt.Errorf("find link %s: %w", externalID, err)
	}
	if link == nil {
		return false, nil
	}

	if _, err := s.store.DeleteDocument(ctx, link.LocalID); err != nil {
		return false, fmt.Errorf("delete document for %s: %w", externalID, err)
	}
	if _, err := s.store.DeleteLink(ctx, externalID); err != nil {
		return false, fmt.Errorf("delete link %s: %w", externalID, err)
	}

	logging.Info("deleted local document", logging.Page(externalID))
	return true, nil
}
