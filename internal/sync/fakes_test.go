package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/klauern/pagesync/internal/model"
)

// fakeSource is an in-memory Source. List failures are scripted per
// call through listErrs; a filter is applied the way the real server
// would, so tests exercise the server-side pre-filter.
type fakeSource struct {
	pages  []model.Page
	blocks map[string][]model.Block

	listErrs    []error
	listCalls   int
	listFilters []*model.Filter

	getPageErr   error
	getBlocksErr error
	blocksErrs   map[string]error
	onGetBlocks  func(id string)
	blocksCalls  int
}

func (f *fakeSource) ListPages(_ context.Context, _ string, filter *model.Filter) ([]model.Page, error) {
	call := f.listCalls
	f.listCalls++
	f.listFilters = append(f.listFilters, filter)

	if call < len(f.listErrs) && f.listErrs[call] != nil {
		return nil, f.listErrs[call]
	}

	if filter == nil || filter.EditedAfter == nil {
		return append([]model.Page(nil), f.pages...), nil
	}

	var out []model.Page
	for _, p := range f.pages {
		if p.LastEdited.After(*filter.EditedAfter) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSource) GetPage(_ context.Context, id string) (model.Page, error) {
	if f.getPageErr != nil {
		return model.Page{}, f.getPageErr
	}
	for _, p := range f.pages {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Page{}, fmt.Errorf("page %s not found", id)
}

func (f *fakeSource) GetBlocks(_ context.Context, id string) ([]model.Block, error) {
	f.blocksCalls++
	if f.onGetBlocks != nil {
		f.onGetBlocks(id)
	}
	if f.getBlocksErr != nil {
		return nil, f.getBlocksErr
	}
	if err, ok := f.blocksErrs[id]; ok {
		return nil, err
	}
	return f.blocks[id], nil
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu        sync.Mutex
	links     map[string]model.Link
	docs      map[int64]string
	nextID    int64
	watermark *time.Time
	lease     string

	saveLinkErr  error
	findLinkErr  error
	upsertErr    error
	setWatermark int
	leaseDenied  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		links: make(map[string]model.Link),
		docs:  make(map[int64]string),
	}
}

func (f *fakeStore) FindLinkByExternalID(_ context.Context, externalID string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findLinkErr != nil {
		return nil, f.findLinkErr
	}
	link, ok := f.links[externalID]
	if !ok {
		return nil, nil
	}
	return &link, nil
}

func (f *fakeStore) SaveLink(_ context.Context, link model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveLinkErr != nil {
		return f.saveLinkErr
	}
	f.links[link.ExternalID] = link
	return nil
}

func (f *fakeStore) DeleteLink(_ context.Context, externalID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[externalID]; !ok {
		return false, nil
	}
	delete(f.links, externalID)
	return true, nil
}

func (f *fakeStore) ListLinks(_ context.Context, afterID int64, limit int) ([]model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Link
	for id := afterID + 1; id <= f.nextID && len(out) < limit; id++ {
		for _, link := range f.links {
			if link.LocalID == id {
				out = append(out, link)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CreateOrUpdateDocument(_ context.Context, page model.Page, content string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}

	if link, ok := f.links[page.ID]; ok {
		f.docs[link.LocalID] = content
		return link.LocalID, nil
	}
	f.nextID++
	f.docs[f.nextID] = content
	return f.nextID, nil
}

func (f *fakeStore) DeleteDocument(_ context.Context, localID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[localID]; !ok {
		return false, nil
	}
	delete(f.docs, localID)
	return true, nil
}

func (f *fakeStore) Watermark(context.Context) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watermark, nil
}

func (f *fakeStore) SetWatermark(_ context.Context, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setWatermark++
	utc := t.UTC()
	f.watermark = &utc
	return nil
}

func (f *fakeStore) AcquireLease(_ context.Context, _, holder string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leaseDenied {
		return false, nil
	}
	f.lease = holder
	return true, nil
}

func (f *fakeStore) ReleaseLease(_ context.Context, _, holder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lease == holder {
		f.lease = ""
	}
	return nil
}

// seedLink installs a synced link plus its document, as if a previous
// pass stored the page.
func (f *fakeStore) seedLink(link model.Link) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if link.LocalID == 0 {
		f.nextID++
		link.LocalID = f.nextID
	} else if link.LocalID > f.nextID {
		f.nextID = link.LocalID
	}
	f.links[link.ExternalID] = link
	f.docs[link.LocalID] = "seeded"
}

// manualClock is a controllable time source.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// noSleep is a sleep stub that returns immediately.
func noSleep(context.Context, time.Duration) error { return nil }

// testPage builds a valid page.
func testPage(id string, edited time.Time) model.Page {
	return model.Page{
		ID:         id,
		Title:      "Page " + id,
		LastEdited: edited,
		ContentRef: id,
	}
}
