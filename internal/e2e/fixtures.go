package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/klauern/pagesync/internal/model"
)

// Workspace is a fake remote workspace API. It serves collection
// listings with edited_after pre-filtering, single page fetches, and
// block content, matching the wire shapes the source client decodes.
type Workspace struct {
	// Collection is the collection id the workspace serves.
	Collection string

	t   *testing.T
	mu  sync.Mutex
	srv *httptest.Server

	pages  map[string]model.Page
	blocks map[string][]model.Block

	// ListCalls counts collection listing requests.
	ListCalls int
}

// NewWorkspace starts a fake workspace server. It shuts down when the
// test completes.
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()

	w := &Workspace{
		Collection: "col-e2e",
		t:          t,
		pages:      make(map[string]model.Page),
		blocks:     make(map[string][]model.Block),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections/{collection}/pages", w.handleList)
	mux.HandleFunc("GET /pages/{id}/blocks", w.handleBlocks)
	mux.HandleFunc("GET /pages/{id}", w.handlePage)

	w.srv = httptest.NewServer(mux)
	t.Cleanup(w.srv.Close)
	return w
}

// URL returns the workspace API root.
func (w *Workspace) URL() string {
	return w.srv.URL
}

// AddPage installs or replaces a page and its block content.
func (w *Workspace) AddPage(page model.Page, blocks ...model.Block) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages[page.ID] = page
	w.blocks[page.ID] = blocks
}

// RemovePage deletes a page upstream, as if it were removed remotely.
func (w *Workspace) RemovePage(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pages, id)
	delete(w.blocks, id)
}

// Page builds a valid page edited at the given instant.
func Page(id, title string, edited time.Time) model.Page {
	return model.Page{
		ID:         id,
		Title:      title,
		LastEdited: edited.UTC(),
		ContentRef: id,
	}
}

// Paragraph builds a paragraph block.
func Paragraph(text string) model.Block {
	return model.Block{ID: "blk-" + text, Type: model.BlockParagraph, Text: text}
}

// listEnvelope mirrors the listing wire shape.
type listEnvelope struct {
	Pages      []model.Page `json:"pages"`
	NextCursor string       `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}

// blockEnvelope mirrors the block content wire shape.
type blockEnvelope struct {
	Blocks     []model.Block `json:"blocks"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

func (w *Workspace) handleList(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ListCalls++

	if r.PathValue("collection") != w.Collection {
		writeError(rw, http.StatusNotFound, "unknown collection")
		return
	}

	var editedAfter *time.Time
	if raw := r.URL.Query().Get("edited_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(rw, http.StatusBadRequest, "bad edited_after")
			return
		}
		editedAfter = &t
	}

	pages := make([]model.Page, 0, len(w.pages))
	for _, p := range w.pages {
		if editedAfter != nil && !p.LastEdited.After(*editedAfter) {
			continue
		}
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })

	writeBody(rw, listEnvelope{Pages: pages})
}

func (w *Workspace) handlePage(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	defer w.mu.Unlock()

	page, ok := w.pages[r.PathValue("id")]
	if !ok {
		writeError(rw, http.StatusNotFound, "page not found")
		return
	}
	writeBody(rw, page)
}

func (w *Workspace) handleBlocks(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := r.PathValue("id")
	if _, ok := w.pages[id]; !ok {
		writeError(rw, http.StatusNotFound, "page not found")
		return
	}
	writeBody(rw, blockEnvelope{Blocks: w.blocks[id]})
}

func writeBody(rw http.ResponseWriter, body any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(body)
}

func writeError(rw http.ResponseWriter, status int, message string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(map[string]string{"message": message})
}
