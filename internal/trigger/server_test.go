package trigger

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauern/pagesync/internal/progress"
	"github.com/klauern/pagesync/internal/sync"
)

func newTestServer(runner *fakeRunner) (*Server, *progress.MemorySink) {
	sink := progress.NewMemorySink()
	return NewServer(NewDispatcher(runner), sink), sink
}

func postWebhook(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookAcceptsDelivery(t *testing.T) {
	runner := &fakeRunner{deleted: true}
	srv, _ := newTestServer(runner)

	rec := postWebhook(t, srv, `{"type":"page.deleted","page_id":"pg-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Accepted || resp.Deleted != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	srv, _ := newTestServer(&fakeRunner{})

	rec := postWebhook(t, srv, `{"type":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookUnknownEventType(t *testing.T) {
	runner := &fakeRunner{}
	srv, _ := newTestServer(runner)

	rec := postWebhook(t, srv, `{"type":"page.sparkled"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(runner.runCalls)+len(runner.syncedPages)+len(runner.deletedIDs) != 0 {
		t.Error("rejected delivery must never reach the coordinator")
	}
}

func TestWebhookLeaseContentionIsConflict(t *testing.T) {
	runner := &fakeRunner{runErr: sync.ErrPassActive}
	srv, _ := newTestServer(runner)

	rec := postWebhook(t, srv, `{"type":"collection.updated"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 so the sender redelivers", rec.Code)
	}
}

func TestWebhookDispatchFailure(t *testing.T) {
	runner := &fakeRunner{deleteErr: errors.New("store unavailable")}
	srv, _ := newTestServer(runner)

	rec := postWebhook(t, srv, `{"type":"page.deleted","page_id":"pg-1"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, sink := newTestServer(&fakeRunner{})
	sink.Update("pass-1", progress.Snapshot{
		Status:    progress.StatusRunning,
		Total:     20,
		Processed: 5,
		Percent:   25,
	})

	req := httptest.NewRequest(http.MethodGet, "/status/pass-1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap progress.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Status != progress.StatusRunning || snap.Processed != 5 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestStatusUnknownTask(t *testing.T) {
	srv, _ := newTestServer(&fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/status/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(&fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestWebhookRejectsWrongMethod(t *testing.T) {
	srv, _ := newTestServer(&fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
