package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/progress"
	"github.com/klauern/pagesync/internal/sync"
)

// maxEventBody caps a webhook delivery payload.
const maxEventBody = 1 << 20

// Server is the serve-mode HTTP surface: webhook ingestion, pass status,
// and a health probe.
type Server struct {
	dispatcher *Dispatcher
	sink       *progress.MemorySink
	mux        *http.ServeMux
}

// NewServer builds the serve-mode handler. The sink is the memory sink
// the coordinator reports into; status reads come from it.
func NewServer(dispatcher *Dispatcher, sink *progress.MemorySink) *Server {
	s := &Server{
		dispatcher: dispatcher,
		sink:       sink,
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /webhook", s.handleWebhook)
	s.mux.HandleFunc("GET /status/{task}", s.handleStatus)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// webhookResponse is the acknowledgment payload for a delivery.
type webhookResponse struct {
	Accepted bool   `json:"accepted"`
	Deleted  int    `json:"deleted,omitempty"`
	Imported int    `json:"imported,omitempty"`
	Updated  int    `json:"updated,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
	Failed   int    `json:"failed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleWebhook decodes a delivery and dispatches it synchronously. A
// contested pass lease maps to 409 so the sender's retry policy can
// redeliver later.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var ev Event
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err := decoder.Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Error: "malformed event payload"})
		return
	}
	if !ev.Type.IsValid() {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Error: "unknown event type"})
		return
	}

	res, err := s.dispatcher.Dispatch(r.Context(), ev)
	switch {
	case errors.Is(err, sync.ErrPassActive):
		writeJSON(w, http.StatusConflict, webhookResponse{Error: err.Error()})
	case err != nil:
		logging.Error("webhook dispatch failed",
			"event", string(ev.Type),
			logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, webhookResponse{
			Accepted: true,
			Deleted:  res.Deleted,
			Imported: res.Imported,
			Updated:  res.Updated,
			Skipped:  res.Skipped,
			Failed:   res.Failed,
		})
	}
}

// handleStatus serves the latest progress snapshot for a pass.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")
	snapshot, ok := s.sink.Get(task)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown task"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Debug("failed to write response", logging.Err(err))
	}
}

// Serve runs the HTTP listener until the context is canceled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("serve mode listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
