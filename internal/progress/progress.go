// Package progress implements the progress sink collaborator: a
// best-effort channel for pass status that must never fail the pass.
// Sinks exist for logging, terminal progress bars, and in-memory
// snapshots served by the status endpoint.
package progress

import (
	"sync"

	"github.com/klauern/pagesync/internal/logging"
)

// Task statuses reported through snapshots.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusStopped   = "stopped"
	StatusFailed    = "failed"
)

// Snapshot is one progress update for a task.
type Snapshot struct {
	// Status is the task state: running, completed, stopped, or failed.
	Status string `json:"status"`
	// Total is the number of pages in the pass.
	Total int `json:"total"`
	// Processed is the number of pages with an outcome so far.
	Processed int `json:"processed"`
	// Percent is Processed over Total.
	Percent float64 `json:"percentage"`
	// Message is a human-readable note.
	Message string `json:"message,omitempty"`
}

// Sink consumes progress updates. Updates are best-effort: a false
// return means the update was dropped, and the caller logs it at debug
// level and moves on.
type Sink interface {
	Update(taskID string, s Snapshot) bool
}

// Nop discards all updates.
type Nop struct{}

// Update implements Sink.
func (Nop) Update(string, Snapshot) bool { return true }

// LogSink writes updates to the default logger at info level.
type LogSink struct{}

// Update implements Sink.
func (LogSink) Update(taskID string, s Snapshot) bool {
	logging.Info("sync progress",
		logging.Pass(taskID),
		"status", s.Status,
		"processed", s.Processed,
		"total", s.Total,
		"message", s.Message)
	return true
}

// MemorySink retains the latest snapshot per task. Safe for concurrent
// use; serve mode reads it from HTTP handlers while a pass writes.
type MemorySink struct {
	mu    sync.RWMutex
	tasks map[string]Snapshot
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{tasks: make(map[string]Snapshot)}
}

// Update implements Sink.
func (m *MemorySink) Update(taskID string, s Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskID] = s
	return true
}

// Get returns the latest snapshot for a task.
func (m *MemorySink) Get(taskID string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.tasks[taskID]
	return s, ok
}

// Tasks returns a copy of every task's latest snapshot.
func (m *MemorySink) Tasks() map[string]Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Snapshot, len(m.tasks))
	for k, v := range m.tasks {
		out[k] = v
	}
	return out
}

// Multi fans updates out to several sinks. The update counts as
// delivered only if every sink accepted it.
type Multi []Sink

// Update implements Sink.
func (m Multi) Update(taskID string, s Snapshot) bool {
	ok := true
	for _, sink := range m {
		if !sink.Update(taskID, s) {
			ok = false
		}
	}
	return ok
}
