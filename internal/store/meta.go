package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// watermarkKey is the meta row holding the last successful pass boundary.
const watermarkKey = "last_sync_time"

// Watermark returns the timestamp of the last fully completed sync pass,
// or nil when no pass has ever completed.
func (s *Store) Watermark(ctx context.Context) (*time.Time, error) {
	value, err := s.getMeta(ctx, watermarkKey)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}

	t, err := parseTime(value)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	return &t, nil
}

// SetWatermark records the completion boundary of a sync pass. Only the
// orchestrator writes this, and only after a pass runs to completion.
func (s *Store) SetWatermark(ctx context.Context, t time.Time) error {
	return s.setMeta(ctx, watermarkKey, formatTime(t))
}

// ClearWatermark removes the watermark, forcing the next pass to run as
// a first-ever sync.
func (s *Store) ClearWatermark(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM meta WHERE key = ?`, watermarkKey)
	if err != nil {
		return fmt.Errorf("clear watermark: %w", err)
	}
	return nil
}

// getMeta returns the value for a meta key, or "" when absent.
func (s *Store) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

// setMeta upserts a meta key.
func (s *Store) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}
