package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klauern/pagesync/internal/model"
)

// Document is one stored page: rendered content plus its property set
// serialized as JSON.
type Document struct {
	ID         int64
	ExternalID string
	Title      string
	Content    string
	Properties map[string]model.PropertyValue
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateOrUpdateDocument upserts the document for a page and returns its
// local id. The upsert keys on external id, so re-syncing a page rewrites
// the same row.
func (s *Store) CreateOrUpdateDocument(ctx context.Context, page model.Page, content string) (int64, error) {
	props, err := json.Marshal(page.Properties)
	if err != nil {
		return 0, fmt.Errorf("encode properties for %s: %w", page.ID, err)
	}

	now := formatTime(s.now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (external_id, title, content, properties, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			properties = excluded.properties,
			updated_at = excluded.updated_at
	`, page.ID, page.Title, content, string(props), now, now)
	if err != nil {
		return 0, fmt.Errorf("upsert document %s: %w", page.ID, err)
	}

	var localID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE external_id = ?`, page.ID).Scan(&localID)
	if err != nil {
		return 0, fmt.Errorf("resolve local id for %s: %w", page.ID, err)
	}
	return localID, nil
}

// DeleteDocument removes a stored document by local id. Returns false
// when no matching row existed.
func (s *Store) DeleteDocument(ctx context.Context, localID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, localID)
	if err != nil {
		return false, fmt.Errorf("delete document %d: %w", localID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document %d: %w", localID, err)
	}
	return n > 0, nil
}

// GetDocument fetches a stored document by local id, or nil when absent.
func (s *Store) GetDocument(ctx context.Context, localID int64) (*Document, error) {
	return s.getDocument(ctx, `SELECT id, external_id, title, content, properties, created_at, updated_at
		FROM documents WHERE id = ?`, localID)
}

// GetDocumentByExternalID fetches a stored document by its external id,
// or nil when absent.
func (s *Store) GetDocumentByExternalID(ctx context.Context, externalID string) (*Document, error) {
	return s.getDocument(ctx, `SELECT id, external_id, title, content, properties, created_at, updated_at
		FROM documents WHERE external_id = ?`, externalID)
}

func (s *Store) getDocument(ctx context.Context, query string, arg any) (*Document, error) {
	var (
		doc                  Document
		props                string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&doc.ID, &doc.ExternalID, &doc.Title, &doc.Content, &props, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if props != "" {
		if err := json.Unmarshal([]byte(props), &doc.Properties); err != nil {
			return nil, fmt.Errorf("decode properties for %s: %w", doc.ExternalID, err)
		}
	}
	if doc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if doc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
