package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/klauern/pagesync/internal/model"
)

// FindLinkByExternalID returns the link for an external id, or nil when
// the page has never been synced.
func (s *Store) FindLinkByExternalID(ctx context.Context, externalID string) (*model.Link, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT external_id, local_id, last_synced_edit, content_hash, properties_hash, protected, synced_at
		FROM links WHERE external_id = ?
	`, externalID)

	link, err := scanLink(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find link %s: %w", externalID, err)
	}
	return link, nil
}

// SaveLink upserts a link keyed on external id. The protected flag is an
// operator setting, so an upsert from a sync pass never clears it.
func (s *Store) SaveLink(ctx context.Context, link model.Link) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO links (external_id, local_id, last_synced_edit, content_hash, properties_hash, protected, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			local_id = excluded.local_id,
			last_synced_edit = excluded.last_synced_edit,
			content_hash = excluded.content_hash,
			properties_hash = excluded.properties_hash,
			synced_at = excluded.synced_at
	`, link.ExternalID, link.LocalID, formatTime(link.LastSyncedEdit),
		link.ContentHash, link.PropertiesHash, boolToInt(link.Protected), formatTime(link.SyncedAt))
	if err != nil {
		return fmt.Errorf("save link %s: %w", link.ExternalID, err)
	}
	return nil
}

// DeleteLink removes the link for an external id. Returns false when no
// link existed.
func (s *Store) DeleteLink(ctx context.Context, externalID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE external_id = ?`, externalID)
	if err != nil {
		return false, fmt.Errorf("delete link %s: %w", externalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete link %s: %w", externalID, err)
	}
	return n > 0, nil
}

// ListLinks returns up to limit links with local id greater than afterID,
// ordered by local id. Keyset pagination keeps the deletion scan bounded
// and stable while rows are being removed mid-scan.
func (s *Store) ListLinks(ctx context.Context, afterID int64, limit int) ([]model.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, local_id, last_synced_edit, content_hash, properties_hash, protected, synced_at
		FROM links WHERE local_id > ?
		ORDER BY local_id ASC
		LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list links after %d: %w", afterID, err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		link, err := scanLink(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// CountLinks returns the number of links in the index.
func (s *Store) CountLinks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return n, nil
}

// SetProtected flips the deletion-protection flag on a link. Returns
// false when no link with that external id exists.
func (s *Store) SetProtected(ctx context.Context, externalID string, protected bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE links SET protected = ? WHERE external_id = ?`,
		boolToInt(protected), externalID)
	if err != nil {
		return false, fmt.Errorf("set protected on %s: %w", externalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set protected on %s: %w", externalID, err)
	}
	return n > 0, nil
}

// scanLink reads one link row through the given scan function.
func scanLink(scan func(...any) error) (*model.Link, error) {
	var (
		link                     model.Link
		lastSyncedEdit, syncedAt string
		protected                int
	)
	err := scan(&link.ExternalID, &link.LocalID, &lastSyncedEdit,
		&link.ContentHash, &link.PropertiesHash, &protected, &syncedAt)
	if err != nil {
		return nil, err
	}

	if link.LastSyncedEdit, err = parseTime(lastSyncedEdit); err != nil {
		return nil, err
	}
	if link.SyncedAt, err = parseTime(syncedAt); err != nil {
		return nil, err
	}
	link.Protected = protected != 0
	return &link, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
