package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/storage"
)

// PutSession persists a session record.
func (s *Store) PutSession(ctx context.Context, record storage.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.Status) == "" {
		return fmt.Errorf("status is required")
	}

	protagonists, err := encodeStrings(record.Protagonists)
	if err != nil {
		return err
	}
	characterIDs, err := encodeStrings(record.CharacterIDs)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO deduction_sessions (
	id, outline, scene, ending_direction, protagonists, character_ids, status, end_reason, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	outline = excluded.outline,
	scene = excluded.scene,
	ending_direction = excluded.ending_direction,
	protagonists = excluded.protagonists,
	character_ids = excluded.character_ids,
	status = excluded.status,
	end_reason = excluded.end_reason,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.Outline,
		record.Scene,
		record.EndingDirection,
		protagonists,
		characterIDs,
		record.Status,
		record.EndReason,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession fetches a session record by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionRecord{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.SessionRecord{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, outline, scene, ending_direction, protagonists, character_ids, status, end_reason, created_at, updated_at
FROM deduction_sessions
WHERE id = ?
`, sessionID)

	rec, err := scanSessionRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SessionRecord{}, storage.ErrNotFound
		}
		return storage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	return rec, nil
}

// ListSessions returns a page of sessions ordered by ID.
func (s *Store) ListSessions(ctx context.Context, pageSize int, pageToken string) (storage.SessionPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.SessionPage{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	var (
		rows *sql.Rows
		err  error
	)
	if strings.TrimSpace(pageToken) == "" {
		rows, err = s.sqlDB.QueryContext(ctx, `
SELECT id, outline, scene, ending_direction, protagonists, character_ids, status, end_reason, created_at, updated_at
FROM deduction_sessions
ORDER BY id
LIMIT ?
`, limit)
	} else {
		rows, err = s.sqlDB.QueryContext(ctx, `
SELECT id, outline, scene, ending_direction, protagonists, character_ids, status, end_reason, created_at, updated_at
FROM deduction_sessions
WHERE id > ?
ORDER BY id
LIMIT ?
`, strings.TrimSpace(pageToken), limit)
	}
	if err != nil {
		return storage.SessionPage{}, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	page := storage.SessionPage{Sessions: make([]storage.SessionRecord, 0, pageSize)}
	for rows.Next() {
		rec, err := scanSessionRow(rows.Scan)
		if err != nil {
			return storage.SessionPage{}, fmt.Errorf("scan session row: %w", err)
		}
		page.Sessions = append(page.Sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return storage.SessionPage{}, fmt.Errorf("iterate session rows: %w", err)
	}

	if len(page.Sessions) > pageSize {
		page.NextPageToken = page.Sessions[pageSize-1].ID
		page.Sessions = page.Sessions[:pageSize]
	}
	return page, nil
}

func scanSessionRow(scan func(dest ...any) error) (storage.SessionRecord, error) {
	var (
		rec             storage.SessionRecord
		protagonistsRaw string
		characterIDsRaw string
		createdAt       int64
		updatedAt       int64
	)
	if err := scan(
		&rec.ID,
		&rec.Outline,
		&rec.Scene,
		&rec.EndingDirection,
		&protagonistsRaw,
		&characterIDsRaw,
		&rec.Status,
		&rec.EndReason,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.SessionRecord{}, err
	}
	protagonists, err := decodeStrings(protagonistsRaw)
	if err != nil {
		return storage.SessionRecord{}, err
	}
	characterIDs, err := decodeStrings(characterIDsRaw)
	if err != nil {
		return storage.SessionRecord{}, err
	}
	rec.Protagonists = protagonists
	rec.CharacterIDs = characterIDs
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
