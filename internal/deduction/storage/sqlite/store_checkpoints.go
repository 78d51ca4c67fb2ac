package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/storage"
)

// PutCheckpoint persists the simulation state captured at one round
// boundary. Re-running a round overwrites its checkpoint.
func (s *Store) PutCheckpoint(ctx context.Context, record storage.CheckpointRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if record.Round < 0 {
		return fmt.Errorf("round must not be negative")
	}

	state, err := encodeJSON(record.State)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO checkpoints (session_id, round, state, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(session_id, round) DO UPDATE SET
	state = excluded.state,
	created_at = excluded.created_at
`,
		record.SessionID,
		record.Round,
		state,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put checkpoint: %w", err)
	}
	return nil
}

// GetLatestCheckpoint fetches the session's most recent checkpoint.
func (s *Store) GetLatestCheckpoint(ctx context.Context, sessionID string) (storage.CheckpointRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CheckpointRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CheckpointRecord{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.CheckpointRecord{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT session_id, round, state, created_at
FROM checkpoints
WHERE session_id = ?
ORDER BY round DESC
LIMIT 1
`, sessionID)

	var (
		rec       storage.CheckpointRecord
		stateRaw  string
		createdAt int64
	)
	if err := row.Scan(&rec.SessionID, &rec.Round, &stateRaw, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CheckpointRecord{}, storage.ErrNotFound
		}
		return storage.CheckpointRecord{}, fmt.Errorf("get latest checkpoint: %w", err)
	}
	if err := json.Unmarshal([]byte(stateRaw), &rec.State); err != nil {
		return storage.CheckpointRecord{}, fmt.Errorf("unmarshal checkpoint state: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}
