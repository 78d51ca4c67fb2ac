package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/storage"
)

// PutMemory persists a character memory record.
func (s *Store) PutMemory(ctx context.Context, record storage.MemoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.CharacterID) == "" {
		return fmt.Errorf("character id is required")
	}

	goals, secrets, pressures, err := encodeMemoryColumns(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO character_memories (
	session_id, character_id, stable, working, self_eval, goals, secrets, pressures, public_log_offset, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id, character_id) DO UPDATE SET
	stable = excluded.stable,
	working = excluded.working,
	self_eval = excluded.self_eval,
	goals = excluded.goals,
	secrets = excluded.secrets,
	pressures = excluded.pressures,
	public_log_offset = excluded.public_log_offset,
	updated_at = excluded.updated_at
`,
		record.SessionID,
		record.CharacterID,
		record.Stable,
		record.Working,
		record.SelfEval,
		goals,
		secrets,
		pressures,
		record.PublicLogOffset,
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put memory: %w", err)
	}
	return nil
}

// SeedMemory writes the record only when the session/character pair has no
// memory yet.
func (s *Store) SeedMemory(ctx context.Context, record storage.MemoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.CharacterID) == "" {
		return fmt.Errorf("character id is required")
	}

	goals, secrets, pressures, err := encodeMemoryColumns(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO character_memories (
	session_id, character_id, stable, working, self_eval, goals, secrets, pressures, public_log_offset, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id, character_id) DO NOTHING
`,
		record.SessionID,
		record.CharacterID,
		record.Stable,
		record.Working,
		record.SelfEval,
		goals,
		secrets,
		pressures,
		record.PublicLogOffset,
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("seed memory: %w", err)
	}
	return nil
}

// GetMemory fetches one character's memory within a session.
func (s *Store) GetMemory(ctx context.Context, sessionID string, characterID string) (storage.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MemoryRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MemoryRecord{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.MemoryRecord{}, fmt.Errorf("session id is required")
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return storage.MemoryRecord{}, fmt.Errorf("character id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT session_id, character_id, stable, working, self_eval, goals, secrets, pressures, public_log_offset, updated_at
FROM character_memories
WHERE session_id = ? AND character_id = ?
`, sessionID, characterID)

	rec, err := scanMemoryRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MemoryRecord{}, storage.ErrNotFound
		}
		return storage.MemoryRecord{}, fmt.Errorf("get memory: %w", err)
	}
	return rec, nil
}

// ListMemoriesBySession returns every character memory of one session
// ordered by character ID.
func (s *Store) ListMemoriesBySession(ctx context.Context, sessionID string) ([]storage.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT session_id, character_id, stable, working, self_eval, goals, secrets, pressures, public_log_offset, updated_at
FROM character_memories
WHERE session_id = ?
ORDER BY character_id
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var records []storage.MemoryRecord
	for rows.Next() {
		rec, err := scanMemoryRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return records, nil
}

func encodeMemoryColumns(record storage.MemoryRecord) (goals, secrets, pressures string, err error) {
	goals, err = encodeJSON(emptyGoalSlice(record.Goals))
	if err != nil {
		return "", "", "", err
	}
	secrets, err = encodeJSON(emptySecretSlice(record.Secrets))
	if err != nil {
		return "", "", "", err
	}
	pressures, err = encodeJSON(emptyPressureMap(record.Pressures))
	if err != nil {
		return "", "", "", err
	}
	return goals, secrets, pressures, nil
}

func emptyGoalSlice(goals []domain.CharacterGoal) []domain.CharacterGoal {
	if goals == nil {
		return []domain.CharacterGoal{}
	}
	return goals
}

func emptySecretSlice(secrets []domain.SecretEntry) []domain.SecretEntry {
	if secrets == nil {
		return []domain.SecretEntry{}
	}
	return secrets
}

func emptyPressureMap(pressures map[string]int) map[string]int {
	if pressures == nil {
		return map[string]int{}
	}
	return pressures
}

func scanMemoryRow(scan func(dest ...any) error) (storage.MemoryRecord, error) {
	var (
		rec          storage.MemoryRecord
		goalsRaw     string
		secretsRaw   string
		pressuresRaw string
		updatedAt    int64
	)
	if err := scan(
		&rec.SessionID,
		&rec.CharacterID,
		&rec.Stable,
		&rec.Working,
		&rec.SelfEval,
		&goalsRaw,
		&secretsRaw,
		&pressuresRaw,
		&rec.PublicLogOffset,
		&updatedAt,
	); err != nil {
		return storage.MemoryRecord{}, err
	}
	if err := json.Unmarshal([]byte(goalsRaw), &rec.Goals); err != nil {
		return storage.MemoryRecord{}, fmt.Errorf("unmarshal goals: %w", err)
	}
	if err := json.Unmarshal([]byte(secretsRaw), &rec.Secrets); err != nil {
		return storage.MemoryRecord{}, fmt.Errorf("unmarshal secrets: %w", err)
	}
	if err := json.Unmarshal([]byte(pressuresRaw), &rec.Pressures); err != nil {
		return storage.MemoryRecord{}, fmt.Errorf("unmarshal pressures: %w", err)
	}
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
