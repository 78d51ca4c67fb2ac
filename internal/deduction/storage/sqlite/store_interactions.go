package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/storage"
)

// AppendInteraction persists one committed action. Interactions are
// append-only; records are never updated.
func (s *Store) AppendInteraction(ctx context.Context, record storage.InteractionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("interaction id is required")
	}
	if strings.TrimSpace(record.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.CharacterID) == "" {
		return fmt.Errorf("character id is required")
	}
	if !record.Kind.Valid() {
		return fmt.Errorf("interaction kind %q is not valid", record.Kind)
	}
	if strings.TrimSpace(string(record.Status)) == "" {
		return fmt.Errorf("status is required")
	}
	if record.CreatedAt.IsZero() {
		return fmt.Errorf("created at is required")
	}

	targets, err := encodeStrings(record.Targets)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO interactions (
	id, session_id, character_id, round, turn, kind, spoken, action, inner_reasoning, targets, status, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.SessionID,
		record.CharacterID,
		record.Round,
		record.Turn,
		string(record.Kind),
		record.Spoken,
		record.Action,
		record.InnerReasoning,
		targets,
		string(record.Status),
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// ListInteractionsBySession returns a page of interactions in commit order,
// optionally narrowed by an AIP-160 filter expression.
func (s *Store) ListInteractionsBySession(ctx context.Context, sessionID string, pageSize int, pageToken string, filter string) (storage.InteractionPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.InteractionPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.InteractionPage{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.InteractionPage{}, fmt.Errorf("session id is required")
	}
	if pageSize <= 0 {
		return storage.InteractionPage{}, fmt.Errorf("page size must be greater than zero")
	}

	// Session scope is always included in WHERE before the optional filter
	// so callers can only narrow within one session.
	whereParts := []string{"session_id = ?"}
	args := []any{sessionID}

	cond, err := parseInteractionFilter(filter)
	if err != nil {
		return storage.InteractionPage{}, fmt.Errorf("invalid filter: %w", err)
	}
	if cond.Clause != "" {
		whereParts = append(whereParts, cond.Clause)
		args = append(args, cond.Params...)
	}

	pageToken = strings.TrimSpace(pageToken)
	if pageToken != "" {
		tokenValue, parseErr := strconv.ParseInt(pageToken, 10, 64)
		if parseErr != nil || tokenValue < 0 {
			return storage.InteractionPage{}, fmt.Errorf("invalid page token")
		}
		whereParts = append(whereParts, "seq > ?")
		args = append(args, tokenValue)
	}

	limit := pageSize + 1
	args = append(args, limit)

	query := fmt.Sprintf(`
SELECT seq, id, session_id, character_id, round, turn, kind, spoken, action, inner_reasoning, targets, status, created_at
FROM interactions
WHERE %s
ORDER BY seq
LIMIT ?
`, strings.Join(whereParts, " AND "))
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.InteractionPage{}, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	page := storage.InteractionPage{Interactions: make([]storage.InteractionRecord, 0, pageSize)}
	var seqs []int64
	for rows.Next() {
		rec, seq, err := scanInteractionRow(rows.Scan)
		if err != nil {
			return storage.InteractionPage{}, fmt.Errorf("scan interaction row: %w", err)
		}
		page.Interactions = append(page.Interactions, rec)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return storage.InteractionPage{}, fmt.Errorf("iterate interaction rows: %w", err)
	}

	if len(page.Interactions) > pageSize {
		page.NextPageToken = strconv.FormatInt(seqs[pageSize-1], 10)
		page.Interactions = page.Interactions[:pageSize]
	}
	return page, nil
}

// SearchInteractions returns the session's interactions whose spoken or
// action content contains the keyword, in commit order.
func (s *Store) SearchInteractions(ctx context.Context, sessionID string, keyword string) ([]storage.InteractionRecord, error) {
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
	if keyword == "" {
		return nil, fmt.Errorf("keyword is required")
	}

	pattern := "%" + escapeLike(keyword) + "%"
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT seq, id, session_id, character_id, round, turn, kind, spoken, action, inner_reasoning, targets, status, created_at
FROM interactions
WHERE session_id = ? AND (spoken LIKE ? ESCAPE '\' OR action LIKE ? ESCAPE '\')
ORDER BY seq
`, sessionID, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search interactions: %w", err)
	}
	defer rows.Close()

	var records []storage.InteractionRecord
	for rows.Next() {
		rec, _, err := scanInteractionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction rows: %w", err)
	}
	return records, nil
}

func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return value
}

func scanInteractionRow(scan func(dest ...any) error) (storage.InteractionRecord, int64, error) {
	var (
		rec        storage.InteractionRecord
		seq        int64
		kind       string
		targetsRaw string
		status     string
		createdAt  int64
	)
	if err := scan(
		&seq,
		&rec.ID,
		&rec.SessionID,
		&rec.CharacterID,
		&rec.Round,
		&rec.Turn,
		&kind,
		&rec.Spoken,
		&rec.Action,
		&rec.InnerReasoning,
		&targetsRaw,
		&status,
		&createdAt,
	); err != nil {
		return storage.InteractionRecord{}, 0, err
	}
	targets, err := decodeStrings(targetsRaw)
	if err != nil {
		return storage.InteractionRecord{}, 0, err
	}
	rec.Kind = domain.InteractionKind(kind)
	rec.Status = domain.ActionStatus(status)
	rec.Targets = targets
	rec.CreatedAt = fromMillis(createdAt)
	return rec, seq, nil
}
