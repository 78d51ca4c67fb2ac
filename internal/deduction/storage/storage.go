// Package storage defines persistence contracts for deduction sessions,
// character memory, interaction logs, and checkpoints.
//
// These interfaces keep the engine and session service separate from storage
// technology and let tests substitute in-memory fakes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/louisbranch/ludos/internal/deduction/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a requested state transition is invalid.
var ErrConflict = errors.New("record conflict")

// Session status values.
const (
	SessionStatusRunning  = "running"
	SessionStatusComplete = "complete"
	SessionStatusFailed   = "failed"
)

// SessionRecord stores one deduction session.
type SessionRecord struct {
	ID              string
	Outline         string
	Scene           string
	EndingDirection string
	Protagonists    []string
	CharacterIDs    []string
	Status          string
	EndReason       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SessionPage is a paged set of sessions.
type SessionPage struct {
	Sessions      []SessionRecord
	NextPageToken string
}

// MemoryRecord stores one character's private memory within a session.
// Other characters must never read it; the engine projects public views
// separately.
type MemoryRecord struct {
	SessionID   string
	CharacterID string

	Stable   string
	Working  string
	SelfEval string

	Goals     []domain.CharacterGoal
	Secrets   []domain.SecretEntry
	Pressures map[string]int

	// PublicLogOffset is the byte offset up to which the character has
	// already consumed the public journal.
	PublicLogOffset int64

	UpdatedAt time.Time
}

// Text serializes the memory in the half-structured block form the
// narrative polisher receives as a character dossier. Pressure lines are
// sorted by secret id.
func (m MemoryRecord) Text() string {
	goalLines := make([]string, 0, len(m.Goals))
	for _, g := range m.Goals {
		status := string(g.Status)
		if status == "" {
			status = string(domain.GoalActive)
		}
		goalLines = append(goalLines, g.ID+"|"+status+"|"+g.Description)
	}

	secretLines := make([]string, 0, len(m.Secrets))
	for _, s := range m.Secrets {
		secretLines = append(secretLines, s.ID+"|"+strings.Join(s.Keywords, ",")+"|"+s.Description)
	}

	pressureLines := make([]string, 0, len(m.Pressures))
	for _, id := range slices.Sorted(maps.Keys(m.Pressures)) {
		pressureLines = append(pressureLines, fmt.Sprintf("%s=%d", id, m.Pressures[id]))
	}

	return fmt.Sprintf(
		"[STATE]\nlast_public_offset=%d\n\n[GOALS]\n%s\n\n[SECRETS]\n%s\n\n[PRESSURE]\n%s\n\n[STABLE]\n%s\n\n[WORKING]\n%s\n\n[SELF_EVAL]\n%s\n",
		m.PublicLogOffset,
		strings.Join(goalLines, "\n"),
		strings.Join(secretLines, "\n"),
		strings.Join(pressureLines, "\n"),
		strings.TrimSpace(m.Stable),
		strings.TrimSpace(m.Working),
		strings.TrimSpace(m.SelfEval),
	)
}

// InteractionRecord stores one committed action.
type InteractionRecord struct {
	ID             string
	SessionID      string
	CharacterID    string
	Round          int
	Turn           int
	Kind           domain.InteractionKind
	Spoken         string
	Action         string
	InnerReasoning string
	Targets        []string
	Status         domain.ActionStatus
	CreatedAt      time.Time
}

// InteractionPage is a paged set of interactions.
type InteractionPage struct {
	Interactions  []InteractionRecord
	NextPageToken string
}

// CheckpointRecord stores the simulation state captured at one round
// boundary.
type CheckpointRecord struct {
	SessionID string
	Round     int
	State     domain.SimulationState
	CreatedAt time.Time
}

// SessionStore persists session records.
type SessionStore interface {
	PutSession(ctx context.Context, record SessionRecord) error
	GetSession(ctx context.Context, sessionID string) (SessionRecord, error)
	ListSessions(ctx context.Context, pageSize int, pageToken string) (SessionPage, error)
}

// MemoryStore persists character memory records.
type MemoryStore interface {
	PutMemory(ctx context.Context, record MemoryRecord) error
	GetMemory(ctx context.Context, sessionID string, characterID string) (MemoryRecord, error)
	ListMemoriesBySession(ctx context.Context, sessionID string) ([]MemoryRecord, error)
	// SeedMemory writes the record only when no memory exists yet for its
	// session/character pair, so restarts never clobber accumulated state.
	SeedMemory(ctx context.Context, record MemoryRecord) error
}

// InteractionStore persists committed actions append-only.
type InteractionStore interface {
	AppendInteraction(ctx context.Context, record InteractionRecord) error
	// ListInteractionsBySession returns interactions in commit order,
	// optionally narrowed by an AIP-160 filter expression over
	// character_id, round, turn, kind, and status.
	ListInteractionsBySession(ctx context.Context, sessionID string, pageSize int, pageToken string, filter string) (InteractionPage, error)
	// SearchInteractions returns interactions whose spoken or action
	// content contains the keyword.
	SearchInteractions(ctx context.Context, sessionID string, keyword string) ([]InteractionRecord, error)
}

// CheckpointStore persists round-boundary simulation state.
type CheckpointStore interface {
	PutCheckpoint(ctx context.Context, record CheckpointRecord) error
	GetLatestCheckpoint(ctx context.Context, sessionID string) (CheckpointRecord, error)
}
