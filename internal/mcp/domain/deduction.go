// Package domain defines the MCP tools and resources exposed over the
// deduction session service: typed tool inputs and outputs, their handlers,
// and the readable journal resources.
package domain

import (
	"context"
	"time"

	deduction "github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/storage"
)

// Deduction is the session service surface the MCP tools call.
type Deduction interface {
	StartSession(ctx context.Context, outline string, sessionID string) (storage.SessionRecord, error)
	RunDeduction(ctx context.Context, sessionID string) (storage.SessionRecord, error)
	Polish(ctx context.Context, sessionID string) (rawLog string, polished string, err error)
	GetSession(ctx context.Context, sessionID string) (storage.SessionRecord, error)
	ListSessions(ctx context.Context, pageSize int, pageToken string) (storage.SessionPage, error)
	GetState(ctx context.Context, sessionID string) (deduction.SimulationState, error)
	ListInteractions(ctx context.Context, sessionID string, pageSize int, pageToken string, filter string) (storage.InteractionPage, error)
	SearchInteractions(ctx context.Context, sessionID string, keyword string) ([]storage.InteractionRecord, error)
	PublicLog(sessionID string) (string, error)
}

// SessionResult represents a deduction session in MCP tool outputs.
type SessionResult struct {
	ID              string   `json:"id" jsonschema:"session identifier"`
	Status          string   `json:"status" jsonschema:"session status (running, complete, failed)"`
	Characters      []string `json:"characters" jsonschema:"character identifiers in dossier order"`
	Scene           string   `json:"scene" jsonschema:"current scene description"`
	EndingDirection string   `json:"ending_direction,omitempty" jsonschema:"scripted ending direction"`
	Protagonists    []string `json:"protagonists,omitempty" jsonschema:"protagonist character identifiers"`
	EndReason       string   `json:"end_reason,omitempty" jsonschema:"why the session ended, when it has"`
	CreatedAt       string   `json:"created_at" jsonschema:"RFC3339 timestamp when the session was created"`
	UpdatedAt       string   `json:"updated_at" jsonschema:"RFC3339 timestamp when the session was last updated"`
}

// InteractionEntry represents one committed interaction in MCP tool outputs.
// Inner reasoning is included: MCP is an operator surface, not a character
// perspective.
type InteractionEntry struct {
	ID             string   `json:"id" jsonschema:"interaction identifier"`
	CharacterID    string   `json:"character_id" jsonschema:"acting character identifier"`
	Round          int      `json:"round" jsonschema:"round the interaction belongs to"`
	Turn           int      `json:"turn" jsonschema:"turn index within the round"`
	Kind           string   `json:"kind" jsonschema:"interaction kind (speak, action, composite)"`
	Spoken         string   `json:"spoken,omitempty" jsonschema:"spoken content"`
	Action         string   `json:"action,omitempty" jsonschema:"physical action content"`
	InnerReasoning string   `json:"inner_reasoning,omitempty" jsonschema:"private reasoning behind the interaction"`
	Targets        []string `json:"targets,omitempty" jsonschema:"targeted character identifiers"`
	Status         string   `json:"status" jsonschema:"validation status (clean, degraded)"`
	CreatedAt      string   `json:"created_at" jsonschema:"RFC3339 timestamp when the interaction was committed"`
}

// sessionResult maps a stored session record to its tool output form.
func sessionResult(record storage.SessionRecord) SessionResult {
	return SessionResult{
		ID:              record.ID,
		Status:          record.Status,
		Characters:      record.CharacterIDs,
		Scene:           record.Scene,
		EndingDirection: record.EndingDirection,
		Protagonists:    record.Protagonists,
		EndReason:       record.EndReason,
		CreatedAt:       formatTimestamp(record.CreatedAt),
		UpdatedAt:       formatTimestamp(record.UpdatedAt),
	}
}

// interactionEntries maps stored interaction records to their tool output
// form.
func interactionEntries(records []storage.InteractionRecord) []InteractionEntry {
	entries := make([]InteractionEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, InteractionEntry{
			ID:             record.ID,
			CharacterID:    record.CharacterID,
			Round:          record.Round,
			Turn:           record.Turn,
			Kind:           string(record.Kind),
			Spoken:         record.Spoken,
			Action:         record.Action,
			InnerReasoning: record.InnerReasoning,
			Targets:        record.Targets,
			Status:         string(record.Status),
			CreatedAt:      formatTimestamp(record.CreatedAt),
		})
	}
	return entries
}

// formatTimestamp renders a timestamp as RFC3339 in UTC, empty for the zero
// time.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
