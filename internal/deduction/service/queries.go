package service

import (
	"context"

	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/storage"
)

// GetSession returns one session record.
func (s *Service) GetSession(ctx context.Context, sessionID string) (storage.SessionRecord, error) {
	return s.deps.Sessions.GetSession(ctx, sessionID)
}

// ListSessions pages through session records, newest first.
func (s *Service) ListSessions(ctx context.Context, pageSize int, pageToken string) (storage.SessionPage, error) {
	return s.deps.Sessions.ListSessions(ctx, pageSize, pageToken)
}

// GetState returns the session's latest checkpointed simulation state.
func (s *Service) GetState(ctx context.Context, sessionID string) (domain.SimulationState, error) {
	checkpoint, err := s.deps.Checkpoints.GetLatestCheckpoint(ctx, sessionID)
	if err != nil {
		return domain.SimulationState{}, err
	}
	return checkpoint.State, nil
}

// ListInteractions pages through a session's committed actions in commit
// order, optionally narrowed by an AIP-160 filter over character_id, round,
// turn, kind, and status.
func (s *Service) ListInteractions(ctx context.Context, sessionID string, pageSize int, pageToken string, filter string) (storage.InteractionPage, error) {
	return s.deps.Interactions.ListInteractionsBySession(ctx, sessionID, pageSize, pageToken, filter)
}

// SearchInteractions returns the session's actions whose spoken or action
// content contains the keyword.
func (s *Service) SearchInteractions(ctx context.Context, sessionID string, keyword string) ([]storage.InteractionRecord, error) {
	return s.deps.Interactions.SearchInteractions(ctx, sessionID, keyword)
}

// PublicLog returns the session's public journal text; a session that never
// journaled reads as empty.
func (s *Service) PublicLog(sessionID string) (string, error) {
	sessionJournal, err := s.journal(sessionID)
	if err != nil {
		return "", err
	}
	content, _, err := sessionJournal.ReadPublicDelta(0)
	return content, err
}

// PublicLogPath returns where the session's public journal lives on disk.
func (s *Service) PublicLogPath(sessionID string) (string, error) {
	sessionJournal, err := s.journal(sessionID)
	if err != nil {
		return "", err
	}
	return sessionJournal.PublicPath(), nil
}
