package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/ludos/internal/agent"
	"github.com/louisbranch/ludos/internal/narrative/format"
)

// Polish renders the session's raw interaction log and its literary rewrite.
// The raw log is rebuilt from the latest checkpoint's action log with inner
// reasoning included; the polisher additionally reads every character's
// serialized memory, so the prose can draw on private state.
func (s *Service) Polish(ctx context.Context, sessionID string) (rawLog string, polished string, err error) {
	ctx, span := s.tracer.Start(ctx, "deduction.polish",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	checkpoint, err := s.deps.Checkpoints.GetLatestCheckpoint(ctx, sessionID)
	if err != nil {
		return "", "", spanError(span, fmt.Errorf("load checkpoint for %s: %w", sessionID, err))
	}
	state := checkpoint.State
	rawLog = format.RawInteractionLog(state.ActionLog, state.Scene, nil)

	memories, err := s.deps.Memory.ListMemoriesBySession(ctx, sessionID)
	if err != nil {
		return "", "", spanError(span, fmt.Errorf("load memories for %s: %w", sessionID, err))
	}
	dossiers := make([]agent.MemoryDossier, 0, len(memories))
	for _, memory := range memories {
		dossiers = append(dossiers, agent.MemoryDossier{
			CharacterID: memory.CharacterID,
			Content:     memory.Text(),
		})
	}

	polished, err = s.deps.Polisher.Polish(ctx, rawLog, dossiers, state.Scene)
	if err != nil {
		return "", "", spanError(span, fmt.Errorf("polish session %s: %w", sessionID, err))
	}
	return rawLog, polished, nil
}
