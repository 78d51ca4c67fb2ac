package service

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/engine"
	"github.com/louisbranch/ludos/internal/deduction/storage"
)

// Result is a finished end-to-end run: the final session record plus both
// narrative outputs.
type Result struct {
	Session  storage.SessionRecord
	RawLog   string
	Polished string
}

// Run executes the three stages in order: initialization, the deduction
// loop, and polishing.
func (s *Service) Run(ctx context.Context, outline string, sessionID string) (Result, error) {
	record, err := s.StartSession(ctx, outline, sessionID)
	if err != nil {
		return Result{}, err
	}
	record, err = s.RunDeduction(ctx, record.ID)
	if err != nil {
		return Result{}, err
	}
	rawLog, polished, err := s.Polish(ctx, record.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Session: record, RawLog: rawLog, Polished: polished}, nil
}

// RunDeduction drives the round loop from the session's latest checkpoint to
// completion, journaling and persisting as it goes. A session that already
// completed returns unchanged; a failed one resumes from its last good
// round.
func (s *Service) RunDeduction(ctx context.Context, sessionID string) (storage.SessionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "deduction.run",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	session, err := s.deps.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("load session %s: %w", sessionID, err))
	}
	checkpoint, err := s.deps.Checkpoints.GetLatestCheckpoint(ctx, sessionID)
	if err != nil {
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("load checkpoint for %s: %w", sessionID, err))
	}
	sessionJournal, err := s.journal(sessionID)
	if err != nil {
		return storage.SessionRecord{}, spanError(span, err)
	}

	eng, err := engine.New(engine.Dependencies{
		Decider:   s.deps.Decider,
		Moderator: s.deps.Moderator,
		Memory:    s.deps.Memory,
		Recorder: &sessionRecorder{
			service:   s,
			sessionID: sessionID,
			journal:   sessionJournal,
			console:   s.deps.Console,
			lastScene: session.Scene,
		},
		Broadcast: sessionJournal,
		Checkpoint: func(ctx context.Context, state domain.SimulationState) error {
			return s.deps.Checkpoints.PutCheckpoint(ctx, storage.CheckpointRecord{
				SessionID: sessionID,
				Round:     state.Round,
				State:     state,
				CreatedAt: s.deps.Now(),
			})
		},
		Now: s.deps.Now,
	}, engine.Config{
		MaxRounds:         s.cfg.MaxRounds,
		PressureThreshold: s.cfg.PressureThreshold,
		MaxRetries:        s.cfg.MaxRetries,
	})
	if err != nil {
		return storage.SessionRecord{}, spanError(span, err)
	}

	eng.Restore(checkpoint.State)
	if err := eng.Run(ctx); err != nil {
		// Cancellation is not a failure: the session stays resumable from
		// its last checkpoint under its current status.
		if ctx.Err() == nil {
			session.Status = storage.SessionStatusFailed
			session.UpdatedAt = s.deps.Now()
			if putErr := s.deps.Sessions.PutSession(ctx, session); putErr != nil {
				log.Printf("session %s: record failure status: %v", sessionID, putErr)
			}
		}
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("run deduction for %s: %w", sessionID, err))
	}

	final := eng.Snapshot()
	session.Status = storage.SessionStatusComplete
	session.EndReason = final.EndReason
	session.Scene = final.Scene
	session.UpdatedAt = s.deps.Now()
	if err := s.deps.Sessions.PutSession(ctx, session); err != nil {
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("save session %s: %w", sessionID, err))
	}

	span.SetAttributes(
		attribute.String("session.end_reason", final.EndReason),
		attribute.Int("session.rounds", final.Round),
	)
	log.Printf("session %s complete after %d rounds: %s", sessionID, final.Round, final.EndReason)
	return session, nil
}
