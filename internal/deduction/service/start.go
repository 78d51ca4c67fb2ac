package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/ludos/internal/agent"
	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/storage"
)

// StartSession runs the initialization stage: the outline becomes a script,
// the script becomes dossiers, and the session's record, memory seeds, and
// round-zero checkpoint are persisted. An empty sessionID gets a generated
// one; reusing the id of an existing session is a conflict.
func (s *Service) StartSession(ctx context.Context, outline string, sessionID string) (storage.SessionRecord, error) {
	if strings.TrimSpace(outline) == "" {
		return storage.SessionRecord{}, errors.New("narrative outline is required")
	}
	if sessionID == "" {
		generated, err := s.deps.NewID()
		if err != nil {
			return storage.SessionRecord{}, fmt.Errorf("mint session id: %w", err)
		}
		// Short ids keep journal filenames readable.
		sessionID = generated[:8]
	}

	ctx, span := s.tracer.Start(ctx, "deduction.start_session",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	if _, err := s.deps.Sessions.GetSession(ctx, sessionID); err == nil {
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("%w: session %s already exists", storage.ErrConflict, sessionID))
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("check session %s: %w", sessionID, err))
	}

	init, err := s.deps.Moderator.ParseNarrative(ctx, outline)
	if err != nil {
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("parse narrative: %w", err))
	}
	facts, dossiers := agent.BuildDossiers(init)

	characterIDs := make([]string, 0, len(dossiers))
	byID := make(map[string]domain.CharacterDossier, len(dossiers))
	for _, dossier := range dossiers {
		characterIDs = append(characterIDs, dossier.CharacterID)
		byID[dossier.CharacterID] = dossier
	}

	now := s.deps.Now()
	record := storage.SessionRecord{
		ID:              sessionID,
		Outline:         outline,
		Scene:           initialScene(facts),
		EndingDirection: init.EndingDirection,
		Protagonists:    init.Protagonists,
		CharacterIDs:    characterIDs,
		Status:          storage.SessionStatusRunning,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.deps.Sessions.PutSession(ctx, record); err != nil {
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("save session %s: %w", sessionID, err))
	}

	for _, dossier := range dossiers {
		if err := s.deps.Memory.SeedMemory(ctx, seedMemory(sessionID, dossier, now)); err != nil {
			return storage.SessionRecord{}, spanError(span, fmt.Errorf("seed memory for %s: %w", dossier.CharacterID, err))
		}
	}

	state := domain.SimulationState{
		SessionID:       sessionID,
		CharacterIDs:    characterIDs,
		EndingDirection: init.EndingDirection,
		Protagonists:    init.Protagonists,
		Facts:           facts,
		Dossiers:        byID,
		MaxRounds:       s.cfg.MaxRounds,
		Scene:           record.Scene,
	}
	if err := s.deps.Checkpoints.PutCheckpoint(ctx, storage.CheckpointRecord{
		SessionID: sessionID,
		Round:     0,
		State:     state,
		CreatedAt: now,
	}); err != nil {
		return storage.SessionRecord{}, spanError(span, fmt.Errorf("checkpoint session %s: %w", sessionID, err))
	}

	log.Printf("session %s initialized with %d characters", sessionID, len(characterIDs))
	return record, nil
}

// initialScene renders the objective facts as the pre-deduction scene every
// character starts from.
func initialScene(facts domain.ObjectiveFacts) string {
	return "【时空】" + facts.SpaceTime + "\n" +
		"【环境】" + facts.Environment + "\n" +
		"【交互规则】" + facts.InteractionBasis + "\n" +
		"【起始事件】" + facts.OpeningEvent
}

// seedMemory builds a character's first memory record: stable memory seeded
// from the dossier, zero pressure per secret, nothing working yet.
func seedMemory(sessionID string, dossier domain.CharacterDossier, now time.Time) storage.MemoryRecord {
	goals := make([]string, 0, len(dossier.Goals))
	for _, goal := range dossier.Goals {
		goals = append(goals, goal.Description)
	}
	known := make([]string, 0, len(dossier.KnownInfo))
	for _, info := range dossier.KnownInfo {
		known = append(known, info.Content)
	}
	stable := "身份：" + dossier.CoreIdentity + "\n" +
		"私人理解：" + dossier.PrivateUnderstanding + "\n" +
		"目标：" + strings.Join(goals, ", ") + "\n" +
		"已知信息：" + strings.Join(known, "\n")

	pressures := make(map[string]int, len(dossier.Secrets))
	for _, secret := range dossier.Secrets {
		pressures[secret.ID] = 0
	}

	return storage.MemoryRecord{
		SessionID:   sessionID,
		CharacterID: dossier.CharacterID,
		Stable:      stable,
		Goals:       slices.Clone(dossier.Goals),
		Secrets:     slices.Clone(dossier.Secrets),
		Pressures:   pressures,
		UpdatedAt:   now,
	}
}

// spanError marks the span failed and passes the error through.
func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
