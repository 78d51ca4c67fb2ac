package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/journal"
	"github.com/louisbranch/ludos/internal/deduction/storage"
	"github.com/louisbranch/ludos/internal/narrative/format"
)

var consoleRule = strings.Repeat("-", 60)

// sessionRecorder fans committed engine output into the session journal,
// the interaction store, and the console transcript. Journal and store
// failures abort the run; console writes are best effort.
type sessionRecorder struct {
	service   *Service
	sessionID string
	journal   *journal.Journal
	console   io.Writer

	// lastScene suppresses duplicate scene headers; it starts as the
	// initial facts scene, which is never journaled itself.
	lastScene string
}

func (r *sessionRecorder) RecordScene(_ context.Context, _ int, scene string) error {
	if scene == "" || scene == r.lastScene {
		return nil
	}
	if err := r.journal.AppendPublic(format.SceneHeader(scene)); err != nil {
		return err
	}
	fmt.Fprintf(r.console, "\n%s\n【场景播报】\n%s\n%s\n\n", consoleRule, scene, consoleRule)
	r.lastScene = scene
	return nil
}

func (r *sessionRecorder) RecordAction(ctx context.Context, action domain.ActionPack) error {
	if err := r.journal.AppendCharacter(action.CharacterID, format.ActionLine(action, nil)); err != nil {
		return err
	}
	if err := r.journal.AppendPublic(format.PublicActionLine(action, nil)); err != nil {
		return err
	}
	fmt.Fprintln(r.console, strings.TrimSpace(fmt.Sprintf("[%s] %s %s %s",
		action.CharacterID, action.Kind, action.Spoken, action.Action)))

	interactionID, err := r.service.deps.NewID()
	if err != nil {
		return fmt.Errorf("mint interaction id: %w", err)
	}
	return r.service.deps.Interactions.AppendInteraction(ctx, storage.InteractionRecord{
		ID:             interactionID,
		SessionID:      r.sessionID,
		CharacterID:    action.CharacterID,
		Round:          action.Round,
		Turn:           action.Turn,
		Kind:           action.Kind,
		Spoken:         action.Spoken,
		Action:         action.Action,
		InnerReasoning: action.InnerReasoning,
		Targets:        action.Targets,
		Status:         action.Status,
		CreatedAt:      r.service.deps.Now(),
	})
}

func (r *sessionRecorder) RecordAssessment(_ context.Context, assessment domain.RoundAssessment) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n【回合评估】第%d轮\n", consoleRule, assessment.Round)
	if assessment.SceneSummary != "" {
		fmt.Fprintf(&b, "摘要：%s\n", assessment.SceneSummary)
	}
	if assessment.PacingNotes != "" {
		fmt.Fprintf(&b, "节奏：%s\n", assessment.PacingNotes)
	}
	fmt.Fprintf(&b, "%s\n\n", consoleRule)
	_, _ = io.WriteString(r.console, b.String())
	return nil
}
