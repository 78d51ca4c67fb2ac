package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/storage"
	"github.com/louisbranch/ludos/internal/narrative/parse"
)

// runTurn executes one character's decision with bounded retries. Structural
// and leakage problems feed back into the next attempt; once retries are
// exhausted the last action commits as degraded rather than blocking the
// round. Memory persists after every attempt, so a retry reads an advanced
// public-journal offset and sees no stale delta.
func (e *Engine) runTurn(ctx context.Context, characterID string) (domain.ActionPack, error) {
	var feedback string
	for attempt := 0; ; attempt++ {
		memory, err := e.loadOrSeedMemory(ctx, characterID)
		if err != nil {
			return domain.ActionPack{}, err
		}

		delta, offset, err := e.deps.Broadcast.ReadPublicDelta(memory.PublicLogOffset)
		if err != nil {
			return domain.ActionPack{}, fmt.Errorf("read public delta for %s: %w", characterID, err)
		}
		memory.PublicLogOffset = offset

		raw, err := e.deps.Decider.Decide(ctx, DecisionRequest{
			CharacterID:       characterID,
			Round:             e.state.Round,
			Turn:              e.state.TurnIndex,
			SceneDescription:  e.state.Scene,
			VisibleActions:    domain.VisibleActions(e.state.RoundActions, characterID),
			PressureWarnings:  e.pressureWarnings(memory),
			LastInnerThoughts: e.state.LastInnerThoughts[characterID],
			Goals:             memory.Goals,
			StableMemory:      memory.Stable,
			WorkingMemory:     memory.Working,
			PublicDelta:       delta,
			RetryFeedback:     feedback,
		})
		if err != nil {
			return domain.ActionPack{}, fmt.Errorf("decide %s round %d turn %d: %w", characterID, e.state.Round, e.state.TurnIndex, err)
		}

		update := e.deps.Parse(raw)
		action := domain.ActionPack{
			CharacterID:    characterID,
			Round:          e.state.Round,
			Turn:           e.state.TurnIndex,
			Kind:           update.Kind,
			Spoken:         update.Spoken,
			Action:         update.Action,
			InnerReasoning: update.Inner,
			Targets:        update.Targets,
		}

		if err := e.applyMemoryUpdate(ctx, memory, update); err != nil {
			return domain.ActionPack{}, err
		}

		if problems := domain.ValidateAction(action); len(problems) > 0 {
			feedback = "结构错误: " + strings.Join(problems, "; ")
		} else if violations := domain.DetectLeakage(action, e.state.Dossiers[characterID], e.state.Dossiers); len(violations) > 0 {
			feedback = "信息泄露: " + joinViolations(violations)
		} else {
			action.Status = domain.ActionStatusClean
			return action, nil
		}

		if attempt >= e.cfg.MaxRetries {
			action.Status = domain.ActionStatusDegraded
			return action, nil
		}
	}
}

// loadOrSeedMemory fetches the character's memory, creating a minimal record
// on first contact so a character missing from session setup can still act.
func (e *Engine) loadOrSeedMemory(ctx context.Context, characterID string) (storage.MemoryRecord, error) {
	memory, err := e.deps.Memory.GetMemory(ctx, e.state.SessionID, characterID)
	if errors.Is(err, storage.ErrNotFound) {
		memory = storage.MemoryRecord{
			SessionID:   e.state.SessionID,
			CharacterID: characterID,
			Stable:      "身份：" + characterID,
			UpdatedAt:   e.deps.Now(),
		}
		if err := e.deps.Memory.SeedMemory(ctx, memory); err != nil {
			return storage.MemoryRecord{}, fmt.Errorf("seed memory for %s: %w", characterID, err)
		}
		return memory, nil
	}
	if err != nil {
		return storage.MemoryRecord{}, fmt.Errorf("load memory for %s: %w", characterID, err)
	}
	return memory, nil
}

func (e *Engine) pressureWarnings(memory storage.MemoryRecord) []string {
	if len(memory.Secrets) == 0 {
		return nil
	}
	warnings := domain.PressureWarnings(
		domain.PressureMap{memory.CharacterID: memory.Pressures},
		map[string][]domain.SecretEntry{memory.CharacterID: memory.Secrets},
		e.cfg.PressureThreshold,
	)
	return warnings[memory.CharacterID]
}

// applyMemoryUpdate folds a decision's memory directives into the record and
// persists it. A summary replaces working memory outright; appends stack
// under it. Self-evaluations are kept verbatim and their statuses applied to
// matching goals without interpretation.
func (e *Engine) applyMemoryUpdate(ctx context.Context, memory storage.MemoryRecord, update parse.InteractionUpdate) error {
	if update.MemorySummary != "" {
		memory.Working = update.MemorySummary
	} else if appendText := strings.TrimSpace(strings.Join(update.MemoryAppend, "\n")); appendText != "" {
		memory.Working = strings.TrimSpace(memory.Working + "\n" + appendText)
	}

	if len(update.SelfEval) > 0 {
		lines := make([]string, len(update.SelfEval))
		for i, eval := range update.SelfEval {
			lines[i] = fmt.Sprintf("%s: %s | %s", eval.GoalID, eval.Status, eval.Note)
		}
		memory.SelfEval = strings.TrimSpace(strings.Join(lines, "\n"))

		for _, eval := range update.SelfEval {
			if eval.GoalID == "" || eval.Status == "" {
				continue
			}
			for i := range memory.Goals {
				if memory.Goals[i].ID == eval.GoalID {
					memory.Goals[i].Status = domain.GoalStatus(eval.Status)
				}
			}
		}
	}

	memory.UpdatedAt = e.deps.Now()
	if err := e.deps.Memory.PutMemory(ctx, memory); err != nil {
		return fmt.Errorf("save memory for %s: %w", memory.CharacterID, err)
	}
	return nil
}
