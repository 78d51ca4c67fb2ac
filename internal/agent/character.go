package agent

import (
	"context"
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/engine"
	"github.com/louisbranch/ludos/internal/narrative/format"
	"github.com/louisbranch/ludos/internal/narrative/prompt"
)

// Character decides turns for any simulated character. The prompt it builds
// contains exactly what the engine granted the character: the scene, its
// filtered view of the round, its own memory, and the unread public
// broadcast. Nothing else reaches the model, which is the first line of
// information isolation.
type Character struct {
	completer Completer
}

// NewCharacter builds a character agent on the given completion client.
func NewCharacter(completer Completer) *Character {
	return &Character{completer: completer}
}

// Decide returns the model's raw decision text for one turn.
func (c *Character) Decide(ctx context.Context, req engine.DecisionRequest) (string, error) {
	user, err := decisionPrompt(req)
	if err != nil {
		return "", err
	}
	return c.completer.Complete(ctx, Request{
		System:      "你是" + req.CharacterID + "。你必须完全代入角色，只基于你知道的信息做决策。",
		User:        user,
		Temperature: 0.7,
		Retries:     2,
	})
}

func decisionPrompt(req engine.DecisionRequest) (string, error) {
	lastThoughts := ""
	if req.LastInnerThoughts != "" {
		lastThoughts = "【我上一轮的内心想法】\n" + req.LastInnerThoughts + "\n（你可以保持这个想法，也可以根据新信息改变主意。）"
	}

	goalsList := "（无）"
	if len(req.Goals) > 0 {
		lines := make([]string, 0, len(req.Goals))
		for _, goal := range req.Goals {
			lines = append(lines, "- "+goal.ID+": "+goal.Description)
		}
		goalsList = strings.Join(lines, "\n")
	}

	user, err := prompt.CharacterDecision(prompt.CharacterDecisionParams{
		CharacterName:       req.CharacterID,
		PressureWarning:     format.PressureWarning(req.PressureWarnings),
		VisibleActions:      format.VisibleActions(req.VisibleActions),
		SceneDescription:    req.SceneDescription,
		LastThoughtsSection: lastThoughts,
		GoalsList:           goalsList,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(user)
	b.WriteString("\n\n【角色稳定记忆】\n")
	b.WriteString(orNone(req.StableMemory))
	b.WriteString("\n\n【角色工作记忆】\n")
	b.WriteString(orNone(req.WorkingMemory))
	b.WriteString("\n\n【公共广播新增】\n")
	b.WriteString(orNone(req.PublicDelta))
	b.WriteString("\n")

	if req.RetryFeedback != "" {
		b.WriteString("\n\n⚠️ 修正要求：你上次的回复存在问题：")
		b.WriteString(req.RetryFeedback)
		b.WriteString("\n请确保你只使用你知道的信息重新决策。")
	}

	return b.String(), nil
}

func orNone(s string) string {
	if s == "" {
		return "（无）"
	}
	return s
}
