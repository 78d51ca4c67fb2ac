package agent

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/narrative/parse"
	"github.com/louisbranch/ludos/internal/narrative/prompt"
)

const moderatorSystem = "你是角色驱动推演系统的主持人。"

// conversionRetryMessage asks for the half-structured script form when a
// conversion attempt produced nothing usable.
const conversionRetryMessage = "请严格按半结构化格式输出（包含 [OBJECTIVE_FACTS] 与多个 [CHARACTER] 块），不要输出JSON。\n\n"

// secretIndicators are the phrases whose presence in a private understanding
// marks a heuristic secret.
var secretIndicators = []string{"秘密", "不能让", "隐瞒", "不知道", "偷偷", "暗中", "私下"}

// Moderator is the scene-level agent: it converts an outline into a script,
// opens each round with a broadcast, proposes turn orders, and assesses
// finished rounds.
type Moderator struct {
	completer Completer
}

// NewModerator builds a moderator on the given completion client.
func NewModerator(completer Completer) *Moderator {
	return &Moderator{completer: completer}
}

// ParseNarrative converts a free-form outline into an initialization script.
// The conversion prompt is the system message and runs deterministic. A
// first unusable output gets one corrective retry; after that a minimal
// single-character script is coerced so a session can always start.
func (m *Moderator) ParseNarrative(ctx context.Context, outline string) (parse.Initialization, error) {
	conversion, err := prompt.Conversion()
	if err != nil {
		return parse.Initialization{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	raw, err := m.completer.Complete(ctx, Request{
		System:  conversion,
		User:    outline,
		Retries: 2,
	})
	if err != nil {
		return parse.Initialization{}, err
	}
	init := extractInitialization(raw)
	if len(init.Characters) > 0 {
		return init, nil
	}

	raw, err = m.completer.Complete(ctx, Request{
		System:  conversion,
		User:    conversionRetryMessage + outline,
		Retries: 2,
	})
	if err != nil {
		return parse.Initialization{}, err
	}
	if init = extractInitialization(raw); len(init.Characters) > 0 {
		return init, nil
	}

	return fallbackInitialization(outline), nil
}

// AnnounceScene opens a round with an objective broadcast built from the
// fixed facts, the previous round's recap, and any pending environmental
// events.
func (m *Moderator) AnnounceScene(ctx context.Context, facts domain.ObjectiveFacts, previousSummary string, events []string) (domain.SceneAnnouncement, error) {
	if previousSummary == "" {
		previousSummary = "这是第一轮，尚无交互历史。"
	}
	eventsText := strings.Join(events, "\n")
	if eventsText == "" {
		eventsText = "无"
	}

	user, err := prompt.SceneAnnouncement(prompt.SceneAnnouncementParams{
		ObjectiveFacts:       factsText(facts),
		PreviousRoundSummary: previousSummary,
		EnvironmentalEvents:  eventsText,
	})
	if err != nil {
		return domain.SceneAnnouncement{}, err
	}

	raw, err := m.completer.Complete(ctx, Request{
		System:      moderatorSystem,
		User:        user,
		Temperature: 0.7,
		Retries:     2,
	})
	if err != nil {
		return domain.SceneAnnouncement{}, err
	}

	if dict, ok := jsonObject(raw); ok {
		if scene, present := dict["scene_description"]; present {
			return domain.SceneAnnouncement{
				Scene:    toString(scene),
				PlotHint: toString(dict["plot_hint"]),
			}, nil
		}
	}
	return parse.ParseSceneAnnouncement(raw), nil
}

// ProposeTurnOrder asks for this round's acting order. An output that names
// no one falls back to the active list as given.
func (m *Moderator) ProposeTurnOrder(ctx context.Context, scene string, active []string, previousActions []domain.ActionPack) (domain.TurnOrderDecision, error) {
	previous := actionLines(previousActions)
	if previous == "" {
		previous = "无（第一轮）"
	}

	user, err := prompt.TurnOrder(prompt.TurnOrderParams{
		SceneDescription: scene,
		ActiveCharacters: strings.Join(active, ", "),
		PreviousActions:  previous,
	})
	if err != nil {
		return domain.TurnOrderDecision{}, err
	}

	raw, err := m.completer.Complete(ctx, Request{
		System:      moderatorSystem,
		User:        user,
		Temperature: 0.7,
		Retries:     2,
	})
	if err != nil {
		return domain.TurnOrderDecision{}, err
	}

	if dict, ok := jsonObject(raw); ok {
		if order, isList := dict["turn_order"].([]any); isList {
			decision := domain.TurnOrderDecision{}
			for _, entry := range order {
				if name := toString(entry); name != "" {
					decision.Order = append(decision.Order, name)
				}
			}
			return decision, nil
		}
	}

	decision := parse.ParseTurnOrder(raw)
	if len(decision.Order) == 0 {
		decision.Order = append([]string(nil), active...)
	}
	return decision, nil
}

// AssessRound asks for the end-of-round judgement over the public record of
// the round.
func (m *Moderator) AssessRound(ctx context.Context, actions []domain.ActionPack, goals map[string][]domain.CharacterGoal, round, maxRounds int, endingDirection string) (domain.RoundAssessment, error) {
	actionsText := actionLines(actions)
	if actionsText == "" {
		actionsText = "无"
	}
	goalsText := goalLines(goals)
	if goalsText == "" {
		goalsText = "无"
	}
	if endingDirection == "" {
		endingDirection = "未指定"
	}

	user, err := prompt.RoundAssessment(prompt.RoundAssessmentParams{
		RoundActions:    actionsText,
		CharacterGoals:  goalsText,
		CurrentRound:    round,
		MaxRounds:       maxRounds,
		EndingDirection: endingDirection,
	})
	if err != nil {
		return domain.RoundAssessment{}, err
	}

	raw, err := m.completer.Complete(ctx, Request{
		System:      moderatorSystem,
		User:        user,
		Temperature: 0.7,
		Retries:     2,
	})
	if err != nil {
		return domain.RoundAssessment{}, err
	}

	if dict, ok := jsonObject(raw); ok {
		if _, present := dict["scene_summary"]; present {
			return assessmentFromJSON(dict), nil
		}
	}
	return parse.ParseRoundAssessment(raw), nil
}

// BuildDossiers converts an initialization script into the fixed objective
// facts and per-character dossiers, in script order. Every character knows
// the public facts; identity and private understanding stay restricted to
// their owner. Secrets are heuristic: each indicator phrase found in a
// private understanding yields one secret whose keywords come from the
// surrounding context.
func BuildDossiers(init parse.Initialization) (domain.ObjectiveFacts, []domain.CharacterDossier) {
	ids := make([]string, 0, len(init.Characters))
	for _, sheet := range init.Characters {
		ids = append(ids, sheet.ID)
	}

	factPairs := []struct{ key, value string }{
		{"时空状态", init.Facts.SpaceTime},
		{"物理状态", init.Facts.Environment},
		{"交互基础", init.Facts.InteractionBasis},
		{"起始事件", init.Facts.OpeningEvent},
	}
	publicInfo := make([]domain.TaggedInfo, 0, len(factPairs))
	for _, pair := range factPairs {
		publicInfo = append(publicInfo, domain.TaggedInfo{
			Content:    pair.key + ":" + pair.value,
			Visibility: domain.VisibilityPublic,
			Source:     "objective_facts",
			KnownBy:    ids,
		})
	}

	dossiers := make([]domain.CharacterDossier, 0, len(init.Characters))
	for _, sheet := range init.Characters {
		goals := make([]domain.CharacterGoal, 0, len(sheet.Goals))
		for i, description := range sheet.Goals {
			goals = append(goals, domain.CharacterGoal{
				ID:          fmt.Sprintf("%s_goal_%d", sheet.ID, i),
				Description: description,
				Status:      domain.GoalActive,
			})
		}

		known := make([]domain.TaggedInfo, 0, len(publicInfo)+2)
		known = append(known, publicInfo...)
		known = append(known,
			domain.TaggedInfo{
				Content:    sheet.CoreIdentity,
				Visibility: domain.VisibilityPrivate,
				Source:     "self_awareness",
				KnownBy:    []string{sheet.ID},
			},
			domain.TaggedInfo{
				Content:    sheet.PrivateUnderstanding,
				Visibility: domain.VisibilityPrivate,
				Source:     "personal_analysis",
				KnownBy:    []string{sheet.ID},
			},
		)

		dossiers = append(dossiers, domain.CharacterDossier{
			CharacterID:          sheet.ID,
			CoreIdentity:         sheet.CoreIdentity,
			PrivateUnderstanding: sheet.PrivateUnderstanding,
			Goals:                goals,
			KnownInfo:            known,
			Secrets:              extractSecrets(sheet.ID, sheet.PrivateUnderstanding),
		})
	}

	return init.Facts, dossiers
}

func extractSecrets(characterID, understanding string) []domain.SecretEntry {
	runes := []rune(understanding)
	var secrets []domain.SecretEntry
	for i, indicator := range secretIndicators {
		byteIndex := strings.Index(understanding, indicator)
		if byteIndex == -1 {
			continue
		}
		index := utf8.RuneCountInString(understanding[:byteIndex])
		start := max(0, index-10)
		end := min(len(runes), index+20)
		context := string(runes[start:end])

		var keywords []string
		for _, word := range strings.Fields(context) {
			if utf8.RuneCountInString(word) >= 2 {
				keywords = append(keywords, word)
			}
		}
		if len(keywords) == 0 {
			keywords = []string{indicator}
		}

		secrets = append(secrets, domain.SecretEntry{
			ID:          fmt.Sprintf("%s_secret_%d", characterID, i),
			Description: context,
			Keywords:    keywords,
		})
	}
	return secrets
}

func extractInitialization(text string) parse.Initialization {
	if value, ok := parse.ExtractJSON(text); ok {
		switch typed := value.(type) {
		case map[string]any:
			if _, present := typed["purely_objective_facts"]; present {
				return initializationFromJSON(typed)
			}
		case []any:
			for _, entry := range typed {
				if dict, ok := entry.(map[string]any); ok {
					if _, present := dict["purely_objective_facts"]; present {
						return initializationFromJSON(dict)
					}
				}
			}
		}
	}
	return parse.ParseInitialization(text)
}

func initializationFromJSON(dict map[string]any) parse.Initialization {
	facts, _ := dict["purely_objective_facts"].(map[string]any)
	init := parse.Initialization{
		Facts: domain.ObjectiveFacts{
			SpaceTime:        jsonFact(facts, "时空状态"),
			Environment:      jsonFact(facts, "物理状态"),
			InteractionBasis: jsonFact(facts, "交互基础"),
			OpeningEvent:     jsonFact(facts, "起始事件"),
		},
		EndingDirection: toString(dict["ending_direction"]),
	}

	if raw, ok := dict["protagonists"].([]any); ok {
		for _, entry := range raw {
			if name, ok := entry.(string); ok && name != "" {
				init.Protagonists = append(init.Protagonists, name)
			}
		}
	}

	if sheets, ok := dict["character_dossiers"].([]any); ok {
		for _, entry := range sheets {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			id := toString(fields["角色标识"])
			if id == "" {
				continue
			}
			sheet := parse.CharacterSheet{
				ID:                   id,
				CoreIdentity:         toString(fields["核心身份认知"]),
				PrivateUnderstanding: toString(fields["对此刻状况的私人理解"]),
			}
			if goals, ok := fields["个人本轮目标"].([]any); ok {
				for _, goal := range goals {
					if text := toString(goal); text != "" {
						sheet.Goals = append(sheet.Goals, text)
					}
				}
			}
			init.Characters = append(init.Characters, sheet)
		}
	}

	return init
}

// fallbackInitialization is the last resort after conversion retries: one
// observer character inside whatever the outline described.
func fallbackInitialization(outline string) parse.Initialization {
	summary := clipRunes(outline, 200)
	if summary == "" {
		summary = "未知"
	}
	return parse.Initialization{
		Facts: domain.ObjectiveFacts{
			SpaceTime:        summary,
			Environment:      "未知",
			InteractionBasis: "可对话",
			OpeningEvent:     "未知",
		},
		Characters: []parse.CharacterSheet{{
			ID:                   "角色A",
			CoreIdentity:         "我是角色A。我处于未知情境中。",
			PrivateUnderstanding: "我需要先观察环境和其他人。",
			Goals:                []string{"先确认局势", "避免暴露弱点"},
		}},
	}
}

func assessmentFromJSON(dict map[string]any) domain.RoundAssessment {
	assessment := domain.RoundAssessment{
		SceneSummary:       toString(dict["scene_summary"]),
		PacingNotes:        toString(dict["pacing_notes"]),
		EndingDirectionMet: jsonTruthy(dict["ending_direction_met"]),
		ShouldEnd:          jsonTruthy(dict["should_end"]),
		EndReason:          toString(dict["end_reason"]),
	}
	if events, ok := dict["suggested_events"].([]any); ok {
		for _, entry := range events {
			if text := toString(entry); text != "" {
				assessment.SuggestedEvents = append(assessment.SuggestedEvents, text)
			}
		}
	}
	if raw, ok := dict["goal_assessments"].([]any); ok {
		for _, entry := range raw {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			assessment.GoalAssessments = append(assessment.GoalAssessments, domain.GoalAssessment{
				CharacterID: toString(fields["character_id"]),
				GoalID:      toString(fields["goal_id"]),
				Status:      domain.GoalStatus(toString(fields["status"])),
				Progress:    toString(fields["progress"]),
			})
		}
	}
	return assessment
}

func factsText(facts domain.ObjectiveFacts) string {
	return strings.Join([]string{
		"时空状态: " + facts.SpaceTime,
		"物理状态: " + facts.Environment,
		"交互基础: " + facts.InteractionBasis,
		"起始事件: " + facts.OpeningEvent,
	}, "\n")
}

func actionLines(actions []domain.ActionPack) string {
	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		lines = append(lines, fmt.Sprintf("- %s: %s %s", a.CharacterID, a.Spoken, a.Action))
	}
	return strings.Join(lines, "\n")
}

func goalLines(goals map[string][]domain.CharacterGoal) string {
	var lines []string
	for _, characterID := range slices.Sorted(maps.Keys(goals)) {
		ids := make([]string, 0, len(goals[characterID]))
		for _, goal := range goals[characterID] {
			ids = append(ids, goal.ID)
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", characterID, strings.Join(ids, ", ")))
	}
	return strings.Join(lines, "\n")
}

func jsonObject(text string) (map[string]any, bool) {
	value, ok := parse.ExtractJSON(text)
	if !ok {
		return nil, false
	}
	dict, ok := value.(map[string]any)
	return dict, ok
}

func jsonFact(facts map[string]any, key string) string {
	if value := toString(facts[key]); value != "" {
		return value
	}
	return "未知"
}

func toString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}

// jsonTruthy mirrors loose-JSON truthiness so moderator outputs like
// "should_end": 1 or a bare non-empty string still count.
func jsonTruthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case float64:
		return typed != 0
	case []any:
		return len(typed) > 0
	case map[string]any:
		return len(typed) > 0
	}
	return true
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
