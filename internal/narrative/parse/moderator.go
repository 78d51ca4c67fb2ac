package parse

import (
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/domain"
)

// ParseSceneAnnouncement reads a moderator broadcast. When the output has
// no recognizable SCENE_DESCRIPTION section the whole text becomes the
// scene, so a malformed broadcast still reaches the characters.
func ParseSceneAnnouncement(text string) domain.SceneAnnouncement {
	sections := splitSections(text)
	scene := strings.TrimSpace(sections["SCENE_DESCRIPTION"])
	if scene == "" {
		scene = strings.TrimSpace(text)
	}
	return domain.SceneAnnouncement{
		Scene:    scene,
		PlotHint: strings.TrimSpace(sections["PLOT_HINT"]),
	}
}

// ParseTurnOrder reads the moderator's proposed acting order.
func ParseTurnOrder(text string) domain.TurnOrderDecision {
	sections := splitSections(text)
	return domain.TurnOrderDecision{
		Order:     parseList(sections["TURN_ORDER"]),
		Reasoning: strings.TrimSpace(sections["REASONING"]),
	}
}

// ParseRoundAssessment reads the moderator's end-of-round assessment. Goal
// lines use the pipe form 角色ID | 目标ID | 状态 | 进展; lines that do not
// split into four parts are dropped. Missing boolean sections read as
// false, so a partial assessment never ends a session by accident.
func ParseRoundAssessment(text string) domain.RoundAssessment {
	sections := splitSections(text)
	assessment := domain.RoundAssessment{
		SceneSummary:       strings.TrimSpace(sections["SCENE_SUMMARY"]),
		PacingNotes:        strings.TrimSpace(sections["PACING_NOTES"]),
		SuggestedEvents:    parseList(sections["SUGGESTED_EVENTS"]),
		EndingDirectionMet: parseBool(sections["ENDING_DIRECTION_MET"]),
		ShouldEnd:          parseBool(sections["SHOULD_END"]),
		EndReason:          strings.TrimSpace(sections["END_REASON"]),
	}

	for _, line := range strings.Split(sections["GOAL_ASSESSMENTS"], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line, _ = stripBullet(line)
		parts := strings.SplitN(line, "|", 4)
		if len(parts) < 4 {
			continue
		}
		assessment.GoalAssessments = append(assessment.GoalAssessments, domain.GoalAssessment{
			CharacterID: strings.TrimSpace(parts[0]),
			GoalID:      strings.TrimSpace(parts[1]),
			Status:      domain.GoalStatus(strings.TrimSpace(parts[2])),
			Progress:    strings.TrimSpace(parts[3]),
		})
	}

	return assessment
}
