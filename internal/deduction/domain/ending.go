package domain

import "fmt"

// End reasons reported by EvaluateEnd.
const (
	// EndReasonEndingDirectionMet reports the scripted ending direction was
	// reached.
	EndReasonEndingDirectionMet = "ending_direction_met"
	// EndReasonModeratorDecision is the default reason when an assessment
	// requests termination without naming one.
	EndReasonModeratorDecision = "moderator_decision"
	// EndReasonAllGoalsResolved reports every character's goals left the
	// active state.
	EndReasonAllGoalsResolved = "all_goals_resolved"
	// EndReasonMaxRoundsExceeded reports the round cap was reached.
	EndReasonMaxRoundsExceeded = "max_rounds_exceeded"
)

// EndReasonProtagonistResolved names the reason reported when the given
// protagonist's goals are all resolved.
func EndReasonProtagonistResolved(characterID string) string {
	return fmt.Sprintf("protagonist_%s_goals_resolved", characterID)
}

// EvaluateEnd decides whether the session should terminate, in strict
// priority order: the assessment's ending-direction flag, the assessment's
// explicit termination request, goal resolution (per protagonist when a
// protagonist list is supplied, across all characters otherwise), and
// finally the round cap. A character with an empty goal set never counts as
// resolved. Returns false and an empty reason when the session continues.
func EvaluateEnd(round, maxRounds int, goals map[string][]CharacterGoal, latest *RoundAssessment, protagonists []string) (bool, string) {
	if latest != nil && latest.EndingDirectionMet {
		return true, EndReasonEndingDirectionMet
	}

	if latest != nil && latest.ShouldEnd {
		reason := latest.EndReason
		if reason == "" {
			reason = EndReasonModeratorDecision
		}
		return true, reason
	}

	if len(protagonists) > 0 {
		for _, characterID := range protagonists {
			if goalsResolved(goals[characterID]) {
				return true, EndReasonProtagonistResolved(characterID)
			}
		}
	} else {
		allResolved := len(goals) > 0
		for _, characterGoals := range goals {
			if !goalsResolved(characterGoals) {
				allResolved = false
				break
			}
		}
		if allResolved {
			return true, EndReasonAllGoalsResolved
		}
	}

	if round >= maxRounds {
		return true, EndReasonMaxRoundsExceeded
	}

	return false, ""
}

func goalsResolved(goals []CharacterGoal) bool {
	if len(goals) == 0 {
		return false
	}
	for _, goal := range goals {
		if goal.Status == GoalActive {
			return false
		}
	}
	return true
}
