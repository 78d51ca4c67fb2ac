package domain

import "strings"

// GoalStatus tracks a character goal through the session.
type GoalStatus string

const (
	// GoalActive marks a goal the character is still pursuing.
	GoalActive GoalStatus = "active"
	// GoalAchieved marks a goal the character accomplished.
	GoalAchieved GoalStatus = "achieved"
	// GoalFailed marks a goal that can no longer be accomplished.
	GoalFailed GoalStatus = "failed"
	// GoalAbandoned marks a goal the character gave up on.
	GoalAbandoned GoalStatus = "abandoned"
)

// ParseGoalStatus maps a raw status string onto a goal status. The second
// return reports whether the input named a known status.
func ParseGoalStatus(raw string) (GoalStatus, bool) {
	switch GoalStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case GoalActive:
		return GoalActive, true
	case GoalAchieved:
		return GoalAchieved, true
	case GoalFailed:
		return GoalFailed, true
	case GoalAbandoned:
		return GoalAbandoned, true
	}
	return GoalActive, false
}

// CharacterGoal is an immediate, self-interested goal for a character.
type CharacterGoal struct {
	ID          string
	Description string
	Status      GoalStatus
}
