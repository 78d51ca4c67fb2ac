package domain

// GoalAssessment is the moderator's judgement of one goal's progress after a
// round.
type GoalAssessment struct {
	CharacterID string
	GoalID      string
	Progress    string
	Status      GoalStatus
}

// RoundAssessment is the moderator's end-of-round read of the scene: a
// public summary, per-goal judgements, pacing notes, optional environmental
// events to inject next round, and its termination recommendation.
type RoundAssessment struct {
	Round              int
	SceneSummary       string
	GoalAssessments    []GoalAssessment
	PacingNotes        string
	SuggestedEvents    []string
	EndingDirectionMet bool
	ShouldEnd          bool
	EndReason          string
}

// SceneAnnouncement opens a round: the moderator's scene description plus an
// optional private plot hint.
type SceneAnnouncement struct {
	Scene    string
	PlotHint string
}

// TurnOrderDecision is the moderator's proposed acting order with its
// narrative reasoning.
type TurnOrderDecision struct {
	Order     []string
	Reasoning string
}
