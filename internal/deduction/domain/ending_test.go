package domain

import "testing"

func TestEvaluateEndEndingDirectionBeatsMaxRounds(t *testing.T) {
	assessment := &RoundAssessment{EndingDirectionMet: true}

	end, reason := EvaluateEnd(20, 20, nil, assessment, nil)
	if !end {
		t.Fatal("expected end")
	}
	if reason != EndReasonEndingDirectionMet {
		t.Fatalf("expected reason %q, got %q", EndReasonEndingDirectionMet, reason)
	}
}

func TestEvaluateEndModeratorDecision(t *testing.T) {
	withReason := &RoundAssessment{ShouldEnd: true, EndReason: "阴谋败露"}
	end, reason := EvaluateEnd(3, 20, nil, withReason, nil)
	if !end || reason != "阴谋败露" {
		t.Fatalf("expected moderator reason, got end=%v reason=%q", end, reason)
	}

	withoutReason := &RoundAssessment{ShouldEnd: true}
	end, reason = EvaluateEnd(3, 20, nil, withoutReason, nil)
	if !end || reason != EndReasonModeratorDecision {
		t.Fatalf("expected default moderator reason, got end=%v reason=%q", end, reason)
	}
}

func TestEvaluateEndProtagonistGoalsResolved(t *testing.T) {
	goals := map[string][]CharacterGoal{
		"艾德":   {{ID: "g1", Status: GoalAchieved}, {ID: "g2", Status: GoalFailed}},
		"劳勃国王": {{ID: "g3", Status: GoalActive}},
	}

	end, reason := EvaluateEnd(3, 20, goals, nil, []string{"艾德"})
	if !end {
		t.Fatal("expected end when protagonist goals resolved")
	}
	if reason != "protagonist_艾德_goals_resolved" {
		t.Fatalf("expected protagonist reason, got %q", reason)
	}
}

func TestEvaluateEndProtagonistWithActiveGoalContinues(t *testing.T) {
	goals := map[string][]CharacterGoal{
		"艾德":   {{ID: "g1", Status: GoalActive}},
		"劳勃国王": {{ID: "g3", Status: GoalAchieved}},
	}

	// 劳勃国王 is resolved but not a protagonist, so the session continues.
	end, reason := EvaluateEnd(3, 20, goals, nil, []string{"艾德"})
	if end {
		t.Fatalf("expected continue, got reason %q", reason)
	}
}

func TestEvaluateEndProtagonistEmptyGoalsNeverResolves(t *testing.T) {
	goals := map[string][]CharacterGoal{}

	end, reason := EvaluateEnd(3, 20, goals, nil, []string{"艾德"})
	if end {
		t.Fatalf("expected continue for protagonist without goals, got %q", reason)
	}
}

func TestEvaluateEndAllGoalsResolved(t *testing.T) {
	goals := map[string][]CharacterGoal{
		"艾德":   {{ID: "g1", Status: GoalAchieved}},
		"劳勃国王": {{ID: "g2", Status: GoalAbandoned}},
	}

	end, reason := EvaluateEnd(3, 20, goals, nil, nil)
	if !end || reason != EndReasonAllGoalsResolved {
		t.Fatalf("expected all goals resolved, got end=%v reason=%q", end, reason)
	}
}

func TestEvaluateEndEmptyGoalSetBlocksAllResolved(t *testing.T) {
	goals := map[string][]CharacterGoal{
		"艾德":   {{ID: "g1", Status: GoalAchieved}},
		"劳勃国王": {},
	}

	end, reason := EvaluateEnd(3, 20, goals, nil, nil)
	if end {
		t.Fatalf("expected continue when a character has no goals, got %q", reason)
	}
}

func TestEvaluateEndEmptyGoalsMapNeverResolves(t *testing.T) {
	end, reason := EvaluateEnd(3, 20, map[string][]CharacterGoal{}, nil, nil)
	if end {
		t.Fatalf("expected continue for empty goals map, got %q", reason)
	}
}

func TestEvaluateEndMaxRounds(t *testing.T) {
	goals := map[string][]CharacterGoal{
		"艾德": {{ID: "g1", Status: GoalActive}},
	}

	end, reason := EvaluateEnd(20, 20, goals, nil, nil)
	if !end || reason != EndReasonMaxRoundsExceeded {
		t.Fatalf("expected max rounds exceeded, got end=%v reason=%q", end, reason)
	}
}

func TestEvaluateEndContinues(t *testing.T) {
	goals := map[string][]CharacterGoal{
		"艾德": {{ID: "g1", Status: GoalActive}},
	}
	assessment := &RoundAssessment{SceneSummary: "对话继续"}

	end, reason := EvaluateEnd(3, 20, goals, assessment, nil)
	if end {
		t.Fatal("expected continue")
	}
	if reason != "" {
		t.Fatalf("expected empty reason, got %q", reason)
	}
}
