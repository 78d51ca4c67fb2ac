package domain

import "testing"

func TestSimulationStateCloneIsDeep(t *testing.T) {
	state := SimulationState{
		SessionID:    "s1",
		CharacterIDs: []string{"艾德", "劳勃国王"},
		Dossiers: map[string]CharacterDossier{
			"艾德": {
				CharacterID: "艾德",
				Goals:       []CharacterGoal{{ID: "艾德_goal_0", Description: "守护家族", Status: GoalActive}},
				Secrets:     []SecretEntry{{ID: "艾德_secret_0", Keywords: []string{"琼恩", "信"}}},
			},
		},
		Round:     2,
		TurnOrder: []string{"劳勃国王", "艾德"},
		RoundActions: []ActionPack{
			{CharacterID: "劳勃国王", Kind: KindSpeak, Spoken: "话", Targets: []string{"艾德"}},
		},
		ActionLog: []ActionPack{
			{CharacterID: "艾德", Kind: KindSpeak, Spoken: "旧话"},
		},
		LastInnerThoughts: map[string]string{"艾德": "想法"},
		Assessments: []RoundAssessment{
			{Round: 1, SceneSummary: "摘要", SuggestedEvents: []string{"事件"}},
		},
		EnvironmentalEvents: []string{"大门被撞开"},
	}

	clone := state.Clone()

	clone.CharacterIDs[0] = "mutated"
	mutated := clone.Dossiers["艾德"]
	mutated.Goals[0].Status = GoalFailed
	mutated.Secrets[0].Keywords[0] = "mutated"
	clone.TurnOrder[0] = "mutated"
	clone.RoundActions[0].Targets[0] = "mutated"
	clone.ActionLog[0].Spoken = "mutated"
	clone.LastInnerThoughts["艾德"] = "mutated"
	clone.Assessments[0].SuggestedEvents[0] = "mutated"
	clone.EnvironmentalEvents[0] = "mutated"

	if state.CharacterIDs[0] != "艾德" {
		t.Fatal("expected character ids to be independent")
	}
	if state.Dossiers["艾德"].Goals[0].Status != GoalActive {
		t.Fatal("expected dossier goals to be independent")
	}
	if state.Dossiers["艾德"].Secrets[0].Keywords[0] != "琼恩" {
		t.Fatal("expected dossier secret keywords to be independent")
	}
	if state.TurnOrder[0] != "劳勃国王" {
		t.Fatal("expected turn order to be independent")
	}
	if state.RoundActions[0].Targets[0] != "艾德" {
		t.Fatal("expected action targets to be independent")
	}
	if state.ActionLog[0].Spoken != "旧话" {
		t.Fatal("expected action log to be independent")
	}
	if state.LastInnerThoughts["艾德"] != "想法" {
		t.Fatal("expected inner thoughts map to be independent")
	}
	if state.Assessments[0].SuggestedEvents[0] != "事件" {
		t.Fatal("expected assessment events to be independent")
	}
	if state.EnvironmentalEvents[0] != "大门被撞开" {
		t.Fatal("expected environmental events to be independent")
	}
}

func TestSimulationStateClonePreservesNils(t *testing.T) {
	clone := SimulationState{SessionID: "s1"}.Clone()

	if clone.RoundActions != nil || clone.ActionLog != nil {
		t.Fatal("expected nil action slices preserved")
	}
	if clone.LastInnerThoughts != nil {
		t.Fatal("expected nil thoughts map preserved")
	}
}
