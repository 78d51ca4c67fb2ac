package domain

import "maps"

// SimulationState is the engine's aggregate for one session. A single
// engine instance owns it for the lifetime of a run; it is serialized whole
// at round boundaries for checkpointing and accepted back on resume.
type SimulationState struct {
	SessionID       string
	CharacterIDs    []string
	EndingDirection string
	Protagonists    []string

	// Facts are the objective scene facts fixed at initialization; every
	// scene announcement re-reads them.
	Facts ObjectiveFacts

	// Dossiers holds each character's briefing, keyed by character id.
	// Leakage validation reads them on every turn.
	Dossiers map[string]CharacterDossier

	Round     int
	MaxRounds int
	Scene     string
	TurnOrder []string
	TurnIndex int

	// RoundActions holds the current round's committed actions in turn
	// order; ActionLog accumulates every committed action of the session.
	RoundActions []ActionPack
	ActionLog    []ActionPack

	// LastInnerThoughts carries each character's most recent private
	// reasoning into its next turn.
	LastInnerThoughts map[string]string

	Assessments []RoundAssessment

	// EnvironmentalEvents are moderator-suggested events waiting to be
	// woven into the next scene announcement, cleared once consumed.
	EnvironmentalEvents []string

	Complete  bool
	EndReason string
}

// Clone returns a deep copy safe to hand to checkpointing while the engine
// keeps mutating the original.
func (s SimulationState) Clone() SimulationState {
	out := s
	out.CharacterIDs = cloneStrings(s.CharacterIDs)
	out.Protagonists = cloneStrings(s.Protagonists)
	if s.Dossiers != nil {
		out.Dossiers = make(map[string]CharacterDossier, len(s.Dossiers))
		for id, dossier := range s.Dossiers {
			out.Dossiers[id] = cloneDossier(dossier)
		}
	}
	out.TurnOrder = cloneStrings(s.TurnOrder)
	out.RoundActions = cloneActions(s.RoundActions)
	out.ActionLog = cloneActions(s.ActionLog)
	out.EnvironmentalEvents = cloneStrings(s.EnvironmentalEvents)
	if s.LastInnerThoughts != nil {
		out.LastInnerThoughts = maps.Clone(s.LastInnerThoughts)
	}
	if s.Assessments != nil {
		out.Assessments = make([]RoundAssessment, len(s.Assessments))
		for i, assessment := range s.Assessments {
			out.Assessments[i] = cloneAssessment(assessment)
		}
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneActions(actions []ActionPack) []ActionPack {
	if actions == nil {
		return nil
	}
	out := make([]ActionPack, len(actions))
	for i, action := range actions {
		action.Targets = cloneStrings(action.Targets)
		out[i] = action
	}
	return out
}

func cloneDossier(d CharacterDossier) CharacterDossier {
	out := d
	if d.Goals != nil {
		out.Goals = make([]CharacterGoal, len(d.Goals))
		copy(out.Goals, d.Goals)
	}
	if d.KnownInfo != nil {
		out.KnownInfo = make([]TaggedInfo, len(d.KnownInfo))
		for i, info := range d.KnownInfo {
			info.KnownBy = cloneStrings(info.KnownBy)
			out.KnownInfo[i] = info
		}
	}
	if d.Secrets != nil {
		out.Secrets = make([]SecretEntry, len(d.Secrets))
		for i, secret := range d.Secrets {
			secret.Keywords = cloneStrings(secret.Keywords)
			out.Secrets[i] = secret
		}
	}
	return out
}

func cloneAssessment(a RoundAssessment) RoundAssessment {
	out := a
	out.SuggestedEvents = cloneStrings(a.SuggestedEvents)
	if a.GoalAssessments != nil {
		out.GoalAssessments = make([]GoalAssessment, len(a.GoalAssessments))
		copy(out.GoalAssessments, a.GoalAssessments)
	}
	return out
}
