package domain

import "strings"

// ObjectiveFacts are the purely objective scene facts produced at
// initialization: spatio-temporal situation, physical environment, the basis
// on which the characters can interact, and the opening event. They carry no
// subjective content.
type ObjectiveFacts struct {
	SpaceTime        string
	Environment      string
	InteractionBasis string
	OpeningEvent     string
}

// CharacterDossier is one character's complete first-person briefing:
// identity, private understanding of the situation, goals, accessible
// information, and held secrets.
type CharacterDossier struct {
	CharacterID          string
	CoreIdentity         string
	PrivateUnderstanding string
	Goals                []CharacterGoal
	KnownInfo            []TaggedInfo
	Secrets              []SecretEntry
}

// ValidateDossier checks a dossier for required fields and first-person
// perspective. It returns every problem found, empty when the dossier is
// well formed.
func ValidateDossier(d CharacterDossier) []string {
	var problems []string

	if d.CharacterID == "" {
		problems = append(problems, "Missing character_id")
	}
	if d.CoreIdentity == "" {
		problems = append(problems, "Missing core_identity")
	}
	if d.PrivateUnderstanding == "" {
		problems = append(problems, "Missing private_understanding")
	}
	if len(d.Goals) == 0 {
		problems = append(problems, "Missing or empty goals")
	}
	if d.KnownInfo == nil {
		problems = append(problems, "Missing known_info")
	}

	// Dossiers are written from the character's own point of view.
	if !strings.Contains(d.CoreIdentity, "我") && !strings.Contains(d.PrivateUnderstanding, "我") {
		problems = append(problems, "Dossier must use first-person perspective (我)")
	}

	return problems
}
