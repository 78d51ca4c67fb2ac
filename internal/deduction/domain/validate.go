package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ValidateAction checks an action for structural completeness: a character
// id, a valid interaction kind, the content that kind requires, and
// non-empty inner reasoning. It returns every problem found, empty when the
// action is well formed. The problem strings feed the retry prompt, so they
// name the wire-level fields.
func ValidateAction(a ActionPack) []string {
	var problems []string

	if a.CharacterID == "" {
		problems = append(problems, "Missing character_id")
	}

	if !a.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("Invalid interaction_type: %s", a.Kind))
	}

	if a.Kind.IncludesSpeech() && a.Spoken == "" {
		problems = append(problems, fmt.Sprintf("interaction_type=%s requires spoken_content", a.Kind))
	}

	if (a.Kind == KindAction || a.Kind == KindComposite) && a.Action == "" {
		problems = append(problems, fmt.Sprintf("interaction_type=%s requires action_content", a.Kind))
	}

	if a.InnerReasoning == "" {
		problems = append(problems, "Missing inner_reasoning")
	}

	return problems
}

// LeakageViolation records one illegitimate secret-keyword reference inside
// a proposed action.
type LeakageViolation struct {
	Actor       string
	Keyword     string
	SecretOwner string
	SecretID    string
}

// String renders the violation in the form fed back to the decision step.
func (v LeakageViolation) String() string {
	return fmt.Sprintf("Character '%s' references keyword '%s' from %s's secret '%s' without access",
		v.Actor, v.Keyword, v.SecretOwner, v.SecretID)
}

// DetectLeakage scans an action's visible text for keywords of other
// characters' unrevealed secrets and reports every reference the actor has
// no legitimate access to. Access is legitimate when some item of the
// actor's known information contains the keyword and is either public or
// privately known by the actor. All violations are returned, not just the
// first.
func DetectLeakage(a ActionPack, actor CharacterDossier, all map[string]CharacterDossier) []LeakageViolation {
	text := a.CombinedText()
	if text == "" {
		return nil
	}

	var violations []LeakageViolation
	for _, otherID := range slices.Sorted(maps.Keys(all)) {
		if otherID == actor.CharacterID {
			continue
		}
		for _, secret := range all[otherID].Secrets {
			if secret.Revealed {
				continue
			}
			for _, keyword := range secret.Keywords {
				if keyword == "" || !strings.Contains(text, keyword) {
					continue
				}
				if actorKnowsKeyword(actor, keyword) {
					continue
				}
				violations = append(violations, LeakageViolation{
					Actor:       actor.CharacterID,
					Keyword:     keyword,
					SecretOwner: otherID,
					SecretID:    secret.ID,
				})
			}
		}
	}
	return violations
}

func actorKnowsKeyword(actor CharacterDossier, keyword string) bool {
	for _, info := range actor.KnownInfo {
		if !strings.Contains(info.Content, keyword) {
			continue
		}
		if info.Visibility == VisibilityPublic || slices.Contains(info.KnownBy, actor.CharacterID) {
			return true
		}
	}
	return false
}
