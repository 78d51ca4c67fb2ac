package domain

import "strings"

// InteractionKind classifies what a character did on its turn.
type InteractionKind string

const (
	// KindSpeak is a purely verbal interaction.
	KindSpeak InteractionKind = "speak"
	// KindAction is a physical interaction without speech.
	KindAction InteractionKind = "action"
	// KindComposite combines speech with a physical action.
	KindComposite InteractionKind = "composite"
)

// Valid reports whether the kind is one of the three interaction kinds.
func (k InteractionKind) Valid() bool {
	switch k {
	case KindSpeak, KindAction, KindComposite:
		return true
	}
	return false
}

// IncludesSpeech reports whether the kind carries spoken content.
func (k InteractionKind) IncludesSpeech() bool {
	return k == KindSpeak || k == KindComposite
}

// InferKind derives an interaction kind from which content fields are
// populated, for records whose kind is missing or mangled.
func InferKind(spoken, action string) InteractionKind {
	hasSpoken := strings.TrimSpace(spoken) != ""
	hasAction := strings.TrimSpace(action) != ""
	switch {
	case hasSpoken && hasAction:
		return KindComposite
	case hasAction:
		return KindAction
	default:
		return KindSpeak
	}
}

// ActionStatus marks how an action reached the committed log.
type ActionStatus string

const (
	// ActionStatusClean marks an action that passed validation before commit.
	ActionStatusClean ActionStatus = "clean"
	// ActionStatusDegraded marks an action committed after validation
	// retries were exhausted; it may still carry structural problems or
	// leak a secret keyword.
	ActionStatusDegraded ActionStatus = "degraded"
)

// ActionPack is one character's output for a single turn. InnerReasoning is
// recorded for the character's own continuity and never exposed to other
// characters.
type ActionPack struct {
	CharacterID    string
	Round          int
	Turn           int
	Kind           InteractionKind
	Spoken         string
	Action         string
	InnerReasoning string
	Targets        []string
	Status         ActionStatus
}

// CombinedText returns the externally visible text of the action: spoken
// content and physical action description joined with a space.
func (a ActionPack) CombinedText() string {
	return strings.TrimSpace(a.Spoken + " " + a.Action)
}

// PubliclyObservable reports whether every character in the scene can
// perceive the action. Speech always carries; physical actions carry when
// they have observable content; anything else stays internal.
func PubliclyObservable(a ActionPack) bool {
	if a.Kind.IncludesSpeech() {
		return true
	}
	return a.Kind == KindAction && a.Action != ""
}
