package domain

// Visibility tags who may access a piece of information.
type Visibility string

const (
	// VisibilityPublic marks information every character may access.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate marks information restricted to its known-by set.
	VisibilityPrivate Visibility = "private"
)

// TaggedInfo is a fact with a visibility tag, a source label, and the set of
// characters permitted to know it. KnownBy is ignored for public items.
type TaggedInfo struct {
	Content    string
	Visibility Visibility
	Source     string
	KnownBy    []string
}

// SecretEntry is a character-held secret. Its keywords drive pressure growth
// and leakage checks for as long as the secret stays unrevealed.
type SecretEntry struct {
	ID          string
	Description string
	Keywords    []string
	Revealed    bool
}
