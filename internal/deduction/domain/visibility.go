package domain

import "slices"

// VisibleActions projects a round's action log into what one observer may
// see. Inner reasoning is stripped from every action, the observer's own
// actions are excluded, and an action is included only when the observer is
// among its targets or the action is publicly observable. Pure function of
// its inputs.
func VisibleActions(all []ActionPack, observerID string) []ActionPack {
	visible := make([]ActionPack, 0, len(all))
	for _, action := range all {
		if action.CharacterID == observerID {
			continue
		}
		if !slices.Contains(action.Targets, observerID) && !PubliclyObservable(action) {
			continue
		}
		action.InnerReasoning = ""
		visible = append(visible, action)
	}
	return visible
}

// FilterKnownInfo returns the tagged items a character can access: every
// public item, plus private items whose known-by set names the character.
func FilterKnownInfo(info []TaggedInfo, characterID string) []TaggedInfo {
	accessible := make([]TaggedInfo, 0, len(info))
	for _, item := range info {
		if item.Visibility == VisibilityPublic || slices.Contains(item.KnownBy, characterID) {
			accessible = append(accessible, item)
		}
	}
	return accessible
}
