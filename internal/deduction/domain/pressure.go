package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Pressure tuning values.
const (
	// KeywordMatchDelta is added when another character's text contains a
	// secret keyword.
	KeywordMatchDelta = 10
	// DirectAddressDelta replaces KeywordMatchDelta for a match whose
	// action directly targets the secret holder.
	DirectAddressDelta = 15
	// ConflictEscalationDelta is reserved for conflict-driven escalation.
	ConflictEscalationDelta = 5
	// DecayPerRound is subtracted from every pressure of a holder whose
	// secrets went unmentioned for a full round.
	DecayPerRound = 5
	// DefaultPressureThreshold triggers warnings when no threshold is
	// configured.
	DefaultPressureThreshold = 80
)

// PressureMap holds secret pressure values keyed by character id, then
// secret id. Values stay within [0,100].
type PressureMap map[string]map[string]int

// Clone returns a deep copy of the map.
func (p PressureMap) Clone() PressureMap {
	next := make(PressureMap, len(p))
	for characterID, secrets := range p {
		inner := make(map[string]int, len(secrets))
		for secretID, value := range secrets {
			inner[secretID] = value
		}
		next[characterID] = inner
	}
	return next
}

// UpdatePressures recalculates secret pressures from one full round of
// actions. For every unrevealed secret it scans every other character's
// combined text per trigger keyword: each match adds KeywordMatchDelta, or
// DirectAddressDelta when the acting character targets the secret holder.
// Sums are clamped into [0,100]. A holder with zero matches across the whole
// round instead has all of its pressures decayed by DecayPerRound (floor 0);
// any match anywhere suppresses decay for that holder. Revealed secrets are
// skipped entirely. The input map is never mutated.
func UpdatePressures(roundActions []ActionPack, characterSecrets map[string][]SecretEntry, current PressureMap) PressureMap {
	updated := current.Clone()

	type actionText struct {
		action ActionPack
		text   string
	}
	var texts []actionText
	for _, action := range roundActions {
		text := action.CombinedText()
		if text == "" {
			continue
		}
		texts = append(texts, actionText{action: action, text: text})
	}

	triggered := make(map[string]bool, len(characterSecrets))
	for characterID := range characterSecrets {
		triggered[characterID] = false
	}

	for characterID, secrets := range characterSecrets {
		for _, secret := range secrets {
			if secret.Revealed {
				continue
			}

			delta := 0
			for _, entry := range texts {
				if entry.action.CharacterID == characterID {
					continue
				}
				for _, keyword := range secret.Keywords {
					if keyword == "" || !strings.Contains(entry.text, keyword) {
						continue
					}
					matchDelta := KeywordMatchDelta
					if slices.Contains(entry.action.Targets, characterID) {
						matchDelta = DirectAddressDelta
					}
					delta += matchDelta
					triggered[characterID] = true
				}
			}

			if delta > 0 {
				if updated[characterID] == nil {
					updated[characterID] = make(map[string]int)
				}
				updated[characterID][secret.ID] = min(100, updated[characterID][secret.ID]+delta)
			}
		}
	}

	for characterID, wasTriggered := range triggered {
		if wasTriggered {
			continue
		}
		for secretID, value := range updated[characterID] {
			updated[characterID][secretID] = max(0, value-DecayPerRound)
		}
	}

	return updated
}

// PressureWarnings builds the per-character warning messages for unrevealed
// secrets whose pressure reached the threshold. Characters without a
// qualifying secret are absent from the result.
func PressureWarnings(pressures PressureMap, characterSecrets map[string][]SecretEntry, threshold int) map[string][]string {
	if threshold <= 0 {
		threshold = DefaultPressureThreshold
	}

	warnings := make(map[string][]string)
	for characterID, secretPressures := range pressures {
		var messages []string
		for _, secret := range characterSecrets[characterID] {
			if secret.Revealed {
				continue
			}
			if secretPressures[secret.ID] < threshold {
				continue
			}
			messages = append(messages, fmt.Sprintf(
				"关于「%s...」的秘密压力已达到临界点。对话正在触及你的敏感地带。你感到即将说漏嘴。",
				truncateRunes(secret.Description, 30),
			))
		}
		if len(messages) > 0 {
			warnings[characterID] = messages
		}
	}
	return warnings
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
