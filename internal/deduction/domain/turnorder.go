package domain

// NormalizeTurnOrder reconciles a proposed acting order against the active
// character set: ids outside the set are dropped, duplicates collapse to
// their first occurrence, and active characters missing from the proposal
// are appended in their original order. The result is always a permutation
// of active.
func NormalizeTurnOrder(proposed, active []string) []string {
	activeSet := make(map[string]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	order := make([]string, 0, len(active))
	seen := make(map[string]bool, len(active))
	for _, id := range proposed {
		if !activeSet[id] || seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
	}

	for _, id := range active {
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
	}

	return order
}
