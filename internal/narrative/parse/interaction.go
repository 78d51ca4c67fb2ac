package parse

import (
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/domain"
)

// SelfEvaluation is one goal judgement a character makes about itself at
// the end of its turn.
type SelfEvaluation struct {
	GoalID string
	Status string
	Note   string
}

// InteractionUpdate is a character turn as the model wrote it: the
// interaction fields plus the memory-protocol blocks that update the
// character's private state.
type InteractionUpdate struct {
	Kind          domain.InteractionKind
	Spoken        string
	Action        string
	Inner         string
	Targets       []string
	MemoryAppend  []string
	MemorySummary string
	SelfEval      []SelfEvaluation
}

// ParseInteraction reads a character decision written in the block
// protocol: an [INTERACTION] block with 交互类型/说话/动作/内心/针对 fields,
// then optional [MEMORY_APPEND], [MEMORY_SUMMARY], and [SELF_EVAL] blocks.
// A missing 交互类型 is inferred from which content fields are filled; a
// present but unrecognized one is kept as written so validation can reject
// it.
func ParseInteraction(text string) InteractionUpdate {
	interaction := extractBlock(text, "INTERACTION")

	update := InteractionUpdate{
		Spoken:        extractField(interaction, "说话"),
		Action:        extractField(interaction, "动作"),
		Inner:         extractField(interaction, "内心"),
		MemorySummary: extractBlock(text, "MEMORY_SUMMARY"),
	}

	if kind := extractField(interaction, "交互类型"); kind != "" {
		update.Kind = domain.InteractionKind(kind)
	} else {
		update.Kind = domain.InferKind(update.Spoken, update.Action)
	}

	if raw := extractField(interaction, "针对"); raw != "" {
		for _, target := range strings.Split(raw, ",") {
			if target = strings.TrimSpace(target); target != "" {
				update.Targets = append(update.Targets, target)
			}
		}
	}

	for _, line := range strings.Split(extractBlock(text, "MEMORY_APPEND"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		update.MemoryAppend = append(update.MemoryAppend, strings.TrimSpace(strings.TrimLeft(line, "- ")))
	}

	for _, line := range strings.Split(extractBlock(text, "SELF_EVAL"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		goalID, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		status, note, _ := strings.Cut(rest, "|")
		update.SelfEval = append(update.SelfEval, SelfEvaluation{
			GoalID: strings.TrimSpace(goalID),
			Status: strings.TrimSpace(status),
			Note:   strings.TrimSpace(note),
		})
	}

	return update
}

// extractBlock returns the text between "[name]" and the next opening
// bracket, trimmed. Missing blocks return "".
func extractBlock(text, name string) string {
	marker := "[" + name + "]"
	start := strings.Index(text, marker)
	if start == -1 {
		return ""
	}
	start += len(marker)
	end := strings.Index(text[start:], "[")
	if end == -1 {
		return strings.TrimSpace(text[start:])
	}
	return strings.TrimSpace(text[start : start+end])
}

// extractField returns the value of a "field: value" line inside a block.
// The field name must start the line; the separator is an ASCII colon.
func extractField(block, field string) string {
	prefix := field + ":"
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return ""
}
