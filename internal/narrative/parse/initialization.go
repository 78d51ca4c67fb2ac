package parse

import (
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/domain"
)

// CharacterSheet is one character's dossier fields as written in a
// conversion script, before visibility tags and secrets are attached.
type CharacterSheet struct {
	ID                   string
	CoreIdentity         string
	PrivateUnderstanding string
	Goals                []string
}

// Initialization is the parsed form of a conversion script: the objective
// facts every character shares, the private character sheets, the ending
// direction, and the protagonist list.
type Initialization struct {
	Facts           domain.ObjectiveFacts
	Characters      []CharacterSheet
	EndingDirection string
	Protagonists    []string
}

// ParseInitialization reads a conversion script. Facts missing from the
// OBJECTIVE_FACTS section default to 未知; character blocks without a
// 角色标识 field are dropped.
func ParseInitialization(text string) Initialization {
	sections := splitSections(text)
	facts := parseKeyValues(sections["OBJECTIVE_FACTS"])

	init := Initialization{
		Facts: domain.ObjectiveFacts{
			SpaceTime:        factOr(facts, "时空状态"),
			Environment:      factOr(facts, "物理状态"),
			InteractionBasis: factOr(facts, "交互基础"),
			OpeningEvent:     factOr(facts, "起始事件"),
		},
		EndingDirection: strings.TrimSpace(sections["ENDING_DIRECTION"]),
		Protagonists:    parseList(sections["PROTAGONISTS"]),
	}

	for _, block := range splitRepeatedBlocks(text, "CHARACTER") {
		for _, sub := range splitCharacterSubblocks(block) {
			fields, goals := parseCharacterBlock(sub)
			id, ok := fields["角色标识"]
			if !ok {
				continue
			}
			init.Characters = append(init.Characters, CharacterSheet{
				ID:                   id,
				CoreIdentity:         fields["核心身份认知"],
				PrivateUnderstanding: fields["对此刻状况的私人理解"],
				Goals:                goals,
			})
		}
	}

	return init
}

func factOr(facts map[string]string, key string) string {
	if value, ok := facts[key]; ok {
		return value
	}
	return "未知"
}
