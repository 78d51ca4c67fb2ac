// Package format renders domain values as the Chinese prompt and log text
// the agents and console output use.
package format

import (
	"strings"

	"github.com/louisbranch/ludos/internal/deduction/domain"
)

// DossierText is a character dossier rendered as prompt-ready sections.
type DossierText struct {
	CharacterName        string
	CoreIdentity         string
	PrivateUnderstanding string
	GoalsList            string
	KnownInfo            string
}

// Dossier renders a dossier for injection into a character prompt. Achieved
// and failed goals carry a status mark; known info carries visibility tags
// and sources.
func Dossier(d domain.CharacterDossier) DossierText {
	var knownLines []string
	for _, info := range d.KnownInfo {
		knownLines = append(knownLines, taggedInfoLine(info))
	}

	var goalLines []string
	for _, g := range d.Goals {
		mark := ""
		switch g.Status {
		case domain.GoalAchieved:
			mark = " [已达成]"
		case domain.GoalFailed:
			mark = " [已失败]"
		}
		goalLines = append(goalLines, "  - "+g.Description+mark)
	}

	text := DossierText{
		CharacterName:        d.CharacterID,
		CoreIdentity:         d.CoreIdentity,
		PrivateUnderstanding: d.PrivateUnderstanding,
		GoalsList:            strings.Join(goalLines, "\n"),
		KnownInfo:            strings.Join(knownLines, "\n"),
	}
	if text.GoalsList == "" {
		text.GoalsList = "  （无明确目标）"
	}
	if text.KnownInfo == "" {
		text.KnownInfo = "  （无额外已知信息）"
	}
	return text
}

// VisibleActions renders the actions a character can perceive for its
// prompt.
func VisibleActions(actions []domain.ActionPack) string {
	if len(actions) == 0 {
		return "（尚无交互发生）"
	}

	var lines []string
	for _, a := range actions {
		parts := []string{"[" + a.CharacterID + "]"}
		if a.Kind.IncludesSpeech() && a.Spoken != "" {
			parts = append(parts, "说：\""+a.Spoken+"\"")
		}
		if includesAction(a.Kind) && a.Action != "" {
			parts = append(parts, "[动作] "+a.Action)
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// RoundSummary condenses a finished round's actions into the short recap the
// next scene announcement builds on. Spoken and action content are cut to 50
// runes per line. No actions render as "".
func RoundSummary(actions []domain.ActionPack) string {
	var lines []string
	for _, a := range actions {
		parts := []string{a.CharacterID}
		if a.Spoken != "" {
			parts = append(parts, "说：\""+firstRunes(a.Spoken, 50)+"\"")
		}
		if a.Action != "" {
			parts = append(parts, "["+firstRunes(a.Action, 50)+"]")
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// RawInteractionLog assembles the full 原始交互日志 for a scene: the scene
// header followed by one line per action, inner reasoning included.
func RawInteractionLog(actions []domain.ActionPack, scene string, dossiers map[string]domain.CharacterDossier) string {
	lines := []string{SceneHeader(scene) + "\n"}
	for _, a := range actions {
		lines = append(lines, ActionLine(a, dossiers))
	}
	return strings.Join(lines, "\n")
}

// SceneHeader renders the scene header line.
func SceneHeader(scene string) string {
	return "[场景：" + scene + "]"
}

// ActionLine renders one action in raw log style, with the actor's active
// goals and private inner reasoning.
func ActionLine(a domain.ActionPack, dossiers map[string]domain.CharacterDossier) string {
	line := PublicActionLine(a, dossiers)
	if a.InnerReasoning != "" {
		line += " [内心-私有]（" + a.CharacterID + "_" + a.InnerReasoning + "）"
	}
	return line
}

// PublicActionLine renders one action in raw log style without inner
// reasoning.
func PublicActionLine(a domain.ActionPack, dossiers map[string]domain.CharacterDossier) string {
	line := "[角色-" + a.CharacterID + "]" + goalAnnotation(a.CharacterID, dossiers)
	if includesAction(a.Kind) && a.Action != "" {
		line += " [动作] " + a.Action
	}
	if a.Kind.IncludesSpeech() && a.Spoken != "" {
		line += " [说话] \"" + a.Spoken + "\""
	}
	return line
}

// PressureWarning renders pressure warnings for injection into a character
// prompt. No warnings render as "".
func PressureWarning(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n⚠️ 【秘密压力警告】\n")
	for i, w := range warnings {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  - " + w)
	}
	b.WriteString("\n你感到秘密即将说漏。你是选择加倍隐瞒、巧妙转移话题，还是让某些东西泄露出来？这取决于你。\n")
	return b.String()
}

// TaggedInfos renders a list of tagged info items for display.
func TaggedInfos(infos []domain.TaggedInfo) string {
	if len(infos) == 0 {
		return "（无）"
	}
	lines := make([]string, 0, len(infos))
	for _, info := range infos {
		lines = append(lines, taggedInfoLine(info))
	}
	return strings.Join(lines, "\n")
}

func taggedInfoLine(info domain.TaggedInfo) string {
	line := "  [" + visibilityLabel(info.Visibility) + "] " + info.Content
	if info.Source != "" {
		line += "（来源：" + info.Source + "）"
	}
	return line
}

// visibilityLabel maps visibility tags onto the 公开/私有 labels the prompts
// describe.
func visibilityLabel(v domain.Visibility) string {
	switch v {
	case domain.VisibilityPublic:
		return "公开"
	case domain.VisibilityPrivate:
		return "私有"
	}
	return string(v)
}

func goalAnnotation(characterID string, dossiers map[string]domain.CharacterDossier) string {
	d, ok := dossiers[characterID]
	if !ok {
		return ""
	}
	var active []string
	for _, g := range d.Goals {
		if g.Status == domain.GoalActive {
			active = append(active, g.Description)
		}
	}
	if len(active) == 0 {
		return ""
	}
	return "（目标：" + strings.Join(active, "；") + "）"
}

func includesAction(k domain.InteractionKind) bool {
	return k == domain.KindAction || k == domain.KindComposite
}

func firstRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
