// Package parse turns half-structured model output into domain values.
//
// The half-structured format marks sections with bracketed headers such as
// [OBJECTIVE_FACTS] or 【角色】 and fills them with key-value lines and
// bullet lists. The readers here tolerate the drift chat models produce:
// dropped brackets, Chinese or English header variants, full-width
// separators, and prose wrapped around the payload.
package parse

import (
	"regexp"
	"strings"
)

var (
	sectionHeaderRE = regexp.MustCompile(`^[\[【]?\s*([A-Z0-9_\-\s]+)\s*[\]】]?\s*$`)
	headerNoiseRE   = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	inlineHeaderRE  = regexp.MustCompile(`[:：]\s*`)
	bracketNoiseRE  = regexp.MustCompile(`[【】\[\]\s]+`)
	fieldNoiseRE    = regexp.MustCompile(`[：:\s]+`)
	kvSeparatorRE   = regexp.MustCompile(`[:：=＝]`)
)

// sectionAliases maps squashed English header spellings onto canonical
// section names. Canonical names pass through untouched.
var sectionAliases = map[string]string{
	"OBJECTIVEFACTS":     "OBJECTIVE_FACTS",
	"OBJECTIVEFACT":      "OBJECTIVE_FACTS",
	"FACTS":              "OBJECTIVE_FACTS",
	"CHAR":               "CHARACTER",
	"CHARACTERS":         "CHARACTER",
	"ENDINGDIRECTION":    "ENDING_DIRECTION",
	"PROTAGONIST":        "PROTAGONISTS",
	"PROTAGONISTS":       "PROTAGONISTS",
	"SCENEDESCRIPTION":   "SCENE_DESCRIPTION",
	"PLOTHINT":           "PLOT_HINT",
	"TURNORDER":          "TURN_ORDER",
	"REASONING":          "REASONING",
	"SCENESUMMARY":       "SCENE_SUMMARY",
	"GOALASSESSMENTS":    "GOAL_ASSESSMENTS",
	"PACINGNOTES":        "PACING_NOTES",
	"SUGGESTEDEVENTS":    "SUGGESTED_EVENTS",
	"ENDINGDIRECTIONMET": "ENDING_DIRECTION_MET",
	"SHOULDEND":          "SHOULD_END",
	"ENDREASON":          "END_REASON",
}

var sectionAliasesCN = map[string]string{
	"客观事实":   "OBJECTIVE_FACTS",
	"客观信息":   "OBJECTIVE_FACTS",
	"场景事实":   "OBJECTIVE_FACTS",
	"角色":     "CHARACTER",
	"角色档案":   "CHARACTER",
	"角色信息":   "CHARACTER",
	"结局方向":   "ENDING_DIRECTION",
	"结局":     "ENDING_DIRECTION",
	"主角":     "PROTAGONISTS",
	"主角名单":   "PROTAGONISTS",
	"场景描述":   "SCENE_DESCRIPTION",
	"场景播报":   "SCENE_DESCRIPTION",
	"剧情提示":   "PLOT_HINT",
	"行动顺序":   "TURN_ORDER",
	"回合评估":   "SCENE_SUMMARY",
	"目标评估":   "GOAL_ASSESSMENTS",
	"节奏提示":   "PACING_NOTES",
	"建议事件":   "SUGGESTED_EVENTS",
	"是否达成结局": "ENDING_DIRECTION_MET",
	"是否结束":   "SHOULD_END",
	"结束原因":   "END_REASON",
}

// fieldAliases maps loose field spellings onto canonical dossier field
// names. Unknown fields keep their raw spelling.
var fieldAliases = map[string]string{
	"时空状态":       "时空状态",
	"时间状态":       "时空状态",
	"时间":         "时空状态",
	"空间":         "时空状态",
	"物理状态":       "物理状态",
	"环境":         "物理状态",
	"场景":         "物理状态",
	"交互基础":       "交互基础",
	"交互规则":       "交互基础",
	"起始事件":       "起始事件",
	"事件":         "起始事件",
	"角色标识":       "角色标识",
	"角色":         "角色标识",
	"姓名":         "角色标识",
	"核心身份认知":     "核心身份认知",
	"身份认知":       "核心身份认知",
	"身份":         "核心身份认知",
	"对此刻状况的私人理解": "对此刻状况的私人理解",
	"私人理解":       "对此刻状况的私人理解",
	"个人本轮目标":     "个人本轮目标",
	"本轮目标":       "个人本轮目标",
	"目标":         "个人本轮目标",
}

// splitSections carves text into named sections. A later section with the
// same name extends the earlier one.
func splitSections(text string) map[string]string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	sections := make(map[string]string)
	if text == "" {
		return sections
	}

	collected := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(text, "\n") {
		raw := strings.TrimSpace(line)
		if raw == "" {
			continue
		}

		header, remainder := normalizeInlineHeader(raw)
		if header != "" {
			current = header
			if _, ok := collected[current]; !ok {
				collected[current] = nil
			}
			if remainder != "" {
				collected[current] = append(collected[current], remainder)
			}
			continue
		}

		if current != "" {
			collected[current] = append(collected[current], raw)
		}
	}

	for name, lines := range collected {
		sections[name] = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return sections
}

// normalizeHeader resolves a full header line to its canonical section
// name, or "" when the line is not a header.
func normalizeHeader(raw string) string {
	match := sectionHeaderRE.FindStringSubmatch(raw)
	if match == nil {
		return ""
	}
	cleaned := strings.ToUpper(headerNoiseRE.ReplaceAllString(match[1], ""))
	if cleaned == "" {
		return ""
	}
	if canonical, ok := sectionAliases[cleaned]; ok {
		return canonical
	}
	return cleaned
}

// normalizeInlineHeader resolves a line to (header, remainder). It accepts
// full header lines, inline headers like "TURN_ORDER: a, b", and bare
// Chinese headers like 回合评估.
func normalizeInlineHeader(raw string) (string, string) {
	if header := normalizeHeader(raw); header != "" {
		return header, ""
	}

	parts := inlineHeaderRE.Split(raw, 2)
	if len(parts) == 2 {
		if header := normalizeHeader(strings.TrimSpace(parts[0])); header != "" {
			return header, strings.TrimSpace(parts[1])
		}
	}

	cleaned := bracketNoiseRE.ReplaceAllString(raw, "")
	if header, ok := sectionAliasesCN[cleaned]; ok {
		return header, ""
	}

	return "", ""
}

func normalizeField(raw string) string {
	key := fieldNoiseRE.ReplaceAllString(raw, "")
	if canonical, ok := fieldAliases[key]; ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}

// parseKeyValues reads "key: value" lines from a section body. Lines
// without a separator continue the previous value.
func parseKeyValues(block string) map[string]string {
	data := make(map[string]string)
	currentKey := ""
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if key, value, ok := splitKeyValue(line); ok {
			key = normalizeField(key)
			data[key] = value
			currentKey = key
			continue
		}
		if currentKey != "" {
			data[currentKey] = strings.TrimSpace(data[currentKey] + "\n" + line)
		}
	}
	return data
}

// parseList reads a section body as a list: one item per bullet line, comma
// separated items on plain lines.
func parseList(block string) []string {
	var items []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if stripped, ok := stripBullet(line); ok {
			items = append(items, stripped)
			continue
		}
		if strings.Contains(line, ",") {
			items = append(items, strings.Split(line, ",")...)
		} else {
			items = append(items, line)
		}
	}

	cleaned := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

func parseBool(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "yes", "y", "1", "是", "对":
		return true
	}
	return false
}

// stripBullet removes a single leading bullet marker. The second return
// reports whether the line was a bullet.
func stripBullet(line string) (string, bool) {
	for _, marker := range []string{"-", "•", "*"} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	return line, false
}

func hasKVSeparator(line string) bool {
	return strings.ContainsAny(line, ":：=＝")
}

// splitKey divides a line at its first separator. Lines without one return
// the whole trimmed line as the key.
func splitKey(line string) (string, string) {
	parts := kvSeparatorRE.Split(line, 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(line), ""
}

func splitKeyValue(line string) (string, string, bool) {
	parts := kvSeparatorRE.Split(line, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// splitRepeatedBlocks cuts text into blocks delimited by repeats of one
// header, e.g. one block per [CHARACTER]. A block ends at the next
// recognized section header, so trailing sections never leak into the last
// block. Text outside the blocks is ignored.
func splitRepeatedBlocks(text, header string) []string {
	header = strings.ToUpper(header)
	var blocks []string
	var current []string
	collecting := false

	flush := func() {
		if block := strings.TrimSpace(strings.Join(current, "\n")); block != "" {
			blocks = append(blocks, block)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		raw := strings.TrimSpace(line)
		if raw == "" {
			continue
		}
		normalized, remainder := normalizeInlineHeader(raw)
		if normalized == header {
			flush()
			collecting = true
			if remainder != "" {
				current = append(current, remainder)
			}
			continue
		}
		if normalized != "" {
			flush()
			collecting = false
			continue
		}
		if collecting {
			current = append(current, raw)
		}
	}
	flush()
	return blocks
}

// splitCharacterSubblocks divides a character block at each 角色标识 line,
// so several sheets inside one section parse separately.
func splitCharacterSubblocks(block string) []string {
	var subblocks []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		if sub := strings.TrimSpace(strings.Join(current, "\n")); sub != "" {
			subblocks = append(subblocks, sub)
		}
		current = nil
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, _ := splitKey(line)
		if normalizeField(key) == "角色标识" {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return subblocks
}

// parseCharacterBlock reads one character sheet. The goals field collects
// bullet lines until the next key-value line; plain lines inside the goals
// run extend the previous goal.
func parseCharacterBlock(block string) (map[string]string, []string) {
	fields := make(map[string]string)
	var goals []string
	inGoals := false
	currentKey := ""

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if key, _ := splitKey(line); normalizeField(key) == "个人本轮目标" {
			inGoals = true
			currentKey = ""
			if hasKVSeparator(line) {
				if _, value := splitKey(line); value != "" {
					goals = append(goals, value)
				}
			}
			continue
		}

		if inGoals {
			if stripped, ok := stripBullet(line); ok {
				goals = append(goals, stripped)
				continue
			}
		}

		if key, value, ok := splitKeyValue(line); ok {
			key = normalizeField(key)
			fields[key] = value
			currentKey = key
			inGoals = false
			continue
		}

		if inGoals && len(goals) > 0 {
			goals[len(goals)-1] = strings.TrimSpace(goals[len(goals)-1] + " " + line)
			continue
		}

		if currentKey != "" {
			fields[currentKey] = strings.TrimSpace(fields[currentKey] + "\n" + line)
		}
	}

	return fields, goals
}
