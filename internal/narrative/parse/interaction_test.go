package parse

import (
	"reflect"
	"testing"

	"github.com/louisbranch/ludos/internal/deduction/domain"
)

const decisionOutput = `[INTERACTION]
交互类型: composite
说话: 你还记得琼恩·艾林吗？
动作: 放下酒杯，盯着对面的人
内心: 我要看他的反应。
针对: 艾德, 瑟曦

[MEMORY_APPEND]
- 艾德听到艾林的名字时僵住了
- 大厅里安静得出奇

[MEMORY_SUMMARY]
我在试探艾德，他有所隐瞒。

[SELF_EVAL]
劳勃国王_goal_0: active | 还没有得到答案
劳勃国王_goal_1: achieved
`

func TestParseInteractionFullOutput(t *testing.T) {
	got := ParseInteraction(decisionOutput)

	if got.Kind != domain.KindComposite {
		t.Fatalf("kind = %q, want composite", got.Kind)
	}
	if got.Spoken != "你还记得琼恩·艾林吗？" {
		t.Fatalf("unexpected spoken content: %q", got.Spoken)
	}
	if got.Action != "放下酒杯，盯着对面的人" {
		t.Fatalf("unexpected action content: %q", got.Action)
	}
	if got.Inner != "我要看他的反应。" {
		t.Fatalf("unexpected inner reasoning: %q", got.Inner)
	}
	if want := []string{"艾德", "瑟曦"}; !reflect.DeepEqual(got.Targets, want) {
		t.Fatalf("targets = %v, want %v", got.Targets, want)
	}

	wantAppend := []string{"艾德听到艾林的名字时僵住了", "大厅里安静得出奇"}
	if !reflect.DeepEqual(got.MemoryAppend, wantAppend) {
		t.Fatalf("memory append = %v, want %v", got.MemoryAppend, wantAppend)
	}
	if got.MemorySummary != "我在试探艾德，他有所隐瞒。" {
		t.Fatalf("unexpected memory summary: %q", got.MemorySummary)
	}

	wantEval := []SelfEvaluation{
		{GoalID: "劳勃国王_goal_0", Status: "active", Note: "还没有得到答案"},
		{GoalID: "劳勃国王_goal_1", Status: "achieved", Note: ""},
	}
	if !reflect.DeepEqual(got.SelfEval, wantEval) {
		t.Fatalf("self eval = %v, want %v", got.SelfEval, wantEval)
	}
}

func TestParseInteractionInfersMissingKind(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.InteractionKind
	}{
		{"spoken only", "[INTERACTION]\n说话: 你好", domain.KindSpeak},
		{"action only", "[INTERACTION]\n动作: 拔剑", domain.KindAction},
		{"both", "[INTERACTION]\n说话: 站住\n动作: 拔剑", domain.KindComposite},
		{"neither", "[INTERACTION]\n内心: 再等等", domain.KindSpeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseInteraction(tt.text); got.Kind != tt.want {
				t.Fatalf("kind = %q, want %q", got.Kind, tt.want)
			}
		})
	}
}

func TestParseInteractionKeepsInvalidKindForValidation(t *testing.T) {
	got := ParseInteraction("[INTERACTION]\n交互类型: 唱歌\n说话: 啦啦啦")

	if got.Kind != domain.InteractionKind("唱歌") {
		t.Fatalf("kind = %q, want it kept as written", got.Kind)
	}
	if got.Kind.Valid() {
		t.Fatal("唱歌 must not count as a valid kind")
	}
}

func TestParseInteractionMemoryAppendStripsBulletRuns(t *testing.T) {
	got := ParseInteraction("[MEMORY_APPEND]\n-- 两个破折号\n艾德走了")

	want := []string{"两个破折号", "艾德走了"}
	if !reflect.DeepEqual(got.MemoryAppend, want) {
		t.Fatalf("memory append = %v, want %v", got.MemoryAppend, want)
	}
}

func TestParseInteractionSelfEvalSkipsLinesWithoutColon(t *testing.T) {
	got := ParseInteraction("[SELF_EVAL]\n没有冒号的行\n艾德_goal_0: failed | 来不及了")

	if len(got.SelfEval) != 1 {
		t.Fatalf("expected 1 self evaluation, got %v", got.SelfEval)
	}
	if got.SelfEval[0].Status != "failed" {
		t.Fatalf("unexpected status: %q", got.SelfEval[0].Status)
	}
}

func TestParseInteractionMissingBlocks(t *testing.T) {
	got := ParseInteraction("这不是协议输出。")

	if got.Kind != domain.KindSpeak {
		t.Fatalf("empty interaction should infer speak, got %q", got.Kind)
	}
	if got.Spoken != "" || got.Action != "" || got.Inner != "" {
		t.Fatalf("expected empty content fields, got %+v", got)
	}
	if got.MemoryAppend != nil || got.MemorySummary != "" || got.SelfEval != nil || got.Targets != nil {
		t.Fatalf("expected empty protocol fields, got %+v", got)
	}
}
