package parse

import (
	"reflect"
	"testing"
)

const conversionScript = `[OBJECTIVE_FACTS]
时空状态：劳勃叛乱后第九年，盛夏
物理状态：临冬城大厅，炉火正旺
交互基础：可对话，可动作
起始事件：国王一行抵达临冬城

[CHARACTER]
角色标识：艾德
核心身份认知：我是临冬城公爵，北境守护。
对此刻状况的私人理解：我必须弄清琼恩·艾林的死因。
个人本轮目标：
- 安抚国王
- 探听艾林之死的真相

[CHARACTER]
角色标识：劳勃国王
核心身份认知：我是七国之王。
对此刻状况的私人理解：我要让老友当我的首相。
个人本轮目标：
- 说服艾德南下

[ENDING_DIRECTION]
艾德接受首相之职

[PROTAGONISTS]
- 艾德
`

func TestParseInitializationFullScript(t *testing.T) {
	init := ParseInitialization(conversionScript)

	if init.Facts.SpaceTime != "劳勃叛乱后第九年，盛夏" {
		t.Fatalf("unexpected space-time fact: %q", init.Facts.SpaceTime)
	}
	if init.Facts.Environment != "临冬城大厅，炉火正旺" {
		t.Fatalf("unexpected environment fact: %q", init.Facts.Environment)
	}
	if init.Facts.InteractionBasis != "可对话，可动作" {
		t.Fatalf("unexpected interaction basis: %q", init.Facts.InteractionBasis)
	}
	if init.Facts.OpeningEvent != "国王一行抵达临冬城" {
		t.Fatalf("unexpected opening event: %q", init.Facts.OpeningEvent)
	}

	if len(init.Characters) != 2 {
		t.Fatalf("expected 2 characters, got %d", len(init.Characters))
	}
	ned := init.Characters[0]
	if ned.ID != "艾德" {
		t.Fatalf("unexpected character id: %q", ned.ID)
	}
	if ned.CoreIdentity != "我是临冬城公爵，北境守护。" {
		t.Fatalf("unexpected core identity: %q", ned.CoreIdentity)
	}
	if ned.PrivateUnderstanding != "我必须弄清琼恩·艾林的死因。" {
		t.Fatalf("unexpected private understanding: %q", ned.PrivateUnderstanding)
	}
	wantGoals := []string{"安抚国王", "探听艾林之死的真相"}
	if !reflect.DeepEqual(ned.Goals, wantGoals) {
		t.Fatalf("goals = %v, want %v", ned.Goals, wantGoals)
	}

	if init.EndingDirection != "艾德接受首相之职" {
		t.Fatalf("unexpected ending direction: %q", init.EndingDirection)
	}
	if !reflect.DeepEqual(init.Protagonists, []string{"艾德"}) {
		t.Fatalf("protagonists = %v, want [艾德]", init.Protagonists)
	}
}

func TestParseInitializationMissingFactsDefaultToUnknown(t *testing.T) {
	init := ParseInitialization("[OBJECTIVE_FACTS]\n时空状态：夜晚")

	if init.Facts.SpaceTime != "夜晚" {
		t.Fatalf("unexpected space-time fact: %q", init.Facts.SpaceTime)
	}
	for _, fact := range []string{init.Facts.Environment, init.Facts.InteractionBasis, init.Facts.OpeningEvent} {
		if fact != "未知" {
			t.Fatalf("missing fact should default to 未知, got %q", fact)
		}
	}
}

func TestParseInitializationChineseHeaders(t *testing.T) {
	text := "【客观事实】\n时间：清晨\n【角色】\n姓名：艾德\n身份：我是公爵。\n【主角】\n艾德"

	init := ParseInitialization(text)
	if init.Facts.SpaceTime != "清晨" {
		t.Fatalf("时间 should alias to the space-time fact, got %q", init.Facts.SpaceTime)
	}
	if len(init.Characters) != 1 || init.Characters[0].ID != "艾德" {
		t.Fatalf("unexpected characters: %v", init.Characters)
	}
	if init.Characters[0].CoreIdentity != "我是公爵。" {
		t.Fatalf("身份 should alias to core identity, got %q", init.Characters[0].CoreIdentity)
	}
	if !reflect.DeepEqual(init.Protagonists, []string{"艾德"}) {
		t.Fatalf("protagonists = %v, want [艾德]", init.Protagonists)
	}
}

func TestParseInitializationDropsBlocksWithoutID(t *testing.T) {
	text := "[CHARACTER]\n核心身份认知：我是无名氏。\n[CHARACTER]\n角色标识：艾德\n核心身份认知：我是公爵。"

	init := ParseInitialization(text)
	if len(init.Characters) != 1 {
		t.Fatalf("expected 1 character, got %d: %v", len(init.Characters), init.Characters)
	}
	if init.Characters[0].ID != "艾德" {
		t.Fatalf("unexpected character id: %q", init.Characters[0].ID)
	}
}

func TestParseInitializationSplitsMergedCharacterSection(t *testing.T) {
	text := "[CHARACTER]\n角色标识：艾德\n核心身份认知：我是公爵。\n角色标识：劳勃国王\n核心身份认知：我是国王。"

	init := ParseInitialization(text)
	if len(init.Characters) != 2 {
		t.Fatalf("expected 2 characters from one section, got %d", len(init.Characters))
	}
	if init.Characters[1].ID != "劳勃国王" {
		t.Fatalf("unexpected second character: %v", init.Characters[1])
	}
}

func TestParseInitializationEmptyText(t *testing.T) {
	init := ParseInitialization("")

	if init.Facts.SpaceTime != "未知" {
		t.Fatalf("expected default facts, got %v", init.Facts)
	}
	if len(init.Characters) != 0 {
		t.Fatalf("expected no characters, got %v", init.Characters)
	}
	if init.EndingDirection != "" || init.Protagonists != nil {
		t.Fatalf("expected empty direction and protagonists, got %q / %v", init.EndingDirection, init.Protagonists)
	}
}
