package storage

import (
	"testing"

	"github.com/louisbranch/ludos/internal/deduction/domain"
)

func TestMemoryRecordText(t *testing.T) {
	record := MemoryRecord{
		SessionID:   "sess-1",
		CharacterID: "艾德",
		Stable:      "身份：艾德\n私人理解：劳勃喝醉了\n",
		Working:     "劳勃提到了史坦尼斯",
		SelfEval:    "艾德_goal_0: active | 尚未表态",
		Goals: []domain.CharacterGoal{
			{ID: "艾德_goal_0", Description: "安抚劳勃", Status: domain.GoalActive},
			{ID: "艾德_goal_1", Description: "守住信的内容"},
		},
		Secrets: []domain.SecretEntry{
			{ID: "艾德_secret_0", Description: "琼恩·艾林的信", Keywords: []string{"琼恩", "信"}},
		},
		Pressures:       map[string]int{"艾德_secret_1": 10, "艾德_secret_0": 45},
		PublicLogOffset: 512,
	}

	want := "[STATE]\n" +
		"last_public_offset=512\n" +
		"\n" +
		"[GOALS]\n" +
		"艾德_goal_0|active|安抚劳勃\n" +
		"艾德_goal_1|active|守住信的内容\n" +
		"\n" +
		"[SECRETS]\n" +
		"艾德_secret_0|琼恩,信|琼恩·艾林的信\n" +
		"\n" +
		"[PRESSURE]\n" +
		"艾德_secret_0=45\n" +
		"艾德_secret_1=10\n" +
		"\n" +
		"[STABLE]\n" +
		"身份：艾德\n私人理解：劳勃喝醉了\n" +
		"\n" +
		"[WORKING]\n" +
		"劳勃提到了史坦尼斯\n" +
		"\n" +
		"[SELF_EVAL]\n" +
		"艾德_goal_0: active | 尚未表态\n"

	if got := record.Text(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestMemoryRecordTextEmptySections(t *testing.T) {
	got := MemoryRecord{SessionID: "sess-1", CharacterID: "艾德"}.Text()

	want := "[STATE]\n" +
		"last_public_offset=0\n" +
		"\n" +
		"[GOALS]\n" +
		"\n" +
		"\n" +
		"[SECRETS]\n" +
		"\n" +
		"\n" +
		"[PRESSURE]\n" +
		"\n" +
		"\n" +
		"[STABLE]\n" +
		"\n" +
		"\n" +
		"[WORKING]\n" +
		"\n" +
		"\n" +
		"[SELF_EVAL]\n" +
		"\n"

	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}
