package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterAppendsTrailingNewline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "session_x.public.log")
	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := writer.AppendLine("[场景：皇宫偏殿]"); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := writer.AppendLine("第二行\n"); err != nil {
		t.Fatalf("append second: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := "[场景：皇宫偏殿]\n第二行\n"
	if string(data) != want {
		t.Fatalf("log = %q, want %q", string(data), want)
	}
}

func TestNewWriterRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := NewWriter(" "); err == nil {
		t.Fatal("expected path error")
	}
}

func TestJournalPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := New(dir, "abc123")
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}

	if got, want := j.PublicPath(), filepath.Join(dir, "session_abc123.public.log"); got != want {
		t.Fatalf("public path = %q, want %q", got, want)
	}
	if got, want := j.CharacterPath("艾德"), filepath.Join(dir, "session_abc123_艾德.raw.log"); got != want {
		t.Fatalf("character path = %q, want %q", got, want)
	}
	if got := j.CharacterPath("a/b c"); !strings.HasSuffix(got, "session_abc123_a_b_c.raw.log") {
		t.Fatalf("unsafe character path = %q", got)
	}
}

func TestJournalAppendCharacter(t *testing.T) {
	t.Parallel()

	j, err := New(t.TempDir(), "s1")
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}

	line := `[角色-艾德] [说话] "陛下息怒。" [内心-私有]（艾德_不能暴露那封信）`
	if err := j.AppendCharacter("艾德", line); err != nil {
		t.Fatalf("append character: %v", err)
	}
	if err := j.AppendCharacter("艾德", "第二行"); err != nil {
		t.Fatalf("append character again: %v", err)
	}

	data, err := os.ReadFile(j.CharacterPath("艾德"))
	if err != nil {
		t.Fatalf("read raw log: %v", err)
	}
	if string(data) != line+"\n第二行\n" {
		t.Fatalf("raw log = %q", string(data))
	}
}

func TestReadPublicDelta(t *testing.T) {
	t.Parallel()

	j, err := New(t.TempDir(), "s1")
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}

	if err := j.AppendPublic("第一轮广播"); err != nil {
		t.Fatalf("append public: %v", err)
	}

	delta, offset, err := j.ReadPublicDelta(0)
	if err != nil {
		t.Fatalf("read delta: %v", err)
	}
	if delta != "第一轮广播\n" {
		t.Fatalf("delta = %q", delta)
	}
	if offset != int64(len("第一轮广播\n")) {
		t.Fatalf("offset = %d", offset)
	}

	// Nothing new yet: empty delta, offset unchanged.
	delta, again, err := j.ReadPublicDelta(offset)
	if err != nil {
		t.Fatalf("read empty delta: %v", err)
	}
	if delta != "" || again != offset {
		t.Fatalf("empty delta = %q, offset = %d", delta, again)
	}

	if err := j.AppendPublic("第二轮广播"); err != nil {
		t.Fatalf("append public again: %v", err)
	}
	delta, _, err = j.ReadPublicDelta(offset)
	if err != nil {
		t.Fatalf("read second delta: %v", err)
	}
	if delta != "第二轮广播\n" {
		t.Fatalf("second delta = %q", delta)
	}
}

func TestReadPublicDeltaMissingFile(t *testing.T) {
	t.Parallel()

	j, err := New(t.TempDir(), "s1")
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}

	delta, offset, err := j.ReadPublicDelta(42)
	if err != nil {
		t.Fatalf("read missing delta: %v", err)
	}
	if delta != "" {
		t.Fatalf("delta = %q, want empty", delta)
	}
	if offset != 42 {
		t.Fatalf("offset = %d, want unchanged 42", offset)
	}
}
