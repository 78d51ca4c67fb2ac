package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/ludos/internal/agent"
	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/engine"
	"github.com/louisbranch/ludos/internal/deduction/storage"
	"github.com/louisbranch/ludos/internal/deduction/storage/sqlite"
	"github.com/louisbranch/ludos/internal/narrative/parse"
)

const (
	robertDecision = "[INTERACTION]\n交互类型: composite\n说话: 这个家，还是我说了算。\n动作: 将茶杯重重放下\n内心: 我要让艾德知道我有多愤怒\n针对: 艾德\n"
	eddardDecision = "[INTERACTION]\n交互类型: speak\n说话: 陛下息怒，瓦雷利亚的事容后再议。\n内心: 劳勃的怒火必须先平息下来\n针对: 劳勃国王\n"
)

func twoCharacterInit() parse.Initialization {
	return parse.Initialization{
		Facts: domain.ObjectiveFacts{
			SpaceTime:        "临冬城大厅",
			Environment:      "炉火将熄",
			InteractionBasis: "面对面交谈",
			OpeningEvent:     "劳勃摔了茶杯",
		},
		Characters: []parse.CharacterSheet{
			{
				ID:                   "劳勃国王",
				CoreIdentity:         "我是七国之王劳勃。",
				PrivateUnderstanding: "我只信得过艾德，必须带他南下。",
				Goals:                []string{"让艾德答应出任首相"},
			},
			{
				ID:                   "艾德",
				CoreIdentity:         "我是临冬城公爵艾德。",
				PrivateUnderstanding: "我不能让任何人知道琼恩·艾林的信。",
				Goals:                []string{"弄清琼恩·艾林的死因", "守住家族"},
			},
		},
		EndingDirection: "艾德做出南下与否的决定",
		Protagonists:    []string{"艾德"},
	}
}

type stubModerator struct {
	init     parse.Initialization
	parseErr error

	scenes      []domain.SceneAnnouncement
	order       domain.TurnOrderDecision
	assessments []domain.RoundAssessment

	parseCalls    int
	announceCalls int
	orderCalls    int
	assessCalls   int
}

func (m *stubModerator) ParseNarrative(context.Context, string) (parse.Initialization, error) {
	m.parseCalls++
	if m.parseErr != nil {
		return parse.Initialization{}, m.parseErr
	}
	return m.init, nil
}

func (m *stubModerator) AnnounceScene(context.Context, domain.ObjectiveFacts, string, []string) (domain.SceneAnnouncement, error) {
	m.announceCalls++
	return popSticky(m.scenes, m.announceCalls), nil
}

func (m *stubModerator) ProposeTurnOrder(context.Context, string, []string, []domain.ActionPack) (domain.TurnOrderDecision, error) {
	m.orderCalls++
	return m.order, nil
}

func (m *stubModerator) AssessRound(context.Context, []domain.ActionPack, map[string][]domain.CharacterGoal, int, int, string) (domain.RoundAssessment, error) {
	m.assessCalls++
	return popSticky(m.assessments, m.assessCalls), nil
}

func popSticky[T any](queue []T, call int) T {
	var zero T
	if len(queue) == 0 {
		return zero
	}
	if call > len(queue) {
		return queue[len(queue)-1]
	}
	return queue[call-1]
}

type stubDecider struct {
	queues map[string][]string
	err    error
	calls  []engine.DecisionRequest
}

func (d *stubDecider) Decide(_ context.Context, req engine.DecisionRequest) (string, error) {
	d.calls = append(d.calls, req)
	if d.err != nil {
		return "", d.err
	}
	queue := d.queues[req.CharacterID]
	if len(queue) == 0 {
		return "", fmt.Errorf("no scripted decision for %s", req.CharacterID)
	}
	next := queue[0]
	if len(queue) > 1 {
		d.queues[req.CharacterID] = queue[1:]
	}
	return next, nil
}

type stubPolisher struct {
	output string
	err    error

	rawLog   string
	dossiers []agent.MemoryDossier
	scene    string
}

func (p *stubPolisher) Polish(_ context.Context, rawLog string, dossiers []agent.MemoryDossier, sceneInfo string) (string, error) {
	p.rawLog = rawLog
	p.dossiers = dossiers
	p.scene = sceneInfo
	if p.err != nil {
		return "", p.err
	}
	return p.output, nil
}

type fixture struct {
	service   *Service
	store     *sqlite.Store
	moderator *stubModerator
	decider   *stubDecider
	polisher  *stubPolisher
	console   *strings.Builder
	logDir    string
	now       time.Time
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	dir := t.TempDir()
	store, err := sqlite.Open(filepath.Join(dir, "ludos.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		store: store,
		moderator: &stubModerator{
			init: twoCharacterInit(),
			scenes: []domain.SceneAnnouncement{
				{Scene: "大厅里炉火将熄，两人隔桌对坐。"},
			},
			assessments: []domain.RoundAssessment{
				{
					SceneSummary: "劳勃摊牌，艾德沉默以对。",
					PacingNotes:  "对话停滞。",
					ShouldEnd:    true,
					EndReason:    "国王摊牌",
				},
			},
		},
		decider: &stubDecider{queues: map[string][]string{
			"劳勃国王": {robertDecision},
			"艾德":   {eddardDecision},
		}},
		polisher: &stubPolisher{output: "润色后的文本。"},
		console:  &strings.Builder{},
		logDir:   filepath.Join(dir, "logs"),
		now:      time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	}

	cfg.LogDir = f.logDir
	var ids int
	service, err := New(Dependencies{
		Sessions:     store,
		Memory:       store,
		Interactions: store,
		Checkpoints:  store,
		Moderator:    f.moderator,
		Decider:      f.decider,
		Polisher:     f.polisher,
		Console:      f.console,
		NewID: func() (string, error) {
			ids++
			return fmt.Sprintf("%08d%018d", ids, ids), nil
		},
		Now: func() time.Time { return f.now },
	}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.service = service
	return f
}

func TestNewMissingDependencies(t *testing.T) {
	t.Parallel()

	store := &sqlite.Store{}
	moderator := &stubModerator{}
	base := func() Dependencies {
		return Dependencies{
			Sessions:     store,
			Memory:       store,
			Interactions: store,
			Checkpoints:  store,
			Moderator:    moderator,
			Decider:      &stubDecider{},
			Polisher:     &stubPolisher{},
		}
	}

	tests := []struct {
		name  string
		strip func(*Dependencies)
	}{
		{"sessions", func(d *Dependencies) { d.Sessions = nil }},
		{"memory", func(d *Dependencies) { d.Memory = nil }},
		{"interactions", func(d *Dependencies) { d.Interactions = nil }},
		{"checkpoints", func(d *Dependencies) { d.Checkpoints = nil }},
		{"moderator", func(d *Dependencies) { d.Moderator = nil }},
		{"decider", func(d *Dependencies) { d.Decider = nil }},
		{"polisher", func(d *Dependencies) { d.Polisher = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps := base()
			tt.strip(&deps)
			if _, err := New(deps, Config{}); err == nil {
				t.Fatalf("New() without %s succeeded", tt.name)
			}
		})
	}
}

func TestStartSessionPersistsInitialization(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MaxRounds: 5})
	ctx := context.Background()

	record, err := f.service.StartSession(ctx, "国王劳勃到访临冬城。", "s1")
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	if record.ID != "s1" || record.Status != storage.SessionStatusRunning {
		t.Errorf("record = %s/%s, want s1/running", record.ID, record.Status)
	}
	if got, want := record.CharacterIDs, []string{"劳勃国王", "艾德"}; !slices.Equal(got, want) {
		t.Errorf("CharacterIDs = %q, want %q", got, want)
	}
	wantScene := "【时空】临冬城大厅\n【环境】炉火将熄\n【交互规则】面对面交谈\n【起始事件】劳勃摔了茶杯"
	if record.Scene != wantScene {
		t.Errorf("Scene = %q, want %q", record.Scene, wantScene)
	}
	if record.EndingDirection != "艾德做出南下与否的决定" {
		t.Errorf("EndingDirection = %q", record.EndingDirection)
	}
	if got, want := record.Protagonists, []string{"艾德"}; !slices.Equal(got, want) {
		t.Errorf("Protagonists = %q, want %q", got, want)
	}

	stored, err := f.service.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if stored.Outline != "国王劳勃到访临冬城。" {
		t.Errorf("stored outline = %q", stored.Outline)
	}

	memory, err := f.store.GetMemory(ctx, "s1", "艾德")
	if err != nil {
		t.Fatalf("GetMemory() error = %v", err)
	}
	wantStable := "身份：我是临冬城公爵艾德。\n" +
		"私人理解：我不能让任何人知道琼恩·艾林的信。\n" +
		"目标：弄清琼恩·艾林的死因, 守住家族\n" +
		"已知信息：时空状态:临冬城大厅\n物理状态:炉火将熄\n交互基础:面对面交谈\n起始事件:劳勃摔了茶杯\n" +
		"我是临冬城公爵艾德。\n我不能让任何人知道琼恩·艾林的信。"
	if memory.Stable != wantStable {
		t.Errorf("stable memory = %q, want %q", memory.Stable, wantStable)
	}
	if len(memory.Goals) != 2 || memory.Goals[0].ID != "艾德_goal_0" {
		t.Errorf("seeded goals = %+v", memory.Goals)
	}
	if len(memory.Secrets) != 1 || memory.Secrets[0].ID != "艾德_secret_1" {
		t.Errorf("seeded secrets = %+v", memory.Secrets)
	}
	if got := memory.Pressures["艾德_secret_1"]; got != 0 {
		t.Errorf("seeded pressure = %d, want 0", got)
	}

	checkpoint, err := f.store.GetLatestCheckpoint(ctx, "s1")
	if err != nil {
		t.Fatalf("GetLatestCheckpoint() error = %v", err)
	}
	if checkpoint.Round != 0 {
		t.Errorf("checkpoint round = %d, want 0", checkpoint.Round)
	}
	if checkpoint.State.MaxRounds != 5 {
		t.Errorf("checkpoint MaxRounds = %d, want 5", checkpoint.State.MaxRounds)
	}
	if checkpoint.State.Scene != wantScene {
		t.Errorf("checkpoint scene = %q", checkpoint.State.Scene)
	}
	if len(checkpoint.State.Dossiers) != 2 {
		t.Errorf("checkpoint dossiers = %d, want 2", len(checkpoint.State.Dossiers))
	}

	if _, err := f.service.StartSession(ctx, "同一个开场。", "s1"); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate StartSession() error = %v, want ErrConflict", err)
	}
}

func TestStartSessionGeneratesShortID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	record, err := f.service.StartSession(context.Background(), "国王到访。", "")
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if len(record.ID) != 8 {
		t.Errorf("generated session id = %q, want 8 characters", record.ID)
	}
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MaxRounds: 5})
	ctx := context.Background()

	result, err := f.service.Run(ctx, "国王劳勃到访临冬城。", "s1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	session := result.Session
	if session.Status != storage.SessionStatusComplete {
		t.Errorf("status = %q, want complete", session.Status)
	}
	if session.EndReason != "国王摊牌" {
		t.Errorf("end reason = %q, want 国王摊牌", session.EndReason)
	}
	if session.Scene != "大厅里炉火将熄，两人隔桌对坐。" {
		t.Errorf("final scene = %q", session.Scene)
	}

	if !strings.HasPrefix(result.RawLog, "[场景：大厅里炉火将熄，两人隔桌对坐。]\n") {
		t.Errorf("raw log header missing:\n%s", result.RawLog)
	}
	for _, want := range []string{
		"[角色-劳勃国王] [动作] 将茶杯重重放下 [说话] \"这个家，还是我说了算。\"",
		"[内心-私有]（劳勃国王_我要让艾德知道我有多愤怒）",
		"[角色-艾德] [说话] \"陛下息怒，瓦雷利亚的事容后再议。\"",
	} {
		if !strings.Contains(result.RawLog, want) {
			t.Errorf("raw log missing %q", want)
		}
	}
	if result.Polished != "润色后的文本。" {
		t.Errorf("polished = %q", result.Polished)
	}

	// The polisher reads the raw log, every character's serialized memory,
	// and the final scene.
	if f.polisher.rawLog != result.RawLog {
		t.Error("polisher received a different raw log")
	}
	if f.polisher.scene != "大厅里炉火将熄，两人隔桌对坐。" {
		t.Errorf("polisher scene = %q", f.polisher.scene)
	}
	if len(f.polisher.dossiers) != 2 {
		t.Fatalf("polisher dossiers = %d, want 2", len(f.polisher.dossiers))
	}
	if f.polisher.dossiers[0].CharacterID != "劳勃国王" {
		t.Errorf("dossier order = %q, want 劳勃国王 first", f.polisher.dossiers[0].CharacterID)
	}
	if !strings.Contains(f.polisher.dossiers[1].Content, "[STABLE]") ||
		!strings.Contains(f.polisher.dossiers[1].Content, "身份：我是临冬城公爵艾德。") {
		t.Errorf("dossier content missing memory sections:\n%s", f.polisher.dossiers[1].Content)
	}

	// The public journal backs the characters' broadcast deltas.
	publicLog, err := os.ReadFile(filepath.Join(f.logDir, "session_s1.public.log"))
	if err != nil {
		t.Fatalf("read public log: %v", err)
	}
	wantPublic := "[场景：大厅里炉火将熄，两人隔桌对坐。]\n" +
		"[角色-劳勃国王] [动作] 将茶杯重重放下 [说话] \"这个家，还是我说了算。\"\n" +
		"[角色-艾德] [说话] \"陛下息怒，瓦雷利亚的事容后再议。\"\n"
	if string(publicLog) != wantPublic {
		t.Errorf("public log = %q, want %q", publicLog, wantPublic)
	}

	rawLog, err := os.ReadFile(filepath.Join(f.logDir, "session_s1_劳勃国王.raw.log"))
	if err != nil {
		t.Fatalf("read character log: %v", err)
	}
	if !strings.Contains(string(rawLog), "[内心-私有]（劳勃国王_我要让艾德知道我有多愤怒）") {
		t.Errorf("character raw log missing inner reasoning:\n%s", rawLog)
	}

	if len(f.decider.calls) != 2 {
		t.Fatalf("decision calls = %d, want 2", len(f.decider.calls))
	}
	if got := f.decider.calls[0].PublicDelta; got != "[场景：大厅里炉火将熄，两人隔桌对坐。]\n" {
		t.Errorf("first delta = %q, want the scene header only", got)
	}
	if !strings.Contains(f.decider.calls[1].PublicDelta, "[角色-劳勃国王]") {
		t.Errorf("second delta missing the first action: %q", f.decider.calls[1].PublicDelta)
	}

	page, err := f.service.ListInteractions(ctx, "s1", 10, "", "")
	if err != nil {
		t.Fatalf("ListInteractions() error = %v", err)
	}
	if len(page.Interactions) != 2 {
		t.Fatalf("interactions = %d, want 2", len(page.Interactions))
	}
	first := page.Interactions[0]
	if first.CharacterID != "劳勃国王" || first.Round != 1 || first.Turn != 0 {
		t.Errorf("first interaction = %s r%d t%d", first.CharacterID, first.Round, first.Turn)
	}
	if first.Status != domain.ActionStatusClean {
		t.Errorf("first interaction status = %q, want clean", first.Status)
	}

	hits, err := f.service.SearchInteractions(ctx, "s1", "茶杯")
	if err != nil {
		t.Fatalf("SearchInteractions() error = %v", err)
	}
	if len(hits) != 1 || hits[0].CharacterID != "劳勃国王" {
		t.Errorf("search hits = %+v, want 劳勃国王's action", hits)
	}

	state, err := f.service.GetState(ctx, "s1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Complete || state.Round != 1 {
		t.Errorf("final state complete=%v round=%d, want true/1", state.Complete, state.Round)
	}

	console := f.console.String()
	for _, want := range []string{
		"【场景播报】\n大厅里炉火将熄，两人隔桌对坐。",
		"[劳勃国王] composite 这个家，还是我说了算。 将茶杯重重放下",
		"[艾德] speak 陛下息怒，瓦雷利亚的事容后再议。",
		"【回合评估】第1轮",
		"摘要：劳勃摊牌，艾德沉默以对。",
		"节奏：对话停滞。",
	} {
		if !strings.Contains(console, want) {
			t.Errorf("console transcript missing %q", want)
		}
	}
}

func TestRunDeductionSkipsRepeatedSceneHeader(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MaxRounds: 5})
	f.moderator.assessments = []domain.RoundAssessment{
		{SceneSummary: "对峙继续。", ShouldEnd: false},
		{SceneSummary: "僵局打破。", ShouldEnd: true, EndReason: "僵局打破"},
	}
	ctx := context.Background()

	if _, err := f.service.StartSession(ctx, "国王到访。", "s1"); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if _, err := f.service.RunDeduction(ctx, "s1"); err != nil {
		t.Fatalf("RunDeduction() error = %v", err)
	}

	publicLog, err := f.service.PublicLog("s1")
	if err != nil {
		t.Fatalf("PublicLog() error = %v", err)
	}
	if got := strings.Count(publicLog, "[场景："); got != 1 {
		t.Errorf("scene headers in public log = %d, want 1 (scene unchanged across rounds):\n%s", got, publicLog)
	}
	if got := strings.Count(f.console.String(), "【场景播报】"); got != 1 {
		t.Errorf("scene broadcasts on console = %d, want 1", got)
	}
	if f.moderator.orderCalls != 1 {
		t.Errorf("turn order calls = %d, want 1 (only the second round has history)", f.moderator.orderCalls)
	}
}

func TestRunDeductionFailureThenResume(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MaxRounds: 5})
	ctx := context.Background()

	if _, err := f.service.StartSession(ctx, "国王到访。", "s1"); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	f.decider.err = errors.New("provider down")
	if _, err := f.service.RunDeduction(ctx, "s1"); err == nil {
		t.Fatal("RunDeduction() with failing provider succeeded")
	}
	session, err := f.service.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if session.Status != storage.SessionStatusFailed {
		t.Errorf("status after failure = %q, want failed", session.Status)
	}

	f.decider.err = nil
	session, err = f.service.RunDeduction(ctx, "s1")
	if err != nil {
		t.Fatalf("RunDeduction() after recovery error = %v", err)
	}
	if session.Status != storage.SessionStatusComplete {
		t.Errorf("status after resume = %q, want complete", session.Status)
	}
	if session.EndReason != "国王摊牌" {
		t.Errorf("end reason = %q", session.EndReason)
	}
}

func TestRunDeductionCompletedSessionIsUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MaxRounds: 5})
	ctx := context.Background()

	if _, err := f.service.Run(ctx, "国王到访。", "s1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	announced := f.moderator.announceCalls

	session, err := f.service.RunDeduction(ctx, "s1")
	if err != nil {
		t.Fatalf("RunDeduction() on complete session error = %v", err)
	}
	if session.Status != storage.SessionStatusComplete {
		t.Errorf("status = %q, want complete", session.Status)
	}
	if f.moderator.announceCalls != announced {
		t.Errorf("announce calls grew from %d to %d on a completed session", announced, f.moderator.announceCalls)
	}
}

func TestPolishBeforeDeduction(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	ctx := context.Background()

	if _, err := f.service.StartSession(ctx, "国王到访。", "s1"); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	rawLog, polished, err := f.service.Polish(ctx, "s1")
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if !strings.HasPrefix(rawLog, "[场景：【时空】临冬城大厅") {
		t.Errorf("raw log = %q, want the initial facts scene", rawLog)
	}
	if polished != "润色后的文本。" {
		t.Errorf("polished = %q", polished)
	}
	if len(f.polisher.dossiers) != 2 {
		t.Errorf("polisher dossiers = %d, want 2", len(f.polisher.dossiers))
	}
}
