// Package engine runs the deduction loop: scene announcement, turn
// ordering, sequential character turns with validation and bounded retries,
// round assessment, pressure updates, and end detection.
//
// The loop is an explicit finite state machine. Each Step call executes one
// phase transition, so a run is auditable by inspection and resumable at
// round boundaries. A single engine instance owns its SimulationState; no
// locking, no sharing.
package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/storage"
	"github.com/louisbranch/ludos/internal/narrative/format"
	"github.com/louisbranch/ludos/internal/narrative/parse"
)

// Phase names one state of the deduction loop.
type Phase string

const (
	// PhaseAnnounceScene opens a round with the moderator's broadcast.
	PhaseAnnounceScene Phase = "announce_scene"
	// PhaseDetermineOrder fixes which character acts when this round.
	PhaseDetermineOrder Phase = "determine_order"
	// PhaseCharacterTurn executes one character decision per step until the
	// turn order is exhausted.
	PhaseCharacterTurn Phase = "character_turn"
	// PhaseAssessRound has the moderator judge the finished round.
	PhaseAssessRound Phase = "assess_round"
	// PhaseCheckEnd evaluates end conditions and checkpoints the round.
	PhaseCheckEnd Phase = "check_end"
	// PhaseDone marks a completed session.
	PhaseDone Phase = "done"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultMaxRounds  = 20
	DefaultMaxRetries = 2
)

// Config bounds a run.
type Config struct {
	// MaxRounds caps the session length; the cap itself lives in the
	// simulation state, this value only fills states that carry none.
	MaxRounds int
	// PressureThreshold is the pressure value at which a character starts
	// receiving secret-pressure warnings.
	PressureThreshold int
	// MaxRetries is how many times a failed validation re-invokes the
	// decision provider before the action commits as degraded.
	MaxRetries int
}

// DecisionRequest carries everything one character decision may draw on.
// It is assembled strictly from state the character is entitled to see.
type DecisionRequest struct {
	CharacterID string
	Round       int
	Turn        int

	SceneDescription string
	// VisibleActions holds this round's committed actions already filtered
	// to the character's perspective, inner reasoning stripped.
	VisibleActions    []domain.ActionPack
	PressureWarnings  []string
	LastInnerThoughts string

	Goals         []domain.CharacterGoal
	StableMemory  string
	WorkingMemory string
	// PublicDelta is the public journal text appended since the character
	// last read it.
	PublicDelta string

	// RetryFeedback names the previous attempt's validation problems; empty
	// on the first attempt.
	RetryFeedback string
}

// DecisionProvider produces a character's raw decision text.
type DecisionProvider interface {
	Decide(ctx context.Context, req DecisionRequest) (string, error)
}

// Moderator produces the scene-level judgements of a round.
type Moderator interface {
	AnnounceScene(ctx context.Context, facts domain.ObjectiveFacts, previousSummary string, events []string) (domain.SceneAnnouncement, error)
	ProposeTurnOrder(ctx context.Context, scene string, active []string, previousActions []domain.ActionPack) (domain.TurnOrderDecision, error)
	AssessRound(ctx context.Context, actions []domain.ActionPack, goals map[string][]domain.CharacterGoal, round, maxRounds int, endingDirection string) (domain.RoundAssessment, error)
}

// Recorder receives committed simulation output in order: scene broadcasts,
// actions, and round assessments.
type Recorder interface {
	RecordScene(ctx context.Context, round int, scene string) error
	RecordAction(ctx context.Context, action domain.ActionPack) error
	RecordAssessment(ctx context.Context, assessment domain.RoundAssessment) error
}

// Broadcast reads the public journal incrementally.
type Broadcast interface {
	ReadPublicDelta(offset int64) (string, int64, error)
}

// Dependencies are the engine's collaborators.
type Dependencies struct {
	Decider   DecisionProvider
	Moderator Moderator
	Memory    storage.MemoryStore
	Recorder  Recorder
	Broadcast Broadcast

	// Checkpoint, when set, receives a state snapshot after every completed
	// round.
	Checkpoint func(ctx context.Context, state domain.SimulationState) error

	// Parse turns raw decision text into a structured update. Nil uses
	// parse.ParseInteraction.
	Parse func(text string) parse.InteractionUpdate
	// Now supplies timestamps for memory writes. Nil uses time.Now.
	Now func() time.Time
}

// Engine drives one session's deduction loop.
type Engine struct {
	deps  Dependencies
	cfg   Config
	state domain.SimulationState
	phase Phase
}

// New builds an engine. Zero config fields take defaults; required
// dependencies must be set.
func New(deps Dependencies, cfg Config) (*Engine, error) {
	if deps.Decider == nil {
		return nil, errors.New("decision provider is required")
	}
	if deps.Moderator == nil {
		return nil, errors.New("moderator is required")
	}
	if deps.Memory == nil {
		return nil, errors.New("memory store is required")
	}
	if deps.Recorder == nil {
		return nil, errors.New("recorder is required")
	}
	if deps.Broadcast == nil {
		return nil, errors.New("broadcast reader is required")
	}
	if deps.Parse == nil {
		deps.Parse = parse.ParseInteraction
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.PressureThreshold <= 0 {
		cfg.PressureThreshold = domain.DefaultPressureThreshold
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Engine{deps: deps, cfg: cfg, phase: PhaseDone}, nil
}

// Restore loads a simulation state, fresh or from a checkpoint. A completed
// state stays done; anything else resumes at the next scene announcement,
// never mid-round.
func (e *Engine) Restore(state domain.SimulationState) {
	e.state = state.Clone()
	if e.state.MaxRounds <= 0 {
		e.state.MaxRounds = e.cfg.MaxRounds
	}
	if e.state.Complete {
		e.phase = PhaseDone
		return
	}
	e.phase = PhaseAnnounceScene
}

// Snapshot returns a deep copy of the current simulation state.
func (e *Engine) Snapshot() domain.SimulationState {
	return e.state.Clone()
}

// CurrentPhase reports where in the loop the engine stands.
func (e *Engine) CurrentPhase() Phase {
	return e.phase
}

// Run steps the loop until the session completes or a collaborator fails.
// Provider failures abort the run; cancellation surfaces as the context's
// error.
func (e *Engine) Run(ctx context.Context) error {
	for e.phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step executes a single phase transition.
func (e *Engine) Step(ctx context.Context) error {
	switch e.phase {
	case PhaseAnnounceScene:
		return e.announceScene(ctx)
	case PhaseDetermineOrder:
		return e.determineOrder(ctx)
	case PhaseCharacterTurn:
		return e.characterTurn(ctx)
	case PhaseAssessRound:
		return e.assessRound(ctx)
	case PhaseCheckEnd:
		return e.checkEnd(ctx)
	case PhaseDone:
		return nil
	}
	return fmt.Errorf("unknown phase %q", e.phase)
}

func (e *Engine) announceScene(ctx context.Context) error {
	round := e.state.Round + 1
	summary := format.RoundSummary(e.state.RoundActions)

	announcement, err := e.deps.Moderator.AnnounceScene(ctx, e.state.Facts, summary, e.state.EnvironmentalEvents)
	if err != nil {
		return fmt.Errorf("announce scene round %d: %w", round, err)
	}
	if announcement.Scene != "" {
		e.state.Scene = announcement.Scene
	}

	e.state.Round = round
	e.state.RoundActions = nil
	e.state.TurnIndex = 0
	e.state.EnvironmentalEvents = nil

	if err := e.deps.Recorder.RecordScene(ctx, round, e.state.Scene); err != nil {
		return fmt.Errorf("record scene round %d: %w", round, err)
	}
	e.phase = PhaseDetermineOrder
	return nil
}

func (e *Engine) determineOrder(ctx context.Context) error {
	prevRound := e.state.Round - 1
	var previous []domain.ActionPack
	for _, action := range e.state.ActionLog {
		if action.Round == prevRound {
			previous = append(previous, action)
		}
	}

	if len(previous) == 0 {
		// Nothing to order on yet: act in dossier order.
		e.state.TurnOrder = append([]string(nil), e.state.CharacterIDs...)
	} else {
		decision, err := e.deps.Moderator.ProposeTurnOrder(ctx, e.state.Scene, e.state.CharacterIDs, previous)
		if err != nil {
			return fmt.Errorf("determine turn order round %d: %w", e.state.Round, err)
		}
		e.state.TurnOrder = domain.NormalizeTurnOrder(decision.Order, e.state.CharacterIDs)
	}

	e.state.TurnIndex = 0
	e.phase = PhaseCharacterTurn
	return nil
}

func (e *Engine) characterTurn(ctx context.Context) error {
	if e.state.TurnIndex >= len(e.state.TurnOrder) {
		e.phase = PhaseAssessRound
		return nil
	}
	characterID := e.state.TurnOrder[e.state.TurnIndex]

	action, err := e.runTurn(ctx, characterID)
	if err != nil {
		return err
	}

	e.state.RoundActions = append(e.state.RoundActions, action)
	e.state.ActionLog = append(e.state.ActionLog, action)
	if e.state.LastInnerThoughts == nil {
		e.state.LastInnerThoughts = make(map[string]string)
	}
	e.state.LastInnerThoughts[characterID] = action.InnerReasoning

	if err := e.deps.Recorder.RecordAction(ctx, action); err != nil {
		return fmt.Errorf("record action of %s: %w", characterID, err)
	}
	e.state.TurnIndex++
	return nil
}

func (e *Engine) assessRound(ctx context.Context) error {
	// The moderator judges only the public projection of the round.
	public := make([]domain.ActionPack, len(e.state.RoundActions))
	for i, action := range e.state.RoundActions {
		action.InnerReasoning = ""
		public[i] = action
	}

	assessment, err := e.deps.Moderator.AssessRound(ctx, public, nil, e.state.Round, e.state.MaxRounds, e.state.EndingDirection)
	if err != nil {
		return fmt.Errorf("assess round %d: %w", e.state.Round, err)
	}
	assessment.Round = e.state.Round
	e.state.Assessments = append(e.state.Assessments, assessment)
	e.state.EnvironmentalEvents = append([]string(nil), assessment.SuggestedEvents...)

	if err := e.applyRoundPressure(ctx); err != nil {
		return err
	}
	if err := e.deps.Recorder.RecordAssessment(ctx, assessment); err != nil {
		return fmt.Errorf("record assessment round %d: %w", e.state.Round, err)
	}
	e.phase = PhaseCheckEnd
	return nil
}

func (e *Engine) applyRoundPressure(ctx context.Context) error {
	memories, err := e.deps.Memory.ListMemoriesBySession(ctx, e.state.SessionID)
	if err != nil {
		return fmt.Errorf("load memories: %w", err)
	}

	secrets := make(map[string][]domain.SecretEntry, len(memories))
	current := make(domain.PressureMap, len(memories))
	for _, memory := range memories {
		secrets[memory.CharacterID] = memory.Secrets
		current[memory.CharacterID] = memory.Pressures
	}

	updated := domain.UpdatePressures(e.state.RoundActions, secrets, current)
	for _, memory := range memories {
		next := updated[memory.CharacterID]
		if maps.Equal(memory.Pressures, next) {
			continue
		}
		memory.Pressures = next
		memory.UpdatedAt = e.deps.Now()
		if err := e.deps.Memory.PutMemory(ctx, memory); err != nil {
			return fmt.Errorf("save pressures for %s: %w", memory.CharacterID, err)
		}
	}
	return nil
}

func (e *Engine) checkEnd(ctx context.Context) error {
	memories, err := e.deps.Memory.ListMemoriesBySession(ctx, e.state.SessionID)
	if err != nil {
		return fmt.Errorf("load memories: %w", err)
	}
	goals := make(map[string][]domain.CharacterGoal, len(e.state.CharacterIDs))
	for _, id := range e.state.CharacterIDs {
		goals[id] = nil
	}
	for _, memory := range memories {
		goals[memory.CharacterID] = memory.Goals
	}

	var latest *domain.RoundAssessment
	if n := len(e.state.Assessments); n > 0 {
		latest = &e.state.Assessments[n-1]
	}

	shouldEnd, reason := domain.EvaluateEnd(e.state.Round, e.state.MaxRounds, goals, latest, e.state.Protagonists)
	if shouldEnd {
		e.state.Complete = true
		e.state.EndReason = reason
		e.phase = PhaseDone
	} else {
		e.phase = PhaseAnnounceScene
	}

	if e.deps.Checkpoint != nil {
		if err := e.deps.Checkpoint(ctx, e.Snapshot()); err != nil {
			return fmt.Errorf("checkpoint round %d: %w", e.state.Round, err)
		}
	}
	return nil
}

func joinViolations(violations []domain.LeakageViolation) string {
	lines := make([]string, len(violations))
	for i, v := range violations {
		lines[i] = v.String()
	}
	return strings.Join(lines, "; ")
}
