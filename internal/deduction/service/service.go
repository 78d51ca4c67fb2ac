// Package service orchestrates deduction sessions end to end: outline
// initialization, the round loop, and literary polishing. Every stage
// persists its results, so a stopped session resumes from its latest round
// checkpoint instead of starting over.
package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/ludos/internal/agent"
	"github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/engine"
	"github.com/louisbranch/ludos/internal/deduction/journal"
	"github.com/louisbranch/ludos/internal/deduction/storage"
	"github.com/louisbranch/ludos/internal/narrative/parse"
	"github.com/louisbranch/ludos/internal/platform/id"
)

// ModeratorAgent bundles the moderator duties the service needs: converting
// an outline during initialization plus the scene-level calls of the round
// loop.
type ModeratorAgent interface {
	ParseNarrative(ctx context.Context, outline string) (parse.Initialization, error)
	engine.Moderator
}

// PolisherAgent rewrites a finished session's raw log as narrative prose.
type PolisherAgent interface {
	Polish(ctx context.Context, rawLog string, dossiers []agent.MemoryDossier, sceneInfo string) (string, error)
}

// Config bounds the sessions the service starts.
type Config struct {
	// MaxRounds caps every new session's length.
	MaxRounds int
	// PressureThreshold is the pressure value at which characters start
	// receiving secret-pressure warnings.
	PressureThreshold int
	// MaxRetries bounds per-turn validation retries.
	MaxRetries int
	// LogDir is the directory session journals are written under.
	LogDir string
}

// Dependencies are the service's collaborators.
type Dependencies struct {
	Sessions     storage.SessionStore
	Memory       storage.MemoryStore
	Interactions storage.InteractionStore
	Checkpoints  storage.CheckpointStore

	Moderator ModeratorAgent
	Decider   engine.DecisionProvider
	Polisher  PolisherAgent

	// Console receives the incremental session transcript. Nil discards
	// it; transports that own stdout depend on that.
	Console io.Writer

	// NewID mints session and interaction identifiers. Nil uses id.NewID.
	NewID func() (string, error)
	// Now supplies timestamps. Nil uses time.Now.
	Now func() time.Time
}

// Service runs deduction sessions over injected stores and agents.
type Service struct {
	deps   Dependencies
	cfg    Config
	tracer trace.Tracer
}

// New builds a session service. Zero config fields take defaults; required
// dependencies must be set.
func New(deps Dependencies, cfg Config) (*Service, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Memory == nil {
		return nil, errors.New("memory store is required")
	}
	if deps.Interactions == nil {
		return nil, errors.New("interaction store is required")
	}
	if deps.Checkpoints == nil {
		return nil, errors.New("checkpoint store is required")
	}
	if deps.Moderator == nil {
		return nil, errors.New("moderator agent is required")
	}
	if deps.Decider == nil {
		return nil, errors.New("decision provider is required")
	}
	if deps.Polisher == nil {
		return nil, errors.New("polisher agent is required")
	}
	if deps.Console == nil {
		deps.Console = io.Discard
	}
	if deps.NewID == nil {
		deps.NewID = id.NewID
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = engine.DefaultMaxRounds
	}
	if cfg.PressureThreshold <= 0 {
		cfg.PressureThreshold = domain.DefaultPressureThreshold
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = engine.DefaultMaxRetries
	}
	if strings.TrimSpace(cfg.LogDir) == "" {
		cfg.LogDir = "logs"
	}
	return &Service{
		deps:   deps,
		cfg:    cfg,
		tracer: otel.Tracer("ludos/deduction"),
	}, nil
}

func (s *Service) journal(sessionID string) (*journal.Journal, error) {
	return journal.New(s.cfg.LogDir, sessionID)
}
