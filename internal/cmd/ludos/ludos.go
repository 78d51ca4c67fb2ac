// Package ludos parses deduction CLI flags and runs a session end to end:
// outline in, round loop on the console, polished narrative out.
package ludos

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/louisbranch/ludos/internal/agent"
	deduction "github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/deduction/service"
	"github.com/louisbranch/ludos/internal/deduction/storage"
	"github.com/louisbranch/ludos/internal/deduction/storage/sqlite"
	entrypoint "github.com/louisbranch/ludos/internal/platform/cmd"
)

// Config holds deduction CLI configuration.
type Config struct {
	Agent agent.Config

	DBPath            string `env:"LUDOS_DB_PATH"            envDefault:"data/ludos.db"`
	LogDir            string `env:"LUDOS_LOG_DIR"            envDefault:"logs"`
	Language          string `env:"LUDOS_LANGUAGE"           envDefault:"zh-CN"`
	MaxRounds         int    `env:"LUDOS_MAX_ROUNDS"         envDefault:"20"`
	PressureThreshold int    `env:"LUDOS_PRESSURE_THRESHOLD" envDefault:"80"`

	// Input is the narrative outline file; empty reads stdin.
	Input     string
	SessionID string
	Output    string
	Health    bool
}

// ParseConfig parses environment and flags into a Config. The first
// positional argument names the outline file.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.SessionID, "session-id", "", "session ID for state persistence; an existing ID resumes that session")
	fs.StringVar(&cfg.Output, "output", "", "output file path for the combined narrative markdown")
	fs.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "maximum rounds before the session ends")
	fs.BoolVar(&cfg.Health, "health", false, "run health checks and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Input = fs.Arg(0)
	return cfg, nil
}

// HealthCheck reports environment readiness on out: configuration presence
// first, then provider connectivity. It returns true when every check
// passed.
func HealthCheck(ctx context.Context, cfg Config, out io.Writer) bool {
	return healthCheck(ctx, cfg, out, func(ctx context.Context, agentCfg agent.Config) error {
		client, err := agent.New(agentCfg)
		if err != nil {
			return err
		}
		return client.Ping(ctx)
	})
}

func healthCheck(ctx context.Context, cfg Config, out io.Writer, ping func(context.Context, agent.Config) error) bool {
	var issues []string
	if strings.TrimSpace(cfg.Agent.APIKey) == "" {
		issues = append(issues, "LLM_API_KEY not set")
	} else if err := ping(ctx, cfg.Agent); err != nil {
		issues = append(issues, fmt.Sprintf("LLM connectivity failed: %v", err))
	}

	if len(issues) > 0 {
		fmt.Fprintln(out, "Health check failed:")
		for _, issue := range issues {
			fmt.Fprintln(out, "- "+issue)
		}
		return false
	}
	fmt.Fprintln(out, "Health check OK")
	return true
}

// Run executes one deduction session end to end: read the outline, drive
// the round loop, polish, and print both narrative outputs on out.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	outline, err := readOutline(cfg.Input, in)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLudos, func(ctx context.Context) error {
		return run(ctx, cfg, outline, out)
	})
}

// readOutline resolves the narrative text from the input file when named,
// from in otherwise.
func readOutline(path string, in io.Reader) (string, error) {
	var text string
	switch {
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("file not found: %s", path)
			}
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		text = string(data)
	case in != nil:
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	default:
		return "", errors.New("narrative outline is required")
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty input")
	}
	return text, nil
}

func run(ctx context.Context, cfg Config, outline string, out io.Writer) error {
	if _, err := language.Parse(cfg.Language); err != nil {
		return fmt.Errorf("%w: invalid language tag %q: %v", deduction.ErrConfiguration, cfg.Language, err)
	}

	client, err := agent.New(cfg.Agent)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("%w: open store at %s: %v", deduction.ErrConfiguration, cfg.DBPath, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	svc, err := service.New(service.Dependencies{
		Sessions:     store,
		Memory:       store,
		Interactions: store,
		Checkpoints:  store,
		Moderator:    agent.NewModerator(client),
		Decider:      agent.NewCharacter(client),
		Polisher:     agent.NewPolisher(client),
		Console:      out,
	}, service.Config{
		MaxRounds:         cfg.MaxRounds,
		PressureThreshold: cfg.PressureThreshold,
		LogDir:            cfg.LogDir,
	})
	if err != nil {
		return err
	}

	record, err := svc.StartSession(ctx, outline, cfg.SessionID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrConflict) && cfg.SessionID != "":
		// An existing session id resumes from its latest checkpoint
		// instead of starting over.
		record, err = svc.GetSession(ctx, cfg.SessionID)
		if err != nil {
			return err
		}
	default:
		return err
	}

	if path, err := svc.PublicLogPath(record.ID); err == nil {
		fmt.Fprintf(out, "Public log path: %s\n", path)
	}

	if _, err := svc.RunDeduction(ctx, record.ID); err != nil {
		return err
	}
	rawLog, polished, err := svc.Polish(ctx, record.ID)
	if err != nil {
		return err
	}

	printResult(out, rawLog, polished)

	if cfg.Output != "" {
		if err := writeMarkdown(cfg.Output, rawLog, polished); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nOutput saved to: %s\n", cfg.Output)
	}
	return nil
}

// printResult writes the two framed narrative blocks the CLI always ends
// with.
func printResult(out io.Writer, rawLog, polished string) {
	divider := strings.Repeat("=", 60)

	fmt.Fprintln(out, "\n"+divider)
	fmt.Fprintln(out, "【原始交互日志】")
	fmt.Fprintln(out, divider)
	fmt.Fprintln(out, rawLog)

	fmt.Fprintln(out, "\n"+divider)
	fmt.Fprintln(out, "【润色叙事文本】")
	fmt.Fprintln(out, divider)
	fmt.Fprintln(out, polished)
}

// writeMarkdown saves both narrative outputs as one markdown document,
// creating parent directories as needed.
func writeMarkdown(path string, rawLog, polished string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	content := fmt.Sprintf("# 原始交互日志\n\n%s\n\n---\n\n# 润色叙事文本\n\n%s", rawLog, polished)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
