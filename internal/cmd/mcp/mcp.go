// Package mcp parses MCP command flags and serves the deduction session
// service over the Model Context Protocol.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/louisbranch/ludos/internal/agent"
	"github.com/louisbranch/ludos/internal/deduction/service"
	"github.com/louisbranch/ludos/internal/deduction/storage/sqlite"
	mcpservice "github.com/louisbranch/ludos/internal/mcp/service"
	entrypoint "github.com/louisbranch/ludos/internal/platform/cmd"
)

// Config holds MCP command configuration.
type Config struct {
	Agent agent.Config

	DBPath            string `env:"LUDOS_DB_PATH"            envDefault:"data/ludos.db"`
	LogDir            string `env:"LUDOS_LOG_DIR"            envDefault:"logs"`
	MaxRounds         int    `env:"LUDOS_MAX_ROUNDS"         envDefault:"20"`
	PressureThreshold int    `env:"LUDOS_PRESSURE_THRESHOLD" envDefault:"80"`
	Transport         string `env:"LUDOS_MCP_TRANSPORT"      envDefault:"stdio"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the sqlite session store")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "directory session journals are written under")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport type: stdio")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the deduction session service and serves it over MCP until the
// context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		client, err := agent.New(cfg.Agent)
		if err != nil {
			return err
		}

		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store at %s: %w", cfg.DBPath, err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		// Console stays unset: stdout belongs to the stdio transport.
		svc, err := service.New(service.Dependencies{
			Sessions:     store,
			Memory:       store,
			Interactions: store,
			Checkpoints:  store,
			Moderator:    agent.NewModerator(client),
			Decider:      agent.NewCharacter(client),
			Polisher:     agent.NewPolisher(client),
		}, service.Config{
			MaxRounds:         cfg.MaxRounds,
			PressureThreshold: cfg.PressureThreshold,
			LogDir:            cfg.LogDir,
		})
		if err != nil {
			return err
		}

		return mcpservice.Run(ctx, mcpservice.Config{
			Transport: mcpservice.TransportKind(cfg.Transport),
		}, svc)
	})
}
