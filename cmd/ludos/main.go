// Package main provides the deduction session CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ludoscmd "github.com/louisbranch/ludos/internal/cmd/ludos"
	deduction "github.com/louisbranch/ludos/internal/deduction/domain"
	"github.com/louisbranch/ludos/internal/platform/config"
)

func main() {
	cfg, err := ludoscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Health {
		if !ludoscmd.HealthCheck(ctx, cfg, os.Stdout) {
			os.Exit(1)
		}
		return
	}

	if cfg.Input == "" && stdinIsTerminal() {
		fmt.Fprintln(os.Stderr, "Error: Please provide a narrative outline file or pipe text to stdin.")
		fmt.Fprintln(os.Stderr, "Usage: ludos [flags] <input_file>")
		os.Exit(1)
	}

	if err := ludoscmd.Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		switch {
		case errors.Is(err, deduction.ErrConfiguration):
			config.ExitCodef(config.ExitConfiguration, "Error: %v", err)
		case errors.Is(err, deduction.ErrWorkflow):
			config.ExitCodef(config.ExitWorkflow, "Error: %v", err)
		default:
			config.Exitf("Error: %v", err)
		}
	}
}

// stdinIsTerminal reports whether stdin is an interactive terminal rather
// than a pipe or redirected file.
func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
