package config

import (
	"fmt"
	"os"
)

// Exit codes shared by command entry points. Configuration problems and
// workflow failures exit with distinct codes so wrappers can tell a bad
// environment apart from a run that went wrong.
const (
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitWorkflow      = 3
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	ExitCodef(ExitFailure, format, args...)
}

// ExitCodef writes a formatted error message to stderr and exits with the
// given code.
func ExitCodef(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
