package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Model string `env:"CMD_TEST_MODEL" envDefault:"deepseek-reasoner"`
	Mode  string `env:"CMD_TEST_MODE" envDefault:"run"`
}

func TestParseConfigLayersEnvUnderFlags(t *testing.T) {
	t.Setenv("CMD_TEST_MODEL", "env-model")
	t.Setenv("CMD_TEST_MODE", "env-mode")

	var cfg testConfig
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Model, "model", cfg.Model, "model")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "mode")

	if err := ParseArgs(fs, []string{"-model", "flag-model"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.Model != "flag-model" {
		t.Errorf("Model = %q, want flag override", cfg.Model)
	}
	if cfg.Mode != "env-mode" {
		t.Errorf("Mode = %q, want env default", cfg.Mode)
	}
}

func TestParseConfigDefaultsWithoutEnv(t *testing.T) {
	var cfg testConfig
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	if cfg.Model != "deepseek-reasoner" {
		t.Errorf("Model = %q, want tag default", cfg.Model)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target to be rejected")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected nil parser to be rejected")
	}
}

func TestRunWithTelemetryValidatesInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceLudos, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	want := errors.New("run failed")
	err := RunWithTelemetry(context.Background(), ServiceLudos, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("RunWithTelemetry error = %v, want %v", err, want)
	}
}
