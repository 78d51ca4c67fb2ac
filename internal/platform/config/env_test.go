package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Rounds int `env:"LUDOS_TEST_ROUNDS" envDefault:"20"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Rounds != 20 {
		t.Fatalf("expected default rounds 20, got %d", cfg.Rounds)
	}
}

func TestParseEnvOverride(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("LUDOS_TEST_ROUNDS", "7")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Rounds != 7 {
		t.Fatalf("expected overridden rounds 7, got %d", cfg.Rounds)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("LUDOS_TEST_ROUNDS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
