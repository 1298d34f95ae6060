package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider           string `toml:"provider"`
	Model              string `toml:"model"`
	TranscriptionModel string `toml:"transcription_model"`
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
}

type StoreConfig struct {
	Driver   string `toml:"driver"` // "memgraph" or "memory"
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// OpponentPrompts shape the automated opponent's argument generation. System
// takes (case type, side, party); Intro takes (side, party, case type);
// Instruction takes (stage label, side).
type OpponentPrompts struct {
	System       string `toml:"system"`
	Intro        string `toml:"intro"`
	QuotingRules string `toml:"quoting_rules"`
	Instruction  string `toml:"instruction"`
}

// AdjudicatorPrompts shape verdict generation. Verdict takes the assembled
// five-stage transcript block as its single argument.
type AdjudicatorPrompts struct {
	System  string `toml:"system"`
	Verdict string `toml:"verdict"`
}

type EngineConfig struct {
	RetryAttempts  int `toml:"retry_attempts"`
	RetryBackoffMs int `toml:"retry_backoff_ms"`
	LLMTimeoutSec  int `toml:"llm_timeout_seconds"`
}

type Config struct {
	LLM         LLMConfig          `toml:"llm"`
	Store       StoreConfig        `toml:"store"`
	Opponent    OpponentPrompts    `toml:"opponent"`
	Adjudicator AdjudicatorPrompts `toml:"adjudicator"`
	Engine      EngineConfig       `toml:"engine"`
}

// Load reads a TOML config file over the built-in defaults, so a partial file
// only overrides what it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}
