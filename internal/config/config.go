package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Secret holds a credential loaded from the environment. It redacts
// itself when formatted so API keys never end up in CI logs.
type Secret string

// String implements fmt.Stringer. Always returns a redacted value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "Secret([REDACTED])"
}

// MarshalJSON implements json.Marshaler. Always returns a redacted value.
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("[REDACTED]")
}

// Value returns the actual secret value. Use sparingly.
func (s Secret) Value() string {
	return string(s)
}

// IsSet reports whether the secret has a non-empty value.
func (s Secret) IsSet() bool {
	return s != ""
}

// Config holds per-repo gate configuration from .prguard.toml.
// All fields are optional; a missing file means defaults.
type Config struct {
	// Model is the language model identifier.
	Model string `toml:"model"`

	// BaseURL overrides the model API endpoint
	// (any OpenAI-compatible server).
	BaseURL string `toml:"base_url"`

	// DiffBudgetBytes caps the normalized diff size sent to
	// the model.
	DiffBudgetBytes int `toml:"diff_budget_bytes"`

	// MinDiffBytes skips the gate entirely for diffs smaller
	// than this after normalization. Zero disables the check.
	MinDiffBytes int `toml:"min_diff_bytes"`

	// PromptOverride replaces the built-in question prompt
	// body. Passed through opaquely.
	PromptOverride string `toml:"prompt_override"`

	// Strictness is an opaque hint appended to the evaluation
	// prompt (e.g. "lenient", "strict").
	Strictness string `toml:"strictness"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:           "gpt-4o-mini",
		DiffBudgetBytes: 48000,
	}
}

// RepoConfigPath returns the path to the repo config file.
func RepoConfigPath(repoPath string) string {
	return filepath.Join(repoPath, ".prguard.toml")
}

// LoadRepoConfig loads .prguard.toml from the repo root, filling
// unset fields with defaults. A missing file is not an error.
func LoadRepoConfig(repoPath string) (*Config, error) {
	cfg := DefaultConfig()

	path := RepoConfigPath(repoPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	var loaded Config
	if _, err := toml.DecodeFile(path, &loaded); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if loaded.Model != "" {
		cfg.Model = loaded.Model
	}
	if loaded.BaseURL != "" {
		cfg.BaseURL = loaded.BaseURL
	}
	if loaded.DiffBudgetBytes > 0 {
		cfg.DiffBudgetBytes = loaded.DiffBudgetBytes
	}
	if loaded.MinDiffBytes > 0 {
		cfg.MinDiffBytes = loaded.MinDiffBytes
	}
	cfg.PromptOverride = loaded.PromptOverride
	cfg.Strictness = loaded.Strictness

	return cfg, nil
}

// ResolveModel determines the model to use based on priority:
// explicit flag, then PR_GUARD_MODEL env, then repo config.
func ResolveModel(explicit string, cfg *Config) string {
	if explicit != "" {
		return explicit
	}
	if m := os.Getenv("PR_GUARD_MODEL"); m != "" {
		return m
	}
	if cfg != nil && cfg.Model != "" {
		return cfg.Model
	}
	return DefaultConfig().Model
}

// OpenAIKey returns the model API key from PR_GUARD_OPENAI_API_KEY,
// falling back to OPENAI_API_KEY.
func OpenAIKey() (Secret, error) {
	if key := os.Getenv("PR_GUARD_OPENAI_API_KEY"); key != "" {
		return Secret(key), nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return Secret(key), nil
	}
	return "", fmt.Errorf(
		"no OpenAI API key found: set PR_GUARD_OPENAI_API_KEY " +
			"or OPENAI_API_KEY")
}

// GitHubToken returns the token used for the comment API.
func GitHubToken() (Secret, error) {
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		return Secret(tok), nil
	}
	return "", fmt.Errorf("GITHUB_TOKEN not set")
}
