// Package config holds the tunable governance parameters: approval TTL,
// kill cooldown, the weekly HIGH-decision cap, friction thresholds, the
// category taxonomy, and eligibility rules. Defaults encode the shipped
// policy; a YAML file overrides only the fields it names.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FrictionThresholds are the escalation trip points. Questions,
// interventions, and exceptions escalate only when exceeded; a single
// escalation signal is always enough.
type FrictionThresholds struct {
	Questions     int `yaml:"questions"`
	Interventions int `yaml:"interventions"`
	Exceptions    int `yaml:"exceptions"`
	Escalations   int `yaml:"escalations"`
}

// Category is one entry in the ordered taxonomy. Any keyword matching
// the approval's subject or action (substring, case-insensitive) places
// the approval in this category.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// EligibilityRules maps an action type to the subject statuses allowed
// to perform it. The "*" key is the fallback for unlisted action types.
// An action type mapped to an empty list is never eligible.
type EligibilityRules map[string][]string

// Config holds all configurable governance parameters.
type Config struct {
	ApprovalTTL   time.Duration      `yaml:"approval_ttl"`
	KillCooldown  time.Duration      `yaml:"kill_cooldown"`
	WeeklyHighCap int                `yaml:"weekly_high_cap"`
	Friction      FrictionThresholds `yaml:"friction"`
	Categories    []Category         `yaml:"categories"`
	Eligibility   EligibilityRules   `yaml:"eligibility"`
}

// Default returns the built-in governance config. The category order is
// load-bearing: first match wins, money before relation before liability.
func Default() *Config {
	return &Config{
		ApprovalTTL:   24 * time.Hour,
		KillCooldown:  30 * time.Minute,
		WeeklyHighCap: 1,
		Friction: FrictionThresholds{
			Questions:     5,
			Interventions: 3,
			Exceptions:    5,
			Escalations:   1,
		},
		Categories: []Category{
			{Name: "money", Keywords: []string{"refund", "payment", "discount"}},
			{Name: "relation", Keywords: []string{"teacher", "instructor", "relation"}},
			{Name: "liability", Keywords: []string{"claim", "liability", "legal", "safety"}},
		},
		Eligibility: EligibilityRules{
			"*": {"active"},
		},
	}
}

// DefaultDir returns the directory holding config, store, and audit log.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "decisiongate")
	}
	return filepath.Join(home, ".decisiongate")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads governance configuration from a YAML file.
// Empty path falls back to the default location. Missing file returns
// defaults. Invalid YAML returns an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads configuration and returns its SHA-256 hash for
// audit stamping. The hash covers the raw YAML bytes on disk; when no
// file exists (defaults used), it is the hash of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return Default(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, hash, nil
}

// Validate rejects configs that would disable invariants silently.
func (c *Config) Validate() error {
	if c.ApprovalTTL <= 0 {
		return fmt.Errorf("approval_ttl must be positive, got %s", c.ApprovalTTL)
	}
	if c.KillCooldown <= 0 {
		return fmt.Errorf("kill_cooldown must be positive, got %s", c.KillCooldown)
	}
	if c.WeeklyHighCap < 1 {
		return fmt.Errorf("weekly_high_cap must be at least 1, got %d", c.WeeklyHighCap)
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category with empty name")
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
	}
	return nil
}
