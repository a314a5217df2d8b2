package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultMatchesShippedPolicy(t *testing.T) {
	cfg := Default()
	if cfg.ApprovalTTL != 24*time.Hour {
		t.Errorf("expected 24h approval TTL, got %s", cfg.ApprovalTTL)
	}
	if cfg.KillCooldown != 30*time.Minute {
		t.Errorf("expected 30m kill cooldown, got %s", cfg.KillCooldown)
	}
	if cfg.WeeklyHighCap != 1 {
		t.Errorf("expected weekly HIGH cap of 1, got %d", cfg.WeeklyHighCap)
	}
	if cfg.Friction.Questions != 5 || cfg.Friction.Interventions != 3 ||
		cfg.Friction.Exceptions != 5 || cfg.Friction.Escalations != 1 {
		t.Errorf("unexpected friction thresholds: %+v", cfg.Friction)
	}
	want := []string{"money", "relation", "liability"}
	if len(cfg.Categories) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(cfg.Categories))
	}
	for i, name := range want {
		if cfg.Categories[i].Name != name {
			t.Errorf("category %d: expected %q, got %q", i, name, cfg.Categories[i].Name)
		}
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.WeeklyHighCap != 1 {
		t.Errorf("expected default cap, got %d", cfg.WeeklyHighCap)
	}
}

func TestLoadOverridesOnlyNamedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "approval_ttl: 48h\nfriction:\n  questions: 10\n  interventions: 3\n  exceptions: 5\n  escalations: 1\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, hash, err := LoadWithHash(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ApprovalTTL != 48*time.Hour {
		t.Errorf("expected overridden TTL 48h, got %s", cfg.ApprovalTTL)
	}
	if cfg.Friction.Questions != 10 {
		t.Errorf("expected overridden questions threshold 10, got %d", cfg.Friction.Questions)
	}
	if cfg.KillCooldown != 30*time.Minute {
		t.Errorf("unnamed field should keep default, got %s", cfg.KillCooldown)
	}
	if len(hash) == 0 || hash[:7] != "sha256:" {
		t.Errorf("expected sha256-prefixed config hash, got %q", hash)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("weekly_high_cap: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for zero weekly cap")
	}

	if err := os.WriteFile(path, []byte("approval_ttl: -1h\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative TTL")
	}
}

func TestLoadRejectsDuplicateCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "categories:\n  - name: money\n    keywords: [refund]\n  - name: money\n    keywords: [payment]\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for duplicate category name")
	}
}
