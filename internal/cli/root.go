package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/decisiongate/internal/audit"
	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/govern"
	"github.com/ppiankov/decisiongate/internal/storage"
)

var (
	configPath string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "decisiongate",
	Short: "Decision governance for semi-automated operations",
	Long:  "Gates requested actions through friction monitoring, approval categorization,\nand a weekly HIGH-cost budget. Automation proposes; decisiongate decides who signs off.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: ~/.decisiongate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "state directory (default: ~/.decisiongate)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func stateDir() string {
	if dataDir != "" {
		return dataDir
	}
	return config.DefaultDir()
}

// openEngine builds an engine backed by the shared store and decision
// log. The caller must invoke the returned cleanup.
func openEngine() (*govern.Engine, func(), error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, hash, err := config.LoadWithHash(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dir := stateDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	store, err := storage.Open(filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}
	log, err := audit.Open(filepath.Join(dir, "decisions.jsonl"))
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to open decision log: %w", err)
	}

	eng, err := govern.New(cfg,
		govern.WithStore(store),
		govern.WithAudit(log),
		govern.WithConfigHash(hash),
	)
	if err != nil {
		log.Close()
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		log.Close()
		store.Close()
	}
	return eng, cleanup, nil
}
