package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/govern"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run with config hot-reload",
	Long:  "Keeps an engine resident and hot-swaps governance parameters whenever\nthe config file changes. Blocks until interrupted.",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	reloader, err := govern.NewReloader(eng, path)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down watcher...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "watching %s for changes\n", path)
	return reloader.Run(ctx)
}
