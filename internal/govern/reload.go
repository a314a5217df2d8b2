package govern

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/decisiongate/internal/config"
)

// Reloader watches the config file and hot-swaps governance parameters
// into a running engine.
type Reloader struct {
	watcher *fsnotify.Watcher
	engine  *Engine
	path    string
}

// NewReloader creates a file watcher for the given config path.
func NewReloader(engine *Engine, path string) (*Reloader, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}
	return &Reloader{watcher: watcher, engine: engine, path: path}, nil
}

// Run watches for file changes and reloads config. Blocks until ctx is
// cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after last write before reloading
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, r.reload)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "file watcher error: %v\n", err)
		}
	}
}

func (r *Reloader) reload() {
	cfg, hash, err := config.LoadWithHash(r.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hot-reload failed: %v\n", err)
		return
	}
	if err := r.engine.SetConfig(cfg, hash); err != nil {
		fmt.Fprintf(os.Stderr, "hot-reload rejected: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "hot-reload: config %s applied\n", hash)
}
