// Package watch provides the incremental-reingest enrichment: it
// wraps internal/watcher's filesystem watcher and, on any batch of
// debounced file events, triggers an ingest through the facade, forced
// only when the batch holds a .gitignore or config-file change. This never changes ingestProject/verifyProject's semantics
// — it is additive convenience that calls them automatically instead
// of requiring a human or a cron job to.
package watch

import (
	"context"
	"log/slog"

	"github.com/aman-cerp/pingmem/internal/watcher"
)

// Coordinator watches rootDir and reingests it on every batch of
// filesystem changes fsnotify (or the polling fallback) reports.
type Coordinator struct {
	watcher *watcher.HybridWatcher
	ingest  func(ctx context.Context, projectDir string, forceReingest bool) error
	rootDir string
	logger  *slog.Logger
}

// NewCoordinator builds a Coordinator over rootDir. ingest is called
// with forceReingest=true only when a tracked .gitignore or
// .ping-mem.yaml change is observed (OpGitignoreChange/
// OpConfigChange), since those can change which files are even
// eligible, not just their content; every other batch calls ingest
// with forceReingest=false, relying on the orchestrator's own
// tree-hash comparison to skip a no-op rescan.
func NewCoordinator(rootDir string, ingest func(ctx context.Context, projectDir string, forceReingest bool) error, logger *slog.Logger) (*Coordinator, error) {
	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{watcher: w, ingest: ingest, rootDir: rootDir, logger: logger}, nil
}

// Run starts the watcher and blocks, reingesting on every batch of
// events until ctx is cancelled or Stop is called.
func (c *Coordinator) Run(ctx context.Context) error {
	go c.drainErrors()

	if err := c.watcher.Start(ctx, c.rootDir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case events, ok := <-c.watcher.Events():
			if !ok {
				return nil
			}
			c.handleBatch(ctx, events)
		}
	}
}

func (c *Coordinator) handleBatch(ctx context.Context, events []watcher.FileEvent) {
	force := false
	for _, e := range events {
		if e.Operation == watcher.OpGitignoreChange || e.Operation == watcher.OpConfigChange {
			force = true
			break
		}
	}

	c.logger.Info("watch_reingest_triggered",
		slog.Int("event_count", len(events)),
		slog.Bool("force", force))

	if err := c.ingest(ctx, c.rootDir, force); err != nil {
		c.logger.Error("watch_reingest_failed", slog.String("error", err.Error()))
	}
}

func (c *Coordinator) drainErrors() {
	for err := range c.watcher.Errors() {
		c.logger.Warn("watch_error", slog.String("error", err.Error()))
	}
}

// Stop stops the underlying watcher.
func (c *Coordinator) Stop() error {
	return c.watcher.Stop()
}
