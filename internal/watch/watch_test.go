package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCoordinator_ReingestsOnFileWrite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))

	var calls atomic.Int32
	c, err := NewCoordinator(root, func(_ context.Context, dir string, force bool) error {
		calls.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() { _ = c.Run(ctx) }()
	// Give the watcher time to start before mutating the tree.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package a\n"), 0o644))

	require.Eventually(t, func() bool {
		return calls.Load() > 0
	}, time.Second, 20*time.Millisecond)

	require.NoError(t, c.Stop())
}
