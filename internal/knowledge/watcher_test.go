package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcherStartStop(t *testing.T) {
	cfg := testKnowledgeConfig(t)
	ix := NewIndexer(cfg, &fakeStore{}, zap.NewNop())

	w, err := NewWatcher(ix, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))

	// Stop is idempotent.
	w.Stop()
	w.Stop()
}

func TestWatcherMissingDir(t *testing.T) {
	cfg := testKnowledgeConfig(t)
	cfg.DocsDir = cfg.DocsDir + "/does-not-exist"
	ix := NewIndexer(cfg, &fakeStore{}, zap.NewNop())

	w, err := NewWatcher(ix, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	require.Error(t, w.Start(context.Background()))
}
