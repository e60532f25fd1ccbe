package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce batches bursts of filesystem events (editors write
// several times per save, PDF drops arrive in pieces) into one reindex.
const watchDebounce = 2 * time.Second

// Watcher reindexes the knowledge base when documents change on disk.
type Watcher struct {
	indexer *Indexer
	watcher *fsnotify.Watcher
	stop    chan struct{}
	logger  *zap.Logger
}

// NewWatcher creates a watcher over the indexer's docs and markdown
// directories.
func NewWatcher(indexer *Indexer, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	return &Watcher{
		indexer: indexer,
		watcher: fsw,
		stop:    make(chan struct{}),
		logger:  logger,
	}, nil
}

// Start begins watching and reindexing in a background goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range []string{w.indexer.cfg.DocsDir, w.indexer.cfg.MarkdownDir} {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	go w.run(ctx)

	w.logger.Info("knowledge watcher started",
		zap.String("docs_dir", w.indexer.cfg.DocsDir),
		zap.String("markdown_dir", w.indexer.cfg.MarkdownDir),
	)
	return nil
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *Watcher) run(ctx context.Context) {
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevantEvent(event) {
				continue
			}
			w.logger.Debug("knowledge document changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
				fire = debounce.C
			} else {
				debounce.Reset(watchDebounce)
			}
		case <-fire:
			debounce = nil
			fire = nil
			if _, err := w.indexer.Reindex(ctx, true); err != nil {
				w.logger.Error("watch-triggered reindex failed", zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", zap.Error(err))
		}
	}
}

// relevantEvent reports whether the event concerns an indexable
// document.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := strings.ToLower(event.Name)
	return strings.HasSuffix(name, ".pdf") || strings.HasSuffix(name, ".md")
}
