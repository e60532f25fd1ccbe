package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/config"
	"github.com/sweeplabs/sweepd/internal/embeddings"
	"github.com/sweeplabs/sweepd/internal/httpserver"
	"github.com/sweeplabs/sweepd/internal/knowledge"
	"github.com/sweeplabs/sweepd/internal/llm"
	"github.com/sweeplabs/sweepd/internal/logging"
	"github.com/sweeplabs/sweepd/internal/pipeline"
	"github.com/sweeplabs/sweepd/internal/registry"
	"github.com/sweeplabs/sweepd/internal/vectorstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sweepd daemon",
	Long: `Start the HTTP server with the browser UI, the dataset API and the
knowledge base. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("starting sweepd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	indexer, retriever, store, err := buildKnowledge(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initial index is best-effort: the daemon serves datasets even when
	// the embedding endpoint is down, the pipeline just runs without
	// strategy context.
	if stats, err := indexer.Reindex(ctx, false); err != nil {
		logger.Warn("initial knowledge index unavailable", zap.Error(err))
	} else if !stats.Skipped {
		logger.Info("knowledge base indexed",
			zap.Int("files", stats.Files),
			zap.Int("chunks", stats.Chunks),
		)
	}

	if cfg.Knowledge.Watch {
		watcher, err := knowledge.NewWatcher(indexer, logger.Named("watcher"))
		if err != nil {
			return fmt.Errorf("initializing watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer watcher.Stop()
	}

	llmClient, err := llm.New(cfg.LLM, logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("initializing llm client: %w", err)
	}

	pipe, err := pipeline.NewService(llmClient, retriever, cfg.Datasets.HeadRows, logger.Named("pipeline"))
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}

	reg, err := registry.New("", logger.Named("registry"))
	if err != nil {
		return fmt.Errorf("initializing registry: %w", err)
	}
	defer reg.Close()

	server, err := httpserver.NewServer(httpserver.Options{
		Server:   cfg.Server,
		Datasets: cfg.Datasets,
		Registry: reg,
		Analyzer: pipe,
		Indexer:  indexer,
		Store:    store,
		Logger:   logger.Named("http"),
	})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildKnowledge wires embeddings, vector store, indexer and retriever
// for the serve, analyze and index commands.
func buildKnowledge(cfg *config.Config, logger *zap.Logger) (*knowledge.Indexer, *knowledge.Retriever, vectorstore.Store, error) {
	embedder, err := embeddings.NewService(cfg.Embeddings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing embeddings: %w", err)
	}

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       cfg.VectorStore.Path,
		Compress:   cfg.VectorStore.Compress,
		Collection: cfg.VectorStore.Collection,
		VectorSize: cfg.VectorStore.VectorSize,
	}, embedder, logger.Named("vectorstore"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing vector store: %w", err)
	}

	indexer := knowledge.NewIndexer(cfg.Knowledge, store, logger.Named("knowledge"))
	retriever := knowledge.NewRetriever(cfg.Retrieval, store, logger.Named("retriever"))
	return indexer, retriever, store, nil
}
