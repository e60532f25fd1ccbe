package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeplabs/sweepd/internal/logging"
)

var (
	indexForce   bool
	indexHTMLDir string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the strategy knowledge base",
	Long: `Convert PDF documents under knowledge.docs_dir to markdown, chunk
the markdown under knowledge.markdown_dir and load the chunks into the
vector store.

Examples:
  # Index new documents
  sweepd index

  # Rebuild from scratch
  sweepd index --force

  # Also convert a Sphinx HTML documentation tree first
  sweepd index --html pandas-docs/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd.Context())
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "rebuild the collection from scratch")
	indexCmd.Flags().StringVar(&indexHTMLDir, "html", "", "HTML documentation directory to convert before indexing")
}

func runIndex(ctx context.Context) error {
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

	indexer, _, store, err := buildKnowledge(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if indexHTMLDir != "" {
		result, err := indexer.Converter().ConvertHTMLDir(indexHTMLDir, cfg.Knowledge.MarkdownDir, indexForce)
		if err != nil {
			return fmt.Errorf("converting html: %w", err)
		}
		fmt.Printf("HTML converted: %d, skipped: %d, failed: %d\n",
			result.Converted, result.Skipped, result.Failed)
	}

	stats, err := indexer.Reindex(ctx, indexForce)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	if stats.Skipped {
		fmt.Println("Knowledge base already indexed; use --force to rebuild.")
		return nil
	}
	fmt.Printf("Indexed %d files into %d chunks.\n", stats.Files, stats.Chunks)
	return nil
}
