package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeplabs/sweepd/internal/llm"
	"github.com/sweeplabs/sweepd/internal/logging"
	"github.com/sweeplabs/sweepd/internal/pipeline"
)

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dataset>",
	Short: "Run the analysis pipeline over a dataset",
	Long: `Run the full pipeline (profile, retrieve strategies, analyze,
recommend, evaluate) over a local dataset file and print the combined
markdown report.

Examples:
  # Report to stdout
  sweepd analyze orders.csv

  # Report to a file
  sweepd analyze orders.xlsx -o report.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), args[0])
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "",
		"write the report to a file instead of stdout")
}

func runAnalyze(ctx context.Context, path string) error {
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

	// The knowledge base is optional for one-shot runs: without it the
	// pipeline runs with no strategy context.
	var retriever pipeline.ContextRetriever
	if indexer, r, store, err := buildKnowledge(cfg, logger); err == nil {
		defer store.Close()
		if _, err := indexer.Reindex(ctx, false); err == nil {
			retriever = r
		}
	}

	llmClient, err := llm.New(cfg.LLM, logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("initializing llm client: %w", err)
	}

	pipe, err := pipeline.NewService(llmClient, retriever, cfg.Datasets.HeadRows, logger.Named("pipeline"))
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}

	report, err := pipe.Run(ctx, path, "")
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", path, err)
	}

	if analyzeOutput != "" {
		if err := os.WriteFile(analyzeOutput, []byte(report.Markdown()), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", analyzeOutput)
		return nil
	}

	fmt.Print(report.Markdown())
	return nil
}
