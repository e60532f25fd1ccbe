// Sweepd is a dataset cleaning daemon: it profiles tabular datasets,
// retrieves cleaning strategies from a local knowledge base and runs an
// LLM agent pipeline that analyzes data quality, recommends cleaning
// steps and evaluates them.
//
// Usage:
//
//	# Start the daemon with defaults
//	sweepd serve
//
//	# One-shot analysis of a dataset
//	GROQ_API_KEY=... sweepd analyze orders.csv
//
//	# Build the strategy knowledge base from memory/pdfs
//	sweepd index --force
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeplabs/sweepd/internal/config"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sweepd",
	Short: "Dataset cleaning agent daemon",
	Long: `sweepd profiles tabular datasets and runs an LLM agent pipeline that
analyzes data quality, recommends cleaning steps and evaluates the
resulting plan, grounded in a local RAG knowledge base of cleaning
strategy documents.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sweepd\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.config/sweepd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and validates configuration for a command run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
