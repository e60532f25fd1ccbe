// Package pipeline runs the full dataset analysis: profile the data,
// retrieve strategy context, then chain the analyze, recommend and
// evaluate stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/agents"
	"github.com/sweeplabs/sweepd/internal/dataset"
)

var pipelineTracer = otel.Tracer("sweepd.pipeline")

// ErrNilProfile indicates a nil dataset profile was passed to the
// pipeline.
var ErrNilProfile = errors.New("dataset profile is nil")

// ContextRetriever supplies strategy context for a dataset description.
type ContextRetriever interface {
	StrategyContext(ctx context.Context, datasetQuery string) (string, error)
}

// Service orchestrates the analysis pipeline.
type Service struct {
	llm       agents.Completer
	retriever ContextRetriever
	headRows  int
	logger    *zap.Logger

	stageDuration metric.Float64Histogram
	runsTotal     metric.Int64Counter
}

// NewService creates a pipeline service. retriever may be nil, in which
// case stages run without strategy context.
func NewService(llm agents.Completer, retriever ContextRetriever, headRows int, logger *zap.Logger) (*Service, error) {
	if llm == nil {
		return nil, errors.New("llm completer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := otel.Meter("sweepd.pipeline")

	stageDuration, err := meter.Float64Histogram(
		"sweepd_pipeline_stage_duration_seconds",
		metric.WithDescription("Duration of pipeline stages"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage duration histogram: %w", err)
	}

	runsTotal, err := meter.Int64Counter(
		"sweepd_pipeline_runs_total",
		metric.WithDescription("Total pipeline runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	return &Service{
		llm:           llm,
		retriever:     retriever,
		headRows:      headRows,
		logger:        logger,
		stageDuration: stageDuration,
		runsTotal:     runsTotal,
	}, nil
}

// Run reads and profiles the dataset at path, then analyzes it.
// fileName overrides the display name; empty means the path basename.
func (s *Service) Run(ctx context.Context, path, fileName string) (*Report, error) {
	if fileName == "" {
		fileName = filepath.Base(path)
	}

	table, err := dataset.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	profile := dataset.NewProfile(table, fileName, s.headRows)
	return s.RunProfile(ctx, profile)
}

// RunProfile analyzes an already profiled dataset.
//
// Strategy retrieval failures degrade to an empty context so the run
// still completes; LLM stage failures abort the run.
func (s *Service) RunProfile(ctx context.Context, profile *dataset.Profile) (*Report, error) {
	if profile == nil {
		return nil, ErrNilProfile
	}

	ctx, span := pipelineTracer.Start(ctx, "Pipeline.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("dataset", profile.FileName),
		attribute.Int("rows", profile.Rows),
		attribute.Int("columns", profile.ColumnCount),
	)

	start := time.Now()
	report := &Report{
		ID:        uuid.NewString(),
		FileName:  profile.FileName,
		CreatedAt: start,
		Overview:  profile.OverviewMarkdown(),
	}

	summary := profile.Summary()

	report.StrategyContext = s.retrieveContext(ctx, profile)

	stages := []struct {
		name string
		run  func(ctx context.Context) (string, error)
		out  *string
	}{
		{
			name: "analyze",
			run: func(ctx context.Context) (string, error) {
				return agents.Analyze(ctx, s.llm, summary, report.StrategyContext)
			},
			out: &report.Analysis,
		},
		{
			name: "recommend",
			run: func(ctx context.Context) (string, error) {
				return agents.Recommend(ctx, s.llm, summary, report.Analysis, report.StrategyContext)
			},
			out: &report.Recommendations,
		},
		{
			name: "evaluate",
			run: func(ctx context.Context) (string, error) {
				return agents.Evaluate(ctx, s.llm, summary, report.Analysis, report.Recommendations, report.StrategyContext)
			},
			out: &report.Evaluation,
		},
	}

	for _, stage := range stages {
		stageStart := time.Now()
		out, err := s.runStage(ctx, stage.name, stage.run)
		elapsed := time.Since(stageStart)

		s.stageDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("stage", stage.name)))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
			s.logger.Error("pipeline stage failed",
				zap.String("stage", stage.name),
				zap.String("dataset", profile.FileName),
				zap.Error(err),
			)
			return nil, err
		}

		*stage.out = out
		report.Stages = append(report.Stages, StageTiming{
			Name:    stage.name,
			Elapsed: elapsed,
		})
	}

	report.Elapsed = time.Since(start)

	span.SetAttributes(attribute.Float64("elapsed_seconds", report.Elapsed.Seconds()))
	span.SetStatus(codes.Ok, "success")
	s.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))

	s.logger.Info("pipeline run complete",
		zap.String("report_id", report.ID),
		zap.String("dataset", profile.FileName),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (s *Service) runStage(ctx context.Context, name string, run func(ctx context.Context) (string, error)) (string, error) {
	ctx, span := pipelineTracer.Start(ctx, "Pipeline."+name)
	defer span.End()

	out, err := run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetStatus(codes.Ok, "success")
	return out, nil
}

// retrieveContext fetches strategy context, degrading to an empty
// string when the knowledge base or its embedding endpoint is
// unavailable.
func (s *Service) retrieveContext(ctx context.Context, profile *dataset.Profile) string {
	if s.retriever == nil {
		return ""
	}

	strategyContext, err := s.retriever.StrategyContext(ctx, strategyQuery(profile))
	if err != nil {
		s.logger.Warn("strategy retrieval unavailable, continuing without context",
			zap.String("dataset", profile.FileName),
			zap.Error(err),
		)
		return ""
	}
	return strategyContext
}

// strategyQuery condenses the profile into a retrieval query describing
// the dataset's characteristics and issues.
func strategyQuery(p *dataset.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dataset %s with %d rows and %d columns.\n", p.FileName, p.Rows, p.ColumnCount)
	if len(p.NumericColumns) > 0 {
		fmt.Fprintf(&b, "Numeric columns: %s.\n", strings.Join(p.NumericColumns, ", "))
	}
	if len(p.CategoricalColumns) > 0 {
		fmt.Fprintf(&b, "Categorical columns: %s.\n", strings.Join(p.CategoricalColumns, ", "))
	}
	if len(p.DatetimeColumns) > 0 {
		fmt.Fprintf(&b, "Datetime columns: %s.\n", strings.Join(p.DatetimeColumns, ", "))
	}

	if missing := p.MissingCells(); missing > 0 {
		var worst []string
		for _, col := range p.Columns {
			if col.Missing > 0 {
				worst = append(worst, fmt.Sprintf("%s (%.1f%%)", col.Name, col.MissingPct))
			}
		}
		fmt.Fprintf(&b, "Missing values in %d cells: %s.\n", missing, strings.Join(worst, ", "))
	}
	if p.Duplicates > 0 {
		fmt.Fprintf(&b, "%d duplicate rows.\n", p.Duplicates)
	}

	return strings.TrimSpace(b.String())
}
