package knowledge

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/config"
	"github.com/sweeplabs/sweepd/internal/vectorstore"
)

var retrieverTracer = otel.Tracer("sweepd.knowledge.retriever")

// strategyQueryPreamble frames every retrieval query so the embedding
// lands near strategy discussions rather than raw dataset text.
const strategyQueryPreamble = "Find relevant data cleaning strategies, best practices, and solutions " +
	"for datasets with similar characteristics and issues."

// perSourceCap limits how many snippets a single document may occupy in
// the context, so one large document does not crowd out the rest.
const perSourceCap = 2

// Retriever queries the knowledge base for cleaning strategies matching
// a dataset description.
type Retriever struct {
	store  vectorstore.Store
	cfg    config.RetrievalConfig
	logger *zap.Logger
}

// NewRetriever creates a retriever over the given store.
func NewRetriever(cfg config.RetrievalConfig, store vectorstore.Store, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// StrategyContext retrieves up to k strategy snippets for the given
// dataset description and formats them as "[source] snippet" blocks,
// truncated to max_chars at a line boundary.
//
// An empty knowledge base yields an empty string, not an error, so the
// analysis pipeline completes without strategy context.
func (r *Retriever) StrategyContext(ctx context.Context, datasetQuery string) (string, error) {
	ctx, span := retrieverTracer.Start(ctx, "Retriever.StrategyContext")
	defer span.End()

	count, err := r.store.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("counting documents: %w", err)
	}
	if count == 0 {
		span.SetStatus(codes.Ok, "empty knowledge base")
		return "", nil
	}

	query := strategyQueryPreamble + "\n\nDATASET CONTEXT:\n" + datasetQuery

	// Over-fetch so the per-source cap still leaves k snippets to pick
	// from.
	fetchK := r.cfg.FetchK
	if fetchK < r.cfg.K {
		fetchK = max(12, r.cfg.K*3)
	}

	results, err := r.store.Search(ctx, query, fetchK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("searching knowledge base: %w", err)
	}

	selected := selectDiverse(results, r.cfg.K)

	blocks := make([]string, 0, len(selected))
	for _, res := range selected {
		snippet := strings.TrimSpace(res.Content)
		if snippet == "" {
			continue
		}
		source := "unknown"
		if s, ok := res.Metadata["source"].(string); ok && s != "" {
			source = s
		}
		blocks = append(blocks, fmt.Sprintf("[%s] %s", source, snippet))
	}

	context := truncateAtLine(strings.Join(blocks, "\n\n"), r.cfg.MaxChars)

	span.SetAttributes(
		attribute.Int("results", len(selected)),
		attribute.Int("context_chars", len(context)),
	)
	span.SetStatus(codes.Ok, "success")

	r.logger.Debug("retrieved strategy context",
		zap.Int("snippets", len(blocks)),
		zap.Int("chars", len(context)),
	)
	return context, nil
}

// selectDiverse picks up to k results in score order, capping snippets
// per source, then fills remaining slots from the leftovers.
func selectDiverse(results []vectorstore.SearchResult, k int) []vectorstore.SearchResult {
	if k <= 0 {
		return nil
	}

	perSource := make(map[string]int)
	selected := make([]vectorstore.SearchResult, 0, k)
	var leftovers []vectorstore.SearchResult

	for _, res := range results {
		if len(selected) == k {
			break
		}
		source, _ := res.Metadata["source"].(string)
		if perSource[source] >= perSourceCap {
			leftovers = append(leftovers, res)
			continue
		}
		perSource[source]++
		selected = append(selected, res)
	}

	for _, res := range leftovers {
		if len(selected) == k {
			break
		}
		selected = append(selected, res)
	}
	return selected
}

// truncateAtLine cuts text to at most maxChars, dropping the final
// partial line so snippets are not cut mid-sentence.
func truncateAtLine(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if idx := strings.LastIndex(cut, "\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "\n"
}
