package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/config"
	"github.com/sweeplabs/sweepd/internal/vectorstore"
)

var indexerTracer = otel.Tracer("sweepd.knowledge.indexer")

// IndexStats summarizes a reindex run.
type IndexStats struct {
	// Files is the number of markdown files indexed.
	Files int `json:"files"`

	// Chunks is the number of chunks added to the vector store.
	Chunks int `json:"chunks"`

	// Skipped is true when a non-forced reindex found an already
	// populated collection and left it untouched.
	Skipped bool `json:"skipped"`
}

// Indexer converts source documents and loads the chunked markdown into
// the vector store.
type Indexer struct {
	store     vectorstore.Store
	converter *Converter
	cfg       config.KnowledgeConfig
	splitter  textsplitter.RecursiveCharacter
	logger    *zap.Logger
}

// NewIndexer creates an indexer over the configured knowledge
// directories and vector store.
func NewIndexer(cfg config.KnowledgeConfig, store vectorstore.Store, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		store:     store,
		converter: NewConverter(cfg.DocsDir, cfg.MarkdownDir, logger),
		cfg:       cfg,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		),
		logger: logger,
	}
}

// Converter returns the document converter used by the indexer.
func (ix *Indexer) Converter() *Converter {
	return ix.converter
}

// Reindex converts PDFs under docs_dir, then splits every markdown file
// under markdown_dir and stores the chunks. Without force, an already
// populated collection is reused as-is. With force, the collection is
// rebuilt from scratch.
func (ix *Indexer) Reindex(ctx context.Context, force bool) (*IndexStats, error) {
	ctx, span := indexerTracer.Start(ctx, "Indexer.Reindex")
	defer span.End()

	span.SetAttributes(attribute.Bool("force", force))

	if _, err := ix.converter.ConvertPDFs(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("converting pdfs: %w", err)
	}

	if !force {
		count, err := ix.store.Count(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("counting documents: %w", err)
		}
		if count > 0 {
			ix.logger.Info("knowledge base already indexed",
				zap.Int("documents", count),
			)
			span.SetStatus(codes.Ok, "already indexed")
			return &IndexStats{Skipped: true}, nil
		}
	} else {
		if err := ix.store.Reset(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("resetting collection: %w", err)
		}
	}

	files, err := ix.markdownFiles()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	stats := &IndexStats{}
	for _, file := range files {
		chunks, err := ix.indexFile(ctx, file)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("indexing %s: %w", file, err)
		}
		if chunks > 0 {
			stats.Files++
			stats.Chunks += chunks
		}
	}

	span.SetAttributes(
		attribute.Int("files", stats.Files),
		attribute.Int("chunks", stats.Chunks),
	)
	span.SetStatus(codes.Ok, "success")

	ix.logger.Info("knowledge base reindexed",
		zap.Int("files", stats.Files),
		zap.Int("chunks", stats.Chunks),
		zap.Bool("force", force),
	)
	return stats, nil
}

// markdownFiles returns all *.md under markdown_dir in lexical order.
func (ix *Indexer) markdownFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(ix.cfg.MarkdownDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walking %s: %w", ix.cfg.MarkdownDir, err)
	}
	return files, nil
}

func (ix *Indexer) indexFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return 0, nil
	}

	chunks, err := ix.splitter.SplitText(text)
	if err != nil {
		return 0, fmt.Errorf("splitting text: %w", err)
	}

	source := filepath.Base(path)
	docs := make([]vectorstore.Document, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		docs = append(docs, vectorstore.Document{
			ID:      uuid.NewString(),
			Content: chunk,
			Metadata: map[string]interface{}{
				"source": source,
				"chunk":  i,
			},
		})
	}
	if len(docs) == 0 {
		return 0, nil
	}

	if _, err := ix.store.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("adding documents: %w", err)
	}

	ix.logger.Debug("indexed markdown file",
		zap.String("file", path),
		zap.Int("chunks", len(docs)),
	)
	return len(docs), nil
}
