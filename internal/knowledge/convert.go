// Package knowledge builds and queries the cleaning-strategy knowledge
// base: PDF and HTML documents converted to markdown, chunked, embedded
// and stored in the vector store.
package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// pdfWorkers bounds concurrent PDF conversions.
const pdfWorkers = 4

// Converter turns source documents under docsDir into markdown files
// under markdownDir.
type Converter struct {
	docsDir     string
	markdownDir string
	logger      *zap.Logger
}

// NewConverter creates a converter for the given directories.
func NewConverter(docsDir, markdownDir string, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		docsDir:     docsDir,
		markdownDir: markdownDir,
		logger:      logger,
	}
}

// ConvertPDFs converts each *.pdf under docsDir into <stem>.md under
// markdownDir: a file heading plus one section per non-empty page.
// Existing outputs are kept as-is, so repeated runs are cheap. Returns
// the markdown paths for all PDFs, converted or already present.
//
// A PDF that fails to parse is logged and skipped; it does not abort
// the remaining conversions.
func (c *Converter) ConvertPDFs(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(c.markdownDir, 0755); err != nil {
		return nil, fmt.Errorf("creating markdown dir: %w", err)
	}
	if err := os.MkdirAll(c.docsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating docs dir: %w", err)
	}

	pdfs, err := filepath.Glob(filepath.Join(c.docsDir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("listing pdfs: %w", err)
	}
	sort.Strings(pdfs)

	outputs := make([]string, len(pdfs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pdfWorkers)

	for i, pdf := range pdfs {
		i, pdf := i, pdf
		g.Go(func() error {
			stem := strings.TrimSuffix(filepath.Base(pdf), filepath.Ext(pdf))
			outPath := filepath.Join(c.markdownDir, stem+".md")

			if _, err := os.Stat(outPath); err == nil {
				outputs[i] = outPath
				return nil
			}

			if err := c.convertPDF(ctx, pdf, stem, outPath); err != nil {
				c.logger.Warn("pdf conversion failed",
					zap.String("pdf", pdf),
					zap.Error(err),
				)
				return nil
			}

			outputs[i] = outPath
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Drop slots for failed conversions.
	result := make([]string, 0, len(outputs))
	for _, p := range outputs {
		if p != "" {
			result = append(result, p)
		}
	}
	return result, nil
}

func (c *Converter) convertPDF(ctx context.Context, pdfPath, stem, outPath string) error {
	f, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat pdf: %w", err)
	}

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return fmt.Errorf("loading pdf: %w", err)
	}

	parts := []string{fmt.Sprintf("# %s\n", stem)}
	for i, doc := range docs {
		text := strings.TrimSpace(doc.PageContent)
		if text == "" {
			continue
		}
		page := i + 1
		if p, ok := doc.Metadata["page"].(int); ok && p > 0 {
			page = p
		}
		parts = append(parts, fmt.Sprintf("## Page %d\n\n%s\n", page, text))
	}

	content := strings.Join(parts, "\n")
	if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}

	c.logger.Info("converted pdf to markdown",
		zap.String("pdf", pdfPath),
		zap.String("markdown", outPath),
		zap.Int("pages", len(docs)),
	)
	return nil
}
