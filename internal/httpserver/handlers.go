package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/dataset"
	"github.com/sweeplabs/sweepd/internal/registry"
	"github.com/sweeplabs/sweepd/internal/vectorstore"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// UploadResponse is the response body for POST /api/v1/datasets.
type UploadResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Size    int64            `json:"size"`
	Profile *dataset.Profile `json:"profile"`
}

// PreviewResponse is the response body for GET /api/v1/datasets/:id/preview.
type PreviewResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total_rows"`
}

// SearchResponse is the response body for GET /api/v1/knowledge/search.
type SearchResponse struct {
	Query   string                     `json:"query"`
	Results []vectorstore.SearchResult `json:"results"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleUpload stages the uploaded dataset, profiles it and returns the
// registered entry.
func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open upload")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}

	entry, err := s.opts.Registry.Put(fileHeader.Filename, data)
	if err != nil {
		s.logger.Error("staging upload failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot stage upload")
	}

	table, err := dataset.Read(entry.Path)
	if err != nil {
		// Unreadable upload: drop the entry and report the reader error.
		_ = s.opts.Registry.Delete(entry.ID)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile := dataset.NewProfile(table, entry.Name, s.opts.Datasets.HeadRows)
	if err := s.opts.Registry.SetProfile(entry.ID, profile); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, UploadResponse{
		ID:      entry.ID,
		Name:    entry.Name,
		Size:    entry.Size,
		Profile: profile,
	})
}

func (s *Server) handleListDatasets(c echo.Context) error {
	return c.JSON(http.StatusOK, s.opts.Registry.List())
}

func (s *Server) handleGetDataset(c echo.Context) error {
	entry, err := s.opts.Registry.Get(c.Param("id"))
	if err != nil {
		return datasetError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) handleDeleteDataset(c echo.Context) error {
	if err := s.opts.Registry.Delete(c.Param("id")); err != nil {
		return datasetError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handlePreview re-reads the staged file and returns the first
// preview_rows rows.
func (s *Server) handlePreview(c echo.Context) error {
	entry, err := s.opts.Registry.Get(c.Param("id"))
	if err != nil {
		return datasetError(err)
	}

	table, err := dataset.Read(entry.Path)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rows := table.Rows
	if len(rows) > s.opts.Datasets.PreviewRows {
		rows = rows[:s.opts.Datasets.PreviewRows]
	}

	return c.JSON(http.StatusOK, PreviewResponse{
		Columns: table.Columns,
		Rows:    rows,
		Total:   len(table.Rows),
	})
}

// handleAnalyze runs the pipeline synchronously and stores the report
// on the dataset entry.
func (s *Server) handleAnalyze(c echo.Context) error {
	entry, err := s.opts.Registry.Get(c.Param("id"))
	if err != nil {
		return datasetError(err)
	}
	if entry.Profile == nil {
		return echo.NewHTTPError(http.StatusConflict, "dataset has no profile")
	}

	report, err := s.opts.Analyzer.RunProfile(c.Request().Context(), entry.Profile)
	if err != nil {
		s.logger.Error("analysis failed",
			zap.String("dataset_id", entry.ID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusBadGateway,
			fmt.Sprintf("analysis failed: %v", err))
	}

	if err := s.opts.Registry.SetReport(entry.ID, report); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, report)
}

// handleReport serves the combined markdown report as an attachment.
func (s *Server) handleReport(c echo.Context) error {
	report, err := s.opts.Registry.Report(c.Param("id"))
	if err != nil {
		return datasetError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", report.DownloadName()))
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown()))
}

// handleReindex rebuilds the knowledge base from scratch.
func (s *Server) handleReindex(c echo.Context) error {
	if s.opts.Indexer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "knowledge base not configured")
	}

	stats, err := s.opts.Indexer.Reindex(c.Request().Context(), true)
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("reindex failed: %v", err))
	}
	return c.JSON(http.StatusOK, stats)
}

// handleKnowledgeSearch is a raw retrieval debug endpoint.
func (s *Server) handleKnowledgeSearch(c echo.Context) error {
	if s.opts.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "knowledge base not configured")
	}

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q parameter is required")
	}

	k := 5
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		k = parsed
	}

	results, err := s.opts.Store.Search(c.Request().Context(), query, k)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			results = []vectorstore.SearchResult{}
		} else {
			s.logger.Error("knowledge search failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results})
}

// datasetError maps registry errors to HTTP errors.
func datasetError(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "dataset not found")
	case errors.Is(err, registry.ErrNoReport):
		return echo.NewHTTPError(http.StatusNotFound, "dataset has not been analyzed yet")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
