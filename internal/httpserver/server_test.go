package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/config"
	"github.com/sweeplabs/sweepd/internal/dataset"
	"github.com/sweeplabs/sweepd/internal/knowledge"
	"github.com/sweeplabs/sweepd/internal/pipeline"
	"github.com/sweeplabs/sweepd/internal/registry"
	"github.com/sweeplabs/sweepd/internal/vectorstore"
)

type fakeAnalyzer struct {
	report *pipeline.Report
	err    error
	calls  int
}

func (f *fakeAnalyzer) RunProfile(ctx context.Context, profile *dataset.Profile) (*pipeline.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	report := *f.report
	report.FileName = profile.FileName
	return &report, nil
}

type fakeIndexer struct {
	stats *knowledge.IndexStats
	err   error
	force bool
}

func (f *fakeIndexer) Reindex(ctx context.Context, force bool) (*knowledge.IndexStats, error) {
	f.force = force
	return f.stats, f.err
}

type fakeSearchStore struct {
	results []vectorstore.SearchResult
	err     error
	lastK   int
}

func (f *fakeSearchStore) AddDocuments(ctx context.Context, docs []vectorstore.Document) ([]string, error) {
	return nil, nil
}

func (f *fakeSearchStore) Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	f.lastK = k
	return f.results, f.err
}

func (f *fakeSearchStore) Count(ctx context.Context) (int, error) { return len(f.results), nil }

func (f *fakeSearchStore) Info(ctx context.Context) (*vectorstore.CollectionInfo, error) {
	return &vectorstore.CollectionInfo{}, nil
}

func (f *fakeSearchStore) Reset(ctx context.Context) error { return nil }
func (f *fakeSearchStore) Close() error                    { return nil }

type testServer struct {
	server   *Server
	analyzer *fakeAnalyzer
	indexer  *fakeIndexer
	store    *fakeSearchStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	reg, err := registry.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	analyzer := &fakeAnalyzer{report: &pipeline.Report{
		ID:              "rep-1",
		Overview:        "overview text",
		Analysis:        "analysis text",
		Recommendations: "recommendation text",
		Evaluation:      "evaluation text",
	}}
	indexer := &fakeIndexer{stats: &knowledge.IndexStats{Files: 2, Chunks: 9}}
	store := &fakeSearchStore{}

	server, err := NewServer(Options{
		Server:   config.ServerConfig{Host: "localhost", Port: 8080, MaxUploadBytes: 1 << 20},
		Datasets: config.DatasetsConfig{PreviewRows: 2, HeadRows: 5},
		Registry: reg,
		Analyzer: analyzer,
		Indexer:  indexer,
		Store:    store,
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)

	return &testServer{server: server, analyzer: analyzer, indexer: indexer, store: store}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.server.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) uploadCSV(t *testing.T, name, content string) UploadResponse {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", &body)
	req.Header.Set(echoContentType, mw.FormDataContentType())

	rec := ts.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const echoContentType = "Content-Type"

const testCSV = "id,amount,city\n1,10.5,Lisbon\n2,,Porto\n3,7.25,Faro\n"

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndexServesUI(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sweepd")
	assert.Contains(t, rec.Header().Get(echoContentType), "text/html")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadProfileAndGet(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.uploadCSV(t, "orders.csv", testCSV)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "orders.csv", resp.Name)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, 3, resp.Profile.Rows)
	assert.Equal(t, 3, resp.Profile.ColumnCount)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+resp.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orders.csv")
}

func TestUploadUnsupportedFormat(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not a dataset"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", &body)
	req.Header.Set(echoContentType, mw.FormDataContentType())

	rec := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported")
}

func TestUploadMissingFile(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/datasets", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnknownDataset(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/datasets/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewCapsRows(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.uploadCSV(t, "orders.csv", testCSV)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+resp.ID+"/preview", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var preview PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, []string{"id", "amount", "city"}, preview.Columns)
	assert.Len(t, preview.Rows, 2)
	assert.Equal(t, 3, preview.Total)
}

func TestAnalyzeAndReport(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.uploadCSV(t, "orders.csv", testCSV)

	// Report before analysis is a 404.
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+resp.ID+"/report", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/datasets/"+resp.ID+"/analyze", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, ts.analyzer.calls)

	var report pipeline.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "analysis text", report.Analysis)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+resp.ID+"/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cleaning_report_orders.md")
	assert.Contains(t, rec.Body.String(), "## Cleaning Recommendations")
}

func TestAnalyzeLLMFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.analyzer.err = errors.New("model unavailable")
	resp := ts.uploadCSV(t, "orders.csv", testCSV)

	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/datasets/"+resp.ID+"/analyze", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "model unavailable")
}

func TestAnalyzeUnknownDataset(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/datasets/nope/analyze", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDataset(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.uploadCSV(t, "orders.csv", testCSV)

	rec := ts.do(httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/"+resp.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+resp.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReindex(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/reindex", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.indexer.force)

	var stats knowledge.IndexStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 9, stats.Chunks)
}

func TestKnowledgeSearch(t *testing.T) {
	ts := newTestServer(t)
	ts.store.results = []vectorstore.SearchResult{
		{ID: "a", Content: "impute with median", Score: 0.9},
	}

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/search?q=missing+values&k=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, ts.store.lastK)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing values", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "impute with median", resp.Results[0].Content)
}

func TestKnowledgeSearchValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/search?q=x&k=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKnowledgeSearchEmptyCollection(t *testing.T) {
	ts := newTestServer(t)
	ts.store.err = vectorstore.ErrCollectionNotFound

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/search?q=anything", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
}
