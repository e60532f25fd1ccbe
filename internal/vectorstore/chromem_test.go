package vectorstore_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/vectorstore"
)

// testEmbedder returns deterministic normalized vectors based on text
// content so similar strings land near each other.
type testEmbedder struct {
	vectorSize int
}

func (e *testEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.makeEmbedding(text)
	}
	return out, nil
}

func (e *testEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.makeEmbedding(text), nil
}

func (e *testEmbedder) makeEmbedding(text string) []float32 {
	embedding := make([]float32, e.vectorSize)
	hash := 0
	for _, c := range text {
		hash = (hash*31 + int(c)) % 1000
	}
	var sumSq float64
	for i := range embedding {
		embedding[i] = float32((hash+i)%100) / 100.0
		sumSq += float64(embedding[i]) * float64(embedding[i])
	}
	// chromem requires normalized vectors
	if sumSq > 0 {
		norm := float32(1.0 / math.Sqrt(sumSq))
		for i := range embedding {
			embedding[i] *= norm
		}
	}
	return embedding
}

func newTestStore(t *testing.T) *vectorstore.ChromemStore {
	t.Helper()

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       t.TempDir(),
		Collection: "cleaning_strategies",
		VectorSize: 64,
	}, &testEmbedder{vectorSize: 64}, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestNewChromemStoreRequiresEmbedder(t *testing.T) {
	_, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: t.TempDir()}, nil, nil)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}

func TestNewChromemStoreRejectsBadCollection(t *testing.T) {
	_, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       t.TempDir(),
		Collection: "../escape",
		VectorSize: 64,
	}, &testEmbedder{vectorSize: 64}, nil)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidCollectionName)
}

func TestAddAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ids, err := store.AddDocuments(ctx, []vectorstore.Document{
		{ID: "a", Content: "impute missing values with median", Metadata: map[string]interface{}{"source": "guide.md"}},
		{ID: "b", Content: "drop exact duplicate rows", Metadata: map[string]interface{}{"source": "guide.md"}},
		{ID: "c", Content: "standardize date formats to ISO 8601", Metadata: map[string]interface{}{"source": "dates.md"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	results, err := store.Search(ctx, "impute missing values with median", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "guide.md", results[0].Metadata["source"])
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestAddDocumentsEmpty(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, vectorstore.ErrEmptyDocuments)
}

func TestAddDocumentsGeneratesIDs(t *testing.T) {
	store := newTestStore(t)

	ids, err := store.AddDocuments(context.Background(), []vectorstore.Document{
		{Content: "no id here"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.NotEmpty(t, ids[0])
}

func TestSearchCapsKAtCollectionSize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []vectorstore.Document{
		{ID: "a", Content: "only document"},
	})
	require.NoError(t, err)

	results, err := store.Search(ctx, "anything", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchMissingCollection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestSearchValidatesInput(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "", 3)
	assert.Error(t, err)

	_, err = store.Search(context.Background(), "q", 0)
	assert.Error(t, err)
}

func TestCountAndInfo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = store.AddDocuments(ctx, []vectorstore.Document{
		{ID: "a", Content: "one"},
		{ID: "b", Content: "two"},
	})
	require.NoError(t, err)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	info, err := store.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cleaning_strategies", info.Name)
	assert.Equal(t, 2, info.PointCount)
	assert.Equal(t, 64, info.VectorSize)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Reset on an absent collection is a no-op.
	require.NoError(t, store.Reset(ctx))

	_, err := store.AddDocuments(ctx, []vectorstore.Document{{ID: "a", Content: "one"}})
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestValidateCollectionName(t *testing.T) {
	assert.NoError(t, vectorstore.ValidateCollectionName("cleaning_strategies"))
	assert.Error(t, vectorstore.ValidateCollectionName(""))
	assert.Error(t, vectorstore.ValidateCollectionName("a/b"))
	assert.Error(t, vectorstore.ValidateCollectionName("..name"))
}
