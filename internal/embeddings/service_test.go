package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeplabs/sweepd/internal/config"
)

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(config.EmbeddingsConfig{Model: "nomic-embed-text"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewService(config.EmbeddingsConfig{BaseURL: "http://localhost:11434/v1"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewServiceLocalEndpointNoKey(t *testing.T) {
	svc, err := NewService(config.EmbeddingsConfig{
		BaseURL: "http://localhost:11434/v1",
		Model:   "nomic-embed-text",
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestEmbedDocumentsEmptyInput(t *testing.T) {
	svc, err := NewService(config.EmbeddingsConfig{
		BaseURL: "http://localhost:11434/v1",
		Model:   "nomic-embed-text",
	})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestVectorSizeForModel(t *testing.T) {
	assert.Equal(t, 768, VectorSizeForModel("nomic-embed-text"))
	assert.Equal(t, 384, VectorSizeForModel("BAAI/bge-small-en-v1.5"))
	assert.Equal(t, 1536, VectorSizeForModel("text-embedding-3-small"))
	assert.Equal(t, 3072, VectorSizeForModel("text-embedding-3-large"))
	assert.Equal(t, 768, VectorSizeForModel("mystery-model"))
}
