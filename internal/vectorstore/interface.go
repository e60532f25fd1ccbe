// Package vectorstore provides vector storage for the strategy knowledge
// base.
package vectorstore

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// Document represents a document to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Content is the text content of the document.
	Content string

	// Metadata contains additional key-value pairs.
	// Common fields: source, chunk.
	Metadata map[string]interface{}
}

// SearchResult represents a search result from the vector store.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the document text content.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the document metadata.
	Metadata map[string]interface{}
}

// CollectionInfo contains metadata about a vector collection.
type CollectionInfo struct {
	Name       string `json:"name"`
	PointCount int    `json:"point_count"`
	VectorSize int    `json:"vector_size"`
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations.
//
// Implementations embed document content through the configured Embedder
// and perform nearest-neighbor search over the stored vectors.
type Store interface {
	// AddDocuments embeds and stores documents in the default collection.
	// Returns the IDs of the added documents.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search performs similarity search in the default collection,
	// returning up to k results ordered by score (highest first).
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Count returns the number of documents in the default collection.
	// A missing collection counts as zero.
	Count(ctx context.Context) (int, error)

	// Info returns metadata about the default collection.
	Info(ctx context.Context) (*CollectionInfo, error)

	// Reset deletes all documents in the default collection.
	Reset(ctx context.Context) error

	// Close releases store resources.
	Close() error
}

// ValidateCollectionName rejects empty names and names that could escape
// the storage directory.
func ValidateCollectionName(name string) error {
	if name == "" {
		return ErrInvalidCollectionName
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return ErrInvalidCollectionName
	}
	return nil
}
