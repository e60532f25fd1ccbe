package knowledge

import (
	"context"

	"github.com/sweeplabs/sweepd/internal/vectorstore"
)

// fakeStore is an in-memory Store double for indexer and retriever
// tests.
type fakeStore struct {
	docs      []vectorstore.Document
	results   []vectorstore.SearchResult
	searchErr error
	lastQuery string
	lastK     int
	resets    int
}

func (f *fakeStore) AddDocuments(ctx context.Context, docs []vectorstore.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, vectorstore.ErrEmptyDocuments
	}
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	f.docs = append(f.docs, docs...)
	return ids, nil
}

func (f *fakeStore) Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	f.lastQuery = query
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k > len(f.results) {
		k = len(f.results)
	}
	return f.results[:k], nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	if len(f.results) > 0 {
		return len(f.results), nil
	}
	return len(f.docs), nil
}

func (f *fakeStore) Info(ctx context.Context) (*vectorstore.CollectionInfo, error) {
	count, _ := f.Count(ctx)
	return &vectorstore.CollectionInfo{Name: "cleaning_strategies", PointCount: count}, nil
}

func (f *fakeStore) Reset(ctx context.Context) error {
	f.resets++
	f.docs = nil
	return nil
}

func (f *fakeStore) Close() error { return nil }

var _ vectorstore.Store = (*fakeStore)(nil)
