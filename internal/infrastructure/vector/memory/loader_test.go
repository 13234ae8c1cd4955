package memory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/ports"
)

type fakeStore struct {
	ports.DocumentStore

	docs  []domain.Document
	err   error
	calls int
}

func (f *fakeStore) GetAllWithEmbeddings(ctx context.Context) ([]domain.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoaderBuildsOnce(t *testing.T) {
	store := &fakeStore{docs: []domain.Document{embedded("a", 1, 0)}}
	loader := NewLoader(store, discardLogger())

	first, err := loader.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := loader.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same snapshot on repeated calls")
	}
	if store.calls != 1 {
		t.Fatalf("store must be queried exactly once, got %d calls", store.calls)
	}
}

func TestLoaderRemembersEmptyCorpus(t *testing.T) {
	store := &fakeStore{}
	loader := NewLoader(store, discardLogger())

	for i := 0; i < 3; i++ {
		if _, err := loader.Get(context.Background()); !domain.IsKind(err, domain.ErrEmptyIndex) {
			t.Fatalf("expected empty index error, got %v", err)
		}
	}
	if store.calls != 1 {
		t.Fatalf("empty result must be cached, store saw %d calls", store.calls)
	}
}

func TestLoaderRetriesAfterStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	loader := NewLoader(store, discardLogger())

	if _, err := loader.Get(context.Background()); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}

	store.err = nil
	store.docs = []domain.Document{embedded("a", 1, 0)}
	idx, err := loader.Get(context.Background())
	if err != nil {
		t.Fatalf("expected recovery on retry: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected 1 indexed document, got %d", idx.Len())
	}
	if store.calls != 2 {
		t.Fatalf("expected exactly 2 store calls, got %d", store.calls)
	}
}
