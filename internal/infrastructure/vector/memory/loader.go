package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/ports"
)

type loadState int

const (
	stateInitialized loadState = iota
	stateLoading
	stateReady
)

// Loader builds the index from the document store exactly once per process
// and serves the ready snapshot afterwards. Concurrent callers block until
// the first build finishes. A failed build is retried on the next call; a
// build that found no embedded documents is remembered and keeps returning
// domain.ErrEmptyIndex without hitting the store again.
type Loader struct {
	store  ports.DocumentStore
	logger *slog.Logger

	mu    sync.Mutex
	state loadState
	idx   *Index
	empty bool
}

func NewLoader(store ports.DocumentStore, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, logger: logger}
}

func (l *Loader) Get(ctx context.Context) (ports.DenseIndex, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == stateReady {
		if l.empty {
			return nil, domain.ErrEmptyIndex
		}
		return l.idx, nil
	}

	l.state = stateLoading
	docs, err := l.store.GetAllWithEmbeddings(ctx)
	if err != nil {
		l.state = stateInitialized
		return nil, domain.WrapError(domain.ErrTemporary, "load vector index", err)
	}

	idx, err := Build(docs)
	if err != nil {
		if domain.IsKind(err, domain.ErrEmptyIndex) {
			l.logger.Warn("vector_index_empty", "documents_seen", len(docs))
			l.state = stateReady
			l.empty = true
			return nil, domain.ErrEmptyIndex
		}
		l.state = stateInitialized
		return nil, err
	}

	l.state = stateReady
	l.idx = idx
	l.logger.Info("vector_index_loaded", "documents", idx.Len())
	return idx, nil
}
