package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/store"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	ids    *store.IDs
	now    func() time.Time
	runs   map[string]run
	closed bool
}

var _ store.Store = (*Store)(nil)

type run struct {
	info  store.RunInfo
	batch *tokens.Batch
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:  store.NewIDs(),
		now:  time.Now,
		runs: make(map[string]run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// SaveRun implements store.Store. Batches are immutable, so the batch is
// kept as is; failures are converted the same way the SQLite store does.
func (s *Store) SaveRun(ctx context.Context, b *tokens.Batch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b == nil {
		return "", fmt.Errorf("save run: nil batch: %w", internalerr.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", internalerr.ErrStoreUnavailable
	}

	docs := b.Documents()
	for i, d := range docs {
		if d.Err != nil {
			docs[i].Err = &store.Failure{Kind: store.KindOf(d.Err), Message: d.Err.Error()}
		}
	}
	saved, err := tokens.NewBatch(docs, b.Meta())
	if err != nil {
		return "", err
	}

	created := s.now().UTC().Truncate(time.Millisecond)
	id := s.ids.New(created)
	s.runs[id] = run{info: store.Summarise(id, created, saved), batch: saved}
	return id, nil
}

// LoadRun implements store.Store.
func (s *Store) LoadRun(ctx context.Context, id string) (*tokens.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := store.ParseID(id); err != nil {
		return nil, fmt.Errorf("run %q: %w", id, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	r, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r.batch, nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	out := make([]store.RunInfo, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteRun implements store.Store.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := store.ParseID(id); err != nil {
		return fmt.Errorf("run %q: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	delete(s.runs, id)
	return nil
}
