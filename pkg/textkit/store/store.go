// Package store persists tokenization runs.
package store

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// Store is the interface for persisting tokenized batches
type Store interface {
	Close() error

	// SaveRun stores b and returns its run id.
	SaveRun(ctx context.Context, b *tokens.Batch) (string, error)
	// LoadRun returns the batch saved under id, or ErrNotFound.
	LoadRun(ctx context.Context, id string) (*tokens.Batch, error)
	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)
	// DeleteRun removes a run, or returns ErrNotFound.
	DeleteRun(ctx context.Context, id string) error
}

// RunInfo summarises a saved run
type RunInfo struct {
	ID           string
	CreatedAt    time.Time
	Granularity  tokens.Granularity
	NGramSizes   []int
	Skips        []int
	Concatenator string
	Docs         int
	Failed       int
}

// Error kinds persisted for failed documents.
const (
	KindOther    = "other"
	KindEncoding = "encoding"
)

// Failure is the error attached to a failed document loaded from a store.
type Failure struct {
	Kind    string
	Message string
}

func (f *Failure) Error() string { return f.Message }

// Is matches ErrEncoding for failures that were encoding errors.
func (f *Failure) Is(target error) bool {
	return f.Kind == KindEncoding && target == internalerr.ErrEncoding
}

// KindOf classifies err for persistence.
func KindOf(err error) string {
	if errors.Is(err, internalerr.ErrEncoding) {
		return KindEncoding
	}
	return KindOther
}

// IDs hands out monotonic ULIDs. It is safe for concurrent use.
type IDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDs creates an id source
func NewIDs() *IDs {
	return &IDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns an id for a run created at t.
func (g *IDs) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

// ParseID validates id and returns the creation time encoded in it.
func ParseID(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, errors.Join(internalerr.ErrNotFound, err)
	}
	return ulid.Time(u.Time()), nil
}

// Summarise builds the RunInfo for b.
func Summarise(id string, created time.Time, b *tokens.Batch) RunInfo {
	info := RunInfo{
		ID:           id,
		CreatedAt:    created,
		Granularity:  b.Granularity(),
		NGramSizes:   b.NGramSizes(),
		Skips:        b.Skips(),
		Concatenator: b.Concatenator(),
		Docs:         b.Len(),
	}
	for i := 0; i < b.Len(); i++ {
		if b.At(i).Failed() {
			info.Failed++
		}
	}
	return info
}
