// Package textkit wires the tokenizer, stopword removal and run storage
// behind one facade.
package textkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/cognicore/textkit/pkg/textkit/corpus"
	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/ngrams"
	"github.com/cognicore/textkit/pkg/textkit/stoplist"
	"github.com/cognicore/textkit/pkg/textkit/store"
	"github.com/cognicore/textkit/pkg/textkit/tokenize"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// Toolkit is the main tokenization facade
type Toolkit struct {
	store store.Store
	opts  tokenize.Options
	stops *stoplist.Manager
}

// Options configures a Toolkit instance
type Options struct {
	// Store is optional; without it only Tokenize is available.
	Store    store.Store
	Tokenize tokenize.Options
	// Stoplist, when set, removes stopwords before n-grams are formed.
	Stoplist *stoplist.Manager
}

// New creates a Toolkit with the given dependencies
func New(opts Options) (*Toolkit, error) {
	if err := opts.Tokenize.Validate(); err != nil {
		return nil, err
	}
	return &Toolkit{
		store: opts.Store,
		opts:  opts.Tokenize,
		stops: opts.Stoplist,
	}, nil
}

// Close cleanly shuts down the Toolkit instance
func (k *Toolkit) Close() error {
	if k.store == nil {
		return nil
	}
	return k.store.Close()
}

// Options returns the tokenizer options in use.
func (k *Toolkit) Options() tokenize.Options { return k.opts }

// Tokenize segments docs. Per-document failures are reported in the batch
// and joined into the returned error; the batch is nil only on fatal errors.
func (k *Toolkit) Tokenize(ctx context.Context, docs corpus.Batch) (*tokens.Batch, error) {
	if k.stops == nil {
		return tokenize.Tokenize(ctx, docs, k.opts)
	}

	uni := k.opts
	uni.NGramSizes = []int{1}
	uni.Skips = []int{0}
	b, docErr := tokenize.Tokenize(ctx, docs, uni)
	if b == nil {
		return nil, docErr
	}
	b = k.stops.Apply(b)
	if !ngrams.IsUnigram(k.opts.NGramSizes) {
		expanded, err := b.NGrams(k.opts.NGramSizes, k.opts.Skips, k.opts.Concatenator)
		if err != nil {
			return nil, err
		}
		b = expanded
	}
	return b, docErr
}

// TokenizeAndSave tokenizes docs and stores the result, failed documents
// included. It returns the run id.
func (k *Toolkit) TokenizeAndSave(ctx context.Context, docs corpus.Batch) (string, *tokens.Batch, error) {
	if k.store == nil {
		return "", nil, fmt.Errorf("save run: %w", internalerr.ErrStoreUnavailable)
	}
	b, docErr := k.Tokenize(ctx, docs)
	if b == nil {
		return "", nil, docErr
	}
	id, err := k.store.SaveRun(ctx, b)
	if err != nil {
		return "", b, errors.Join(fmt.Errorf("save run: %w", err), docErr)
	}
	return id, b, docErr
}

// Load returns a saved run.
func (k *Toolkit) Load(ctx context.Context, id string) (*tokens.Batch, error) {
	if k.store == nil {
		return nil, fmt.Errorf("load run: %w", internalerr.ErrStoreUnavailable)
	}
	return k.store.LoadRun(ctx, id)
}

// Runs lists saved runs, newest first.
func (k *Toolkit) Runs(ctx context.Context, limit int) ([]store.RunInfo, error) {
	if k.store == nil {
		return nil, fmt.Errorf("list runs: %w", internalerr.ErrStoreUnavailable)
	}
	return k.store.ListRuns(ctx, limit)
}

// Delete removes a saved run.
func (k *Toolkit) Delete(ctx context.Context, id string) error {
	if k.store == nil {
		return fmt.Errorf("delete run: %w", internalerr.ErrStoreUnavailable)
	}
	return k.store.DeleteRun(ctx, id)
}
