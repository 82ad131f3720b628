// Package tokenize splits document batches into tokens.
//
// Each document runs through four stages:
//
//	protect → segment → filter → restore
//
// The protector swaps characters that segmentation or filtering would
// destroy (twitter sigils, intra-word hyphens, abbreviation periods) for
// placeholders, the segmenter splits at the requested granularity, the
// filter drops unwanted span classes and the restorer reverses the
// placeholders. N-gram expansion runs as a separate pass over the result.
//
// Documents are independent and processed concurrently; output position i
// always corresponds to input position i.
package tokenize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/textkit/pkg/textkit/corpus"
	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/ngrams"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// DocumentError reports a document that could not be tokenized.
type DocumentError struct {
	Index int
	Name  string
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// pipeline holds the read-only state shared by every document of a run.
type pipeline struct {
	opts   Options
	sizes  []int
	skips  []int
	table  *placeholderTable
	prot   protector
	seg    segmenter
	filt   filter
	logger *slog.Logger
}

func newPipeline(o Options) (*pipeline, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	sizes, skips, err := ngrams.Normalize(o.NGramSizes, o.Skips)
	if err != nil {
		return nil, err
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	table := newPlaceholderTable()
	return &pipeline{
		opts:   o,
		sizes:  sizes,
		skips:  skips,
		table:  table,
		prot:   newProtector(table, o),
		seg:    newSegmenter(o),
		filt:   newFilter(table, o),
		logger: logger,
	}, nil
}

// run tokenizes one document.
func (p *pipeline) run(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, internalerr.ErrEncoding
	}
	if p.opts.NormalizeUnicode {
		normalized, _, err := transform.String(norm.NFC, text)
		if err != nil {
			return nil, fmt.Errorf("normalize: %w: %v", internalerr.ErrEncoding, err)
		}
		text = normalized
	}
	if p.opts.RemoveURL {
		text = urlRE.ReplaceAllString(text, "")
	}

	text = p.prot.protect(text)
	text = p.filt.prepare(text)
	spans := p.seg.segment(text, p.filt.keep)

	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = p.table.restore(s)
	}
	return out, nil
}

// Tokenize splits every document of docs into tokens.
//
// Invalid options fail before any document is processed. A document whose
// text cannot be processed is kept in the result with its Err set; in that
// case Tokenize returns the batch together with the joined *DocumentError
// values. Cancelling ctx stops the run and returns ctx.Err().
func Tokenize(ctx context.Context, docs corpus.Batch, opts Options) (*tokens.Batch, error) {
	p, err := newPipeline(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]tokens.Document, docs.Len())
	var docErrs []error
	failed := make([]error, docs.Len())

	if err := p.forEach(ctx, docs.Len(), func(i int) {
		d := docs.At(i)
		toks, err := p.run(d.Text)
		if err != nil {
			failed[i] = &DocumentError{Index: i, Name: d.Name, Err: err}
			results[i] = tokens.Document{Name: d.Name, Err: err}
			return
		}
		results[i] = tokens.Document{Name: d.Name, Tokens: toks}
	}); err != nil {
		return nil, err
	}
	segmented := time.Since(start)

	if !ngrams.IsUnigram(p.sizes) {
		if err := p.forEach(ctx, len(results), func(i int) {
			if results[i].Err != nil {
				return
			}
			// sizes and skips are already validated
			grams, _ := ngrams.Expand(results[i].Tokens, p.sizes, p.skips, p.opts.Concatenator)
			results[i].Tokens = grams
		}); err != nil {
			return nil, err
		}
	}

	for _, err := range failed {
		if err != nil {
			p.logger.Warn("document failed", "err", err)
			docErrs = append(docErrs, err)
		}
	}

	batch, err := tokens.NewBatch(results, tokens.Meta{
		Granularity:  p.opts.Granularity,
		NGramSizes:   p.sizes,
		Skips:        p.skips,
		Concatenator: p.opts.Concatenator,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("tokenized batch",
		"docs", docs.Len(),
		"failed", len(docErrs),
		"granularity", p.opts.Granularity.String(),
		"segment_elapsed", segmented,
		"total_elapsed", time.Since(start),
	)
	return batch, errors.Join(docErrs...)
}

// forEach calls fn for every index in [0, n) on a bounded worker pool.
func (p *pipeline) forEach(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Text tokenizes a single unnamed document.
func Text(ctx context.Context, text string, opts Options) ([]string, error) {
	batch, err := Tokenize(ctx, corpus.FromTexts(text), opts)
	if batch == nil {
		return nil, err
	}
	d := batch.At(0)
	if d.Err != nil {
		return nil, err
	}
	return d.Tokens, nil
}

// Simplify tokenizes docs and returns one flat sequence with all document
// structure and names discarded. Any failed document fails the call.
func Simplify(ctx context.Context, docs corpus.Batch, opts Options) ([]string, error) {
	batch, err := Tokenize(ctx, docs, opts)
	if err != nil {
		return nil, err
	}
	return batch.Flatten(), nil
}

// FilterTokens re-applies the protect, filter and restore stages of opts to
// already tokenized output. Applying it to the output of Tokenize with the
// same options removes nothing further.
func FilterTokens(toks []string, opts Options) ([]string, error) {
	p, err := newPipeline(opts)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		s := p.filt.prepare(p.prot.protect(tok))
		if !p.filt.keep(s) {
			continue
		}
		out = append(out, p.table.restore(s))
	}
	return out, nil
}
