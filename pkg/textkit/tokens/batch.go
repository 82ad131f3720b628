// Package tokens holds the immutable result of tokenizing a document batch.
package tokens

import (
	"errors"
	"fmt"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/ngrams"
)

// Document is the token sequence produced from one input document.
// Err is set when the document could not be processed; a failed document
// is never reported as an empty token list.
type Document struct {
	Name   string
	Tokens []string
	Err    error
}

// Failed reports whether the document failed to process.
func (d Document) Failed() bool { return d.Err != nil }

// Meta is the configuration a batch was produced with.
type Meta struct {
	Granularity  Granularity
	NGramSizes   []int
	Skips        []int
	Concatenator string
}

// Batch maps document names to token sequences in input order. A Batch is
// never mutated after construction; derived operations return a new Batch.
type Batch struct {
	docs []Document
	meta Meta
}

// NewBatch builds a batch. Names must be unique. The concatenator is
// recorded as empty when sizes are exactly {1}.
func NewBatch(docs []Document, meta Meta) (*Batch, error) {
	if !meta.Granularity.Valid() {
		return nil, fmt.Errorf("batch: %w", internalerr.ErrUnsupportedGranularity)
	}
	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, len(docs))
	for i, d := range docs {
		if _, ok := seen[d.Name]; ok {
			return nil, fmt.Errorf("document name %q: %w", d.Name, internalerr.ErrDuplicate)
		}
		seen[d.Name] = struct{}{}
		out[i] = Document{Name: d.Name, Tokens: copyStrings(d.Tokens), Err: d.Err}
		if d.Err == nil && out[i].Tokens == nil {
			out[i].Tokens = []string{}
		}
	}

	if len(meta.NGramSizes) == 0 {
		meta.NGramSizes = []int{1}
	}
	if len(meta.Skips) == 0 {
		meta.Skips = []int{0}
	}
	meta.NGramSizes = copyInts(meta.NGramSizes)
	meta.Skips = copyInts(meta.Skips)
	if ngrams.IsUnigram(meta.NGramSizes) {
		meta.Concatenator = ""
	}
	return &Batch{docs: out, meta: meta}, nil
}

// Len returns the number of documents.
func (b *Batch) Len() int { return len(b.docs) }

// Granularity returns the segmentation unit used.
func (b *Batch) Granularity() Granularity { return b.meta.Granularity }

// NGramSizes returns the requested n-gram sizes.
func (b *Batch) NGramSizes() []int { return copyInts(b.meta.NGramSizes) }

// Skips returns the requested skip distances.
func (b *Batch) Skips() []int { return copyInts(b.meta.Skips) }

// Concatenator returns the n-gram joiner, or "" if no concatenation occurred.
func (b *Batch) Concatenator() string { return b.meta.Concatenator }

// Meta returns a copy of the batch metadata.
func (b *Batch) Meta() Meta {
	m := b.meta
	m.NGramSizes = copyInts(m.NGramSizes)
	m.Skips = copyInts(m.Skips)
	return m
}

// Names returns document names in input order.
func (b *Batch) Names() []string {
	names := make([]string, len(b.docs))
	for i, d := range b.docs {
		names[i] = d.Name
	}
	return names
}

// At returns a copy of the document at position i.
func (b *Batch) At(i int) Document {
	d := b.docs[i]
	return Document{Name: d.Name, Tokens: copyStrings(d.Tokens), Err: d.Err}
}

// Tokens returns a copy of the tokens of the named document.
func (b *Batch) Tokens(name string) ([]string, bool) {
	for _, d := range b.docs {
		if d.Name == name {
			return copyStrings(d.Tokens), true
		}
	}
	return nil, false
}

// Documents returns a copy of every document.
func (b *Batch) Documents() []Document {
	out := make([]Document, len(b.docs))
	for i := range b.docs {
		out[i] = b.At(i)
	}
	return out
}

// Err joins the errors of every failed document, or returns nil.
func (b *Batch) Err() error {
	var errs []error
	for _, d := range b.docs {
		if d.Err != nil {
			errs = append(errs, fmt.Errorf("document %q: %w", d.Name, d.Err))
		}
	}
	return errors.Join(errs...)
}

// Flatten discards document structure and returns every token of every
// successful document in order.
func (b *Batch) Flatten() []string {
	n := 0
	for _, d := range b.docs {
		n += len(d.Tokens)
	}
	out := make([]string, 0, n)
	for _, d := range b.docs {
		out = append(out, d.Tokens...)
	}
	return out
}

// NGrams returns a new batch whose documents are expanded into n-grams of
// the given sizes and skips. Failed documents are carried through unchanged.
func (b *Batch) NGrams(sizes, skips []int, concatenator string) (*Batch, error) {
	sizes, skips, err := ngrams.Normalize(sizes, skips)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, len(b.docs))
	for i, d := range b.docs {
		docs[i] = Document{Name: d.Name, Err: d.Err}
		if d.Err != nil {
			continue
		}
		grams, err := ngrams.Expand(d.Tokens, sizes, skips, concatenator)
		if err != nil {
			return nil, err
		}
		docs[i].Tokens = grams
	}
	return NewBatch(docs, Meta{
		Granularity:  b.meta.Granularity,
		NGramSizes:   sizes,
		Skips:        skips,
		Concatenator: concatenator,
	})
}

// Select returns a new batch keeping only the tokens for which keep returns true.
func (b *Batch) Select(keep func(string) bool) *Batch {
	docs := make([]Document, len(b.docs))
	for i, d := range b.docs {
		docs[i] = Document{Name: d.Name, Err: d.Err}
		if d.Tokens == nil {
			continue
		}
		kept := make([]string, 0, len(d.Tokens))
		for _, tok := range d.Tokens {
			if keep(tok) {
				kept = append(kept, tok)
			}
		}
		docs[i].Tokens = kept
	}
	return &Batch{docs: docs, meta: b.Meta()}
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}
