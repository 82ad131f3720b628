package corpus

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
)

// DefaultPrefix is the base used for auto-generated document names.
const DefaultPrefix = "text"

var (
	prefixMu sync.RWMutex
	prefix   = DefaultPrefix
)

// SetDefaultPrefix changes the process-wide base for generated names.
// An empty prefix restores DefaultPrefix.
func SetDefaultPrefix(p string) {
	prefixMu.Lock()
	defer prefixMu.Unlock()
	if p == "" {
		p = DefaultPrefix
	}
	prefix = p
}

// Prefix returns the current base for generated names.
func Prefix() string {
	prefixMu.RLock()
	defer prefixMu.RUnlock()
	return prefix
}

// DefaultName returns the generated name for the document at 1-based position i.
func DefaultName(i int) string {
	return Prefix() + strconv.Itoa(i)
}

// Document is a single, optionally named, piece of text.
type Document struct {
	Name string
	Text string
}

// Batch is an ordered collection of documents with unique names.
type Batch struct {
	docs []Document
}

// New builds a batch from documents. Unnamed documents get DefaultName of
// their position; names must be unique.
func New(docs ...Document) (Batch, error) {
	out := make([]Document, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, d := range docs {
		if d.Name == "" {
			d.Name = DefaultName(i + 1)
		}
		if _, ok := seen[d.Name]; ok {
			return Batch{}, fmt.Errorf("document name %q: %w", d.Name, internalerr.ErrDuplicate)
		}
		seen[d.Name] = struct{}{}
		out[i] = d
	}
	return Batch{docs: out}, nil
}

// FromTexts builds a batch of unnamed texts.
func FromTexts(texts ...string) Batch {
	docs := make([]Document, len(texts))
	for i, t := range texts {
		docs[i] = Document{Name: DefaultName(i + 1), Text: t}
	}
	return Batch{docs: docs}
}

// FromNamed builds a batch from parallel name and text slices.
func FromNamed(names, texts []string) (Batch, error) {
	if len(names) != len(texts) {
		return Batch{}, errors.New("names and texts differ in length")
	}
	docs := make([]Document, len(texts))
	for i := range texts {
		docs[i] = Document{Name: names[i], Text: texts[i]}
	}
	return New(docs...)
}

// Len returns the number of documents.
func (b Batch) Len() int { return len(b.docs) }

// At returns the document at position i.
func (b Batch) At(i int) Document { return b.docs[i] }

// Names returns document names in order.
func (b Batch) Names() []string {
	names := make([]string, len(b.docs))
	for i, d := range b.docs {
		names[i] = d.Name
	}
	return names
}

// Texts returns document texts in order.
func (b Batch) Texts() []string {
	texts := make([]string, len(b.docs))
	for i, d := range b.docs {
		texts[i] = d.Text
	}
	return texts
}

// Documents returns a copy of the documents.
func (b Batch) Documents() []Document {
	out := make([]Document, len(b.docs))
	copy(out, b.docs)
	return out
}
