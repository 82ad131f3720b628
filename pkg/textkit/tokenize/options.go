package tokenize

import (
	"fmt"
	"log/slog"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/ngrams"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// Options configures a tokenization run. Start from DefaultOptions: the zero
// value disables separator removal and twitter preservation.
type Options struct {
	Granularity tokens.Granularity

	RemoveNumbers    bool // drop all-digit tokens
	RemovePunct      bool // drop Unicode punctuation
	RemoveSymbols    bool // drop Unicode symbols
	RemoveSeparators bool // drop whitespace-only tokens
	RemoveHyphens    bool // split hyphenated words
	RemoveURL        bool // strip http(s) URLs before segmentation

	// PreserveTwitter keeps '#' and '@' attached to the word that follows.
	PreserveTwitter bool

	// GuardFastPaths applies twitter and hyphen protection to the whitespace
	// and fixed-delimiter granularities too. When false those granularities
	// strip punctuation without protecting hyphenated words first.
	GuardFastPaths bool

	// NormalizeUnicode applies NFC normalization before any other stage.
	NormalizeUnicode bool

	NGramSizes   []int
	Skips        []int
	Concatenator string

	// Workers bounds the number of documents processed concurrently.
	// Zero means GOMAXPROCS.
	Workers int

	// Logger receives diagnostics; nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns word tokenization with separators removed and
// twitter tags preserved, producing unigrams.
func DefaultOptions() Options {
	return Options{
		Granularity:      tokens.Word,
		RemoveSeparators: true,
		PreserveTwitter:  true,
		GuardFastPaths:   true,
		NGramSizes:       []int{1},
		Skips:            []int{0},
		Concatenator:     ngrams.DefaultConcatenator,
	}
}

// Validate checks the options without touching any document.
func (o Options) Validate() error {
	if !o.Granularity.Valid() {
		return fmt.Errorf("granularity %d: %w", int(o.Granularity), internalerr.ErrUnsupportedGranularity)
	}
	if _, _, err := ngrams.Normalize(o.NGramSizes, o.Skips); err != nil {
		return err
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers %d: %w", o.Workers, internalerr.ErrInvalidArgument)
	}
	return nil
}
