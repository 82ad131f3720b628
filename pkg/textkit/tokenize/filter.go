package tokenize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

var (
	// Best-effort http(s) URL: scheme, optional www., host, 2-4 letter TLD,
	// optional path and query.
	urlRE = regexp.MustCompile(`https?://(?:www\.)?[-a-zA-Z0-9@:%._+~#=]{2,256}\.[a-z]{2,4}\b[-a-zA-Z0-9@:%_+.~#?&/=]*`)

	// wordRunRE matches maximal runs of word characters; a run made only of
	// digits is a standalone number.
	wordRunRE = regexp.MustCompile(`[\pL\pM\pN\p{Pc}]+`)

	punctRE       = regexp.MustCompile(`\pP+`)
	symbolRE      = regexp.MustCompile(`\pS+`)
	punctSymbolRE = regexp.MustCompile(`[\pP\pS]+`)
)

// filter removes unwanted span classes.
type filter struct {
	numbers    bool
	punct      bool
	symbols    bool
	separators bool
	wordLike   bool
	twitter    bool // '@' and '#' survive punctuation removal
	sentence   bool

	// strip is the whole-document pass used by the fast granularities.
	strip *regexp.Regexp
	fast  bool

	table *placeholderTable
}

func newFilter(table *placeholderTable, o Options) filter {
	f := filter{
		numbers: o.RemoveNumbers,
		punct:   o.RemovePunct,
		symbols: o.RemoveSymbols,
		// Punctuation removal subsumes separator handling for words.
		separators: o.RemoveSeparators || (o.RemovePunct && o.Granularity == tokens.Word),
		wordLike:   o.Granularity.WordLike(),
		twitter:    o.PreserveTwitter && o.Granularity.WordLike(),
		sentence:   o.Granularity == tokens.Sentence,
		fast:       o.Granularity == tokens.Whitespace || o.Granularity == tokens.FixedDelimiter,
		table:      table,
	}
	switch {
	case f.punct && f.symbols:
		f.strip = punctSymbolRE
	case f.punct:
		f.strip = punctRE
	case f.symbols:
		f.strip = symbolRE
	}
	return f
}

// exempt reports whether r survives punctuation removal. Only word-like
// granularities carve anything out.
func (f filter) exempt(r rune) bool {
	if !f.wordLike {
		return false
	}
	switch r {
	case '_':
		return true
	case '@', '#':
		return f.twitter
	}
	return false
}

// prepare applies number, punctuation and symbol removal to a whole document
// before splitting. Only the fast granularities need it; the others classify
// spans at segmentation time.
func (f filter) prepare(text string) string {
	if !f.fast {
		return text
	}
	if f.numbers {
		text = wordRunRE.ReplaceAllStringFunc(text, func(run string) string {
			if allDigits(run) {
				return ""
			}
			return run
		})
	}
	if f.punct {
		text = f.table.dropLiterals(text)
	}
	if f.strip != nil {
		text = f.strip.ReplaceAllStringFunc(text, func(m string) string {
			return strings.Map(func(r rune) rune {
				if r != markerRune && f.removable(r) {
					return -1
				}
				return r
			}, m)
		})
	}
	return text
}

// keep reports whether a span survives filtering. Placeholders are
// classified as the characters they stand for.
func (f filter) keep(span string) bool {
	if f.sentence {
		return strings.TrimSpace(span) != ""
	}
	if span == "" {
		return false
	}
	span = f.table.restore(span)
	if f.numbers && allDigits(span) {
		return false
	}

	significant := false
	for _, r := range span {
		if ignorable(r) {
			continue
		}
		significant = true
		if !f.removable(r) {
			return true
		}
	}
	return !significant
}

// removable reports whether a single rune belongs to a class being removed.
func (f filter) removable(r rune) bool {
	switch {
	case isSeparator(r):
		return f.separators
	case unicode.IsPunct(r):
		return f.punct && !f.exempt(r)
	case unicode.IsSymbol(r):
		return f.symbols
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.In(r, unicode.Z)
}

// ignorable runes never decide a span's class: combining marks, variation
// selectors and joiners ride along with the base character.
func ignorable(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me, unicode.Cf)
}
