package tokenize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

var (
	separatorRunRE = regexp.MustCompile(`[\p{Z}\t\n\v\f\r\x{85}]+`)
	separatorRE    = regexp.MustCompile(`[\p{Z}\t\n\v\f\r\x{85}]`)

	newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// segmenter splits a protected document into spans, dropping those keep rejects.
type segmenter interface {
	segment(text string, keep func(string) bool) []string
}

func newSegmenter(o Options) segmenter {
	switch o.Granularity {
	case tokens.Word:
		return wordSegmenter{}
	case tokens.Sentence:
		return sentenceSegmenter{}
	case tokens.Character:
		return characterSegmenter{}
	case tokens.Whitespace:
		return whitespaceSegmenter{keepSeparators: !o.RemoveSeparators}
	case tokens.FixedDelimiter:
		return fixedSegmenter{}
	}
	return nil
}

// wordSegmenter follows UAX #29 word boundaries. Spans are classified as
// they are produced, so removed classes never reach the filter stage.
type wordSegmenter struct{}

func (wordSegmenter) segment(text string, keep func(string) bool) []string {
	out := make([]string, 0, len(text)/4+1)
	state := -1
	var span string
	for len(text) > 0 {
		span, text, state = uniseg.FirstWordInString(text, state)
		if keep(span) {
			out = append(out, span)
		}
	}
	return out
}

// characterSegmenter yields one grapheme cluster per span.
type characterSegmenter struct{}

func (characterSegmenter) segment(text string, keep func(string) bool) []string {
	out := make([]string, 0, len(text))
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		if s := g.Str(); keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// sentenceSegmenter follows UAX #29 sentence boundaries after folding
// newlines into spaces. Trailing whitespace is trimmed from each sentence.
type sentenceSegmenter struct{}

func (sentenceSegmenter) segment(text string, keep func(string) bool) []string {
	text = newlines.Replace(text)
	var out []string
	state := -1
	var sentence string
	for len(text) > 0 {
		sentence, text, state = uniseg.FirstSentenceInString(text, state)
		sentence = strings.TrimRightFunc(sentence, unicode.IsSpace)
		if keep(sentence) {
			out = append(out, sentence)
		}
	}
	return out
}

// whitespaceSegmenter splits on runs of separator characters. When
// separators are kept, each separator character becomes its own span.
type whitespaceSegmenter struct {
	keepSeparators bool
}

func (s whitespaceSegmenter) segment(text string, keep func(string) bool) []string {
	if !s.keepSeparators {
		return keepSpans(separatorRunRE.Split(text, -1), keep)
	}

	var spans []string
	last := 0
	for _, loc := range separatorRE.FindAllStringIndex(text, -1) {
		spans = append(spans, text[last:loc[0]], text[loc[0]:loc[1]])
		last = loc[1]
	}
	spans = append(spans, text[last:])
	return keepSpans(spans, keep)
}

// fixedSegmenter splits on the ASCII space only and never collapses runs;
// the empty spans this produces are dropped by keep.
type fixedSegmenter struct{}

func (fixedSegmenter) segment(text string, keep func(string) bool) []string {
	return keepSpans(strings.Split(text, " "), keep)
}

func keepSpans(spans []string, keep func(string) bool) []string {
	out := spans[:0]
	for _, s := range spans {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
