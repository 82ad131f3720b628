package tokenize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cognicore/textkit/pkg/textkit/corpus"
	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

func tokenizeText(t *testing.T, text string, opts Options) []string {
	t.Helper()
	got, err := Text(context.Background(), text, opts)
	if err != nil {
		t.Fatalf("Text(%q): %v", text, err)
	}
	return got
}

func TestTokenizeWordDefaults(t *testing.T) {
	got := tokenizeText(t, "The quick brown fox.", DefaultOptions())

	want := []string{"The", "quick", "brown", "fox", "."}
	if !equalTokens(got, want) {
		t.Errorf("Tokenize = %q, want %q", got, want)
	}
}

func TestTokenizeWordFilters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  func(*Options)
		want  []string
	}{
		{"remove punct", "hello! world? test... end.", func(o *Options) { o.RemovePunct = true },
			[]string{"hello", "world", "test", "end"}},
		{"hyphen kept as one token", "self-storage", func(o *Options) { o.RemovePunct = true },
			[]string{"self-storage"}},
		{"hyphen split", "self-storage", func(o *Options) { o.RemovePunct = true; o.RemoveHyphens = true },
			[]string{"self", "storage"}},
		{"hyphen split without punct removal keeps dash", "self-storage", func(o *Options) { o.RemoveHyphens = true },
			[]string{"self", "-", "storage"}},
		{"unicode dash guarded", "state\u2013of\u2013the\u2013art", func(o *Options) { o.RemovePunct = true },
			[]string{"state-of-the-art"}},
		{"dangling dash removed", "well - known -", func(o *Options) { o.RemovePunct = true },
			[]string{"well", "known"}},
		{"digit-leading word kept", "2day is great", func(o *Options) { o.RemoveNumbers = true },
			[]string{"2day", "is", "great"}},
		{"pure number dropped", "42 is great", func(o *Options) { o.RemoveNumbers = true },
			[]string{"is", "great"}},
		{"symbols", "price $100 + tax", func(o *Options) { o.RemoveSymbols = true },
			[]string{"price", "100", "tax"}},
		{"separators kept", "a b", func(o *Options) { o.RemoveSeparators = false },
			[]string{"a", " ", "b"}},
		{"punct removal drops separators", "a b, c", func(o *Options) { o.RemovePunct = true; o.RemoveSeparators = false },
			[]string{"a", "b", "c"}},
		{"url removed", "Visit https://example.com today", func(o *Options) { o.RemoveURL = true },
			[]string{"Visit", "today"}},
		{"twitter preserved", "#rstats and @quanteda", nil,
			[]string{"#rstats", "and", "@quanteda"}},
		{"twitter preserved with punct removal", "#rstats and @quanteda!", func(o *Options) { o.RemovePunct = true },
			[]string{"#rstats", "and", "@quanteda"}},
		{"twitter not preserved", "#rstats and @quanteda", func(o *Options) { o.PreserveTwitter = false },
			[]string{"#", "rstats", "and", "@", "quanteda"}},
		{"twitter stripped", "#rstats and @quanteda", func(o *Options) { o.PreserveTwitter = false; o.RemovePunct = true },
			[]string{"rstats", "and", "quanteda"}},
		{"email survives", "mail me@example.com now", nil,
			[]string{"mail", "me@example.com", "now"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			opts := DefaultOptions()
			if tc.opts != nil {
				tc.opts(&opts)
			}
			got := tokenizeText(t, tc.input, opts)
			if !equalTokens(got, tc.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTokenizeURLNotLeftBehind(t *testing.T) {
	opts := DefaultOptions()
	opts.RemoveURL = true

	for _, g := range []tokens.Granularity{tokens.Word, tokens.Whitespace, tokens.FixedDelimiter} {
		opts.Granularity = g
		got := tokenizeText(t, "Visit https://example.com today", opts)
		for _, tok := range got {
			if strings.HasPrefix(tok, "http") {
				t.Errorf("%v: URL fragment %q left in %q", g, tok, got)
			}
		}
	}
}

func TestTokenizeSentence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"abbreviation guard", "Mr. Smith went home.", []string{"Mr. Smith went home."}},
		{"two sentences", "This is one. This is two.", []string{"This is one.", "This is two."}},
		{"newline folded", "First line\nstill first. Second!", []string{"First line still first.", "Second!"}},
		{"abbreviation then question", "Dr. Who? Yes.", []string{"Dr. Who?", "Yes."}},
		{"whitespace only", "   ", []string{}},
	}

	opts := DefaultOptions()
	opts.Granularity = tokens.Sentence
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := tokenizeText(t, tc.input, opts)
			if !equalTokens(got, tc.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTokenizeCharacter(t *testing.T) {
	opts := DefaultOptions()
	opts.Granularity = tokens.Character

	if got := tokenizeText(t, "an\u0303o", opts); !equalTokens(got, []string{"a", "n\u0303", "o"}) {
		t.Errorf("Grapheme clusters = %q", got)
	}
	if got := tokenizeText(t, "a b", opts); !equalTokens(got, []string{"a", "b"}) {
		t.Errorf("Separators should be removed, got %q", got)
	}

	opts.RemovePunct = true
	if got := tokenizeText(t, "a,b#", opts); !equalTokens(got, []string{"a", "b"}) {
		t.Errorf("Punctuation should be removed, got %q", got)
	}
}

func TestTokenizeWhitespace(t *testing.T) {
	opts := DefaultOptions()
	opts.Granularity = tokens.Whitespace

	if got := tokenizeText(t, "a  b\tc d", opts); !equalTokens(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("Whitespace split = %q", got)
	}
	if got := tokenizeText(t, "c\u200bd e\u00a0f", opts); !equalTokens(got, []string{"c\u200bd", "e", "f"}) {
		t.Errorf("Zero width space should not split = %q", got)
	}

	opts.RemovePunct = true
	if got := tokenizeText(t, "hello, world! #tag self-storage", opts); !equalTokens(got, []string{"hello", "world", "#tag", "self-storage"}) {
		t.Errorf("Whitespace with punct removal = %q", got)
	}

	opts.RemoveNumbers = true
	if got := tokenizeText(t, "42 2day 3.14", opts); !equalTokens(got, []string{"2day"}) {
		t.Errorf("Whitespace with number removal = %q", got)
	}
}

func TestTokenizeWhitespaceKeepSeparators(t *testing.T) {
	opts := DefaultOptions()
	opts.Granularity = tokens.Whitespace
	opts.RemoveSeparators = false

	got := tokenizeText(t, "a  b", opts)
	want := []string{"a", " ", " ", "b"}
	if !equalTokens(got, want) {
		t.Errorf("Tokenize = %q, want %q", got, want)
	}
}

func TestTokenizeFastPathGuards(t *testing.T) {
	opts := DefaultOptions()
	opts.Granularity = tokens.Whitespace
	opts.RemovePunct = true
	opts.GuardFastPaths = false

	got := tokenizeText(t, "self-storage #tag", opts)
	want := []string{"selfstorage", "#tag"}
	if !equalTokens(got, want) {
		t.Errorf("Unguarded fast path = %q, want %q", got, want)
	}

	opts.RemovePunct = false
	opts.RemoveHyphens = true
	opts.GuardFastPaths = true
	got = tokenizeText(t, "self-storage", opts)
	want = []string{"self", "-", "storage"}
	if !equalTokens(got, want) {
		t.Errorf("Isolated dash = %q, want %q", got, want)
	}
}

func TestTokenizeFixedDelimiter(t *testing.T) {
	opts := DefaultOptions()
	opts.Granularity = tokens.FixedDelimiter

	got := tokenizeText(t, "a  b\tc d ", opts)
	want := []string{"a", "b\tc", "d"}
	if !equalTokens(got, want) {
		t.Errorf("Tokenize = %q, want %q", got, want)
	}
}

func TestTokenizeNGrams(t *testing.T) {
	opts := DefaultOptions()
	opts.NGramSizes = []int{2}

	batch, err := Tokenize(context.Background(), corpus.FromTexts("a b c"), opts)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := batch.At(0).Tokens; !equalTokens(got, []string{"a_b", "b_c"}) {
		t.Errorf("Bigrams = %q", got)
	}
	if batch.Concatenator() != "_" {
		t.Errorf("Expected concatenator _, got %q", batch.Concatenator())
	}

	opts.NGramSizes = []int{1, 2}
	batch, err = Tokenize(context.Background(), corpus.FromTexts("a b c"), opts)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := batch.At(0).Tokens; !equalTokens(got, []string{"a", "b", "c", "a_b", "b_c"}) {
		t.Errorf("Uni+bigrams = %q", got)
	}
}

func TestTokenizeUnigramMetadata(t *testing.T) {
	batch, err := Tokenize(context.Background(), corpus.FromTexts("a b"), DefaultOptions())
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if batch.Concatenator() != "" {
		t.Errorf("Unigram run should record empty concatenator, got %q", batch.Concatenator())
	}
	if batch.Granularity() != tokens.Word {
		t.Errorf("Expected word granularity, got %v", batch.Granularity())
	}
}

func TestTokenizeLengthAndNames(t *testing.T) {
	docs, err := corpus.New(
		corpus.Document{Name: "inaugural", Text: "We the people."},
		corpus.Document{Name: "empty", Text: ""},
		corpus.Document{Name: "punct-only", Text: "?!..."},
		corpus.Document{Text: "unnamed"},
	)
	if err != nil {
		t.Fatalf("corpus.New: %v", err)
	}

	opts := DefaultOptions()
	opts.RemovePunct = true
	for _, g := range []tokens.Granularity{tokens.Word, tokens.Sentence, tokens.Character, tokens.Whitespace, tokens.FixedDelimiter} {
		opts.Granularity = g
		batch, err := Tokenize(context.Background(), docs, opts)
		if err != nil {
			t.Fatalf("%v: Tokenize: %v", g, err)
		}
		if batch.Len() != docs.Len() {
			t.Errorf("%v: output length %d, input length %d", g, batch.Len(), docs.Len())
		}
		if !equalTokens(batch.Names(), docs.Names()) {
			t.Errorf("%v: names %q, want %q", g, batch.Names(), docs.Names())
		}
		if d := batch.At(1); d.Tokens == nil || len(d.Tokens) != 0 || d.Failed() {
			t.Errorf("%v: empty document should yield an empty, non-failed entry, got %#v", g, d)
		}
	}
}

func TestTokenizeEncodingErrorIsolated(t *testing.T) {
	docs := corpus.FromTexts("good text", "bad \xff text", "more good")

	batch, err := Tokenize(context.Background(), docs, DefaultOptions())
	if batch == nil {
		t.Fatalf("Expected a batch alongside document errors, got err %v", err)
	}
	if !errors.Is(err, internalerr.ErrEncoding) {
		t.Errorf("Expected ErrEncoding, got %v", err)
	}

	var docErr *DocumentError
	if !errors.As(err, &docErr) {
		t.Fatalf("Expected *DocumentError, got %T", err)
	}
	if docErr.Index != 1 || docErr.Name != "text2" {
		t.Errorf("Unexpected failing document: %+v", docErr)
	}

	if !batch.At(1).Failed() {
		t.Error("Document 2 should be failed")
	}
	if batch.At(0).Failed() || batch.At(2).Failed() {
		t.Error("Sibling documents should not fail")
	}
	if got := batch.At(2).Tokens; !equalTokens(got, []string{"more", "good"}) {
		t.Errorf("Sibling tokens = %q", got)
	}

	if _, err := Text(context.Background(), "\xff", DefaultOptions()); !errors.Is(err, internalerr.ErrEncoding) {
		t.Errorf("Text: expected ErrEncoding, got %v", err)
	}
}

func TestTokenizeUnsupportedGranularity(t *testing.T) {
	opts := DefaultOptions()
	opts.Granularity = tokens.Granularity(99)

	_, err := Tokenize(context.Background(), corpus.FromTexts("x"), opts)
	if !errors.Is(err, internalerr.ErrUnsupportedGranularity) {
		t.Errorf("Expected ErrUnsupportedGranularity, got %v", err)
	}
}

func TestTokenizeInvalidNGrams(t *testing.T) {
	opts := DefaultOptions()
	opts.NGramSizes = []int{0}

	_, err := Tokenize(context.Background(), corpus.FromTexts("x"), opts)
	if !errors.Is(err, internalerr.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestTokenizeNoPlaceholderLeaks(t *testing.T) {
	inputs := []string{
		"#rstats @user self-storage Mr. Smith, Dr. Who etc. Ph.D. stuff",
		"#-@ ## @@ a--b x-y-z #1 @2",
		"Prof. X lives on St. Mark's. MM. M. Dupont",
	}
	grans := []tokens.Granularity{tokens.Word, tokens.Sentence, tokens.Character, tokens.Whitespace, tokens.FixedDelimiter}

	for _, in := range inputs {
		for _, g := range grans {
			for _, punct := range []bool{false, true} {
				for _, hyphens := range []bool{false, true} {
					for _, twitter := range []bool{false, true} {
						opts := DefaultOptions()
						opts.Granularity = g
						opts.RemovePunct = punct
						opts.RemoveHyphens = hyphens
						opts.PreserveTwitter = twitter
						for _, tok := range tokenizeText(t, in, opts) {
							if strings.Contains(tok, marker) {
								t.Errorf("%v punct=%v hyphens=%v twitter=%v: placeholder leaked in %q", g, punct, hyphens, twitter, tok)
							}
						}
					}
				}
			}
		}
	}
}

func TestTokenizeLiteralMarker(t *testing.T) {
	tie := "\u2040"
	grans := []tokens.Granularity{tokens.Word, tokens.Whitespace, tokens.FixedDelimiter}

	for _, g := range grans {
		opts := DefaultOptions()
		opts.Granularity = g

		in := "C" + tie + "ht" + tie + " and x" + tie + "as" + tie + "y"
		want := []string{"C" + tie + "ht" + tie, "and", "x" + tie + "as" + tie + "y"}
		if got := tokenizeText(t, in, opts); !equalTokens(got, want) {
			t.Errorf("%v: literal text rewritten: got %q, want %q", g, got, want)
		}

		opts.RemovePunct = true
		stripped := []struct {
			in   string
			want []string
		}{
			{"x " + tie + " y", []string{"x", "y"}},
			{tie + tie + " x " + tie, []string{"x"}},
		}
		for _, tc := range stripped {
			if got := tokenizeText(t, tc.in, opts); !equalTokens(got, tc.want) {
				t.Errorf("%v: Tokenize(%q) with punct removal = %q, want %q", g, tc.in, got, tc.want)
			}
		}
	}

	opts := DefaultOptions()
	opts.Granularity = tokens.Character
	opts.RemovePunct = true
	if got := tokenizeText(t, "x"+tie+"y", opts); !equalTokens(got, []string{"x", "y"}) {
		t.Errorf("character: got %q", got)
	}
}

func TestFilterTokensIdempotent(t *testing.T) {
	input := "#rstats self-storage, 42 2day! price $5 http://x.io Mr. Smith"
	grans := []tokens.Granularity{tokens.Word, tokens.Sentence, tokens.Character, tokens.Whitespace, tokens.FixedDelimiter}

	for _, g := range grans {
		opts := DefaultOptions()
		opts.Granularity = g
		opts.RemovePunct = true
		opts.RemoveNumbers = true
		opts.RemoveSymbols = true

		first := tokenizeText(t, input, opts)
		second, err := FilterTokens(first, opts)
		if err != nil {
			t.Fatalf("FilterTokens: %v", err)
		}
		if !equalTokens(first, second) {
			t.Errorf("%v: refiltering changed output\nfirst:  %q\nsecond: %q", g, first, second)
		}
	}
}

func TestTokenizeNormalizeUnicode(t *testing.T) {
	opts := DefaultOptions()
	opts.NormalizeUnicode = true

	got := tokenizeText(t, "man\u0303ana", opts)
	if !equalTokens(got, []string{"ma\u00f1ana"}) {
		t.Errorf("NFC token = %q", got)
	}
}

func TestSimplify(t *testing.T) {
	got, err := Simplify(context.Background(), corpus.FromTexts("a b", "c"), DefaultOptions())
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if !equalTokens(got, []string{"a", "b", "c"}) {
		t.Errorf("Simplify = %q", got)
	}
}

func TestTokenizeOrderWithManyWorkers(t *testing.T) {
	texts := make([]string, 200)
	for i := range texts {
		texts[i] = fmt.Sprintf("doc %d", i)
	}
	opts := DefaultOptions()
	opts.Workers = 8

	batch, err := Tokenize(context.Background(), corpus.FromTexts(texts...), opts)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	for i := range texts {
		want := []string{"doc", fmt.Sprint(i)}
		if got := batch.At(i).Tokens; !equalTokens(got, want) {
			t.Fatalf("Document %d = %q, want %q", i, got, want)
		}
	}
}

func TestTokenizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Tokenize(ctx, corpus.FromTexts("a", "b"), DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// Helper function for comparing token lists
func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
