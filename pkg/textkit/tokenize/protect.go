package tokenize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// marker is U+2040 CHARACTER TIE. Its word-break class is ExtendNumLet, so
// a placeholder such as "⁀ht⁀" glued to letters stays inside one UAX #29
// word span. A marker already present in the input is escaped as
// literalMarker so that every marker in protected text opens or closes a
// placeholder.
const (
	markerRune    = '⁀'
	marker        = string(markerRune)
	literalMarker = marker + "mk" + marker
)

// abbreviations keep their trailing period during sentence segmentation.
var abbreviations = []string{"Mr", "Mrs", "Ms", "Dr", "Jr", "Prof", "Ph.D", "M", "MM", "St", "etc"}

var abbreviationRE = func() *regexp.Regexp {
	quoted := make([]string, len(abbreviations))
	for i, a := range abbreviations {
		quoted[i] = regexp.QuoteMeta(a)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\.`)
}()

// placeholderTable lists the reversible substitutions of one run.
type placeholderTable struct {
	literal   string
	hashtag   string
	mention   string
	hyphen    string
	period    string
	restorer  *strings.Replacer
	unescaper *strings.Replacer // drops escaped input markers only
}

func newPlaceholderTable() *placeholderTable {
	t := &placeholderTable{
		literal: literalMarker,
		hashtag: marker + "ht" + marker,
		mention: marker + "as" + marker,
		hyphen:  marker + "hy" + marker,
		period:  marker + "pd" + marker,
	}
	t.restorer = strings.NewReplacer(
		t.literal, marker,
		t.hashtag, "#",
		t.mention, "@",
		t.hyphen, "-",
		t.period, ".",
	)
	t.unescaper = strings.NewReplacer(
		t.literal, "",
		t.hashtag, t.hashtag,
		t.mention, t.mention,
		t.hyphen, t.hyphen,
		t.period, t.period,
	)
	return t
}

// restore maps every placeholder in s back to its literal character.
func (t *placeholderTable) restore(s string) string {
	if !strings.Contains(s, marker) {
		return s
	}
	return t.restorer.Replace(s)
}

// dropLiterals removes markers that came from the input text.
func (t *placeholderTable) dropLiterals(s string) string {
	if !strings.Contains(s, t.literal) {
		return s
	}
	return t.unescaper.Replace(s)
}

type dashMode int

const (
	dashNone    dashMode = iota
	dashGuard            // replace with the hyphen placeholder
	dashSplit            // replace with a space
	dashIsolate          // surround with spaces so the dash becomes its own token
)

// protector shields characters that a later stage would destroy.
type protector struct {
	table         *placeholderTable
	escape        bool
	twitter       *strings.Replacer
	dashes        dashMode
	abbreviations bool
}

func newProtector(table *placeholderTable, o Options) protector {
	g := o.Granularity
	// Grapheme spans never hold a whole placeholder.
	p := protector{table: table, escape: g != tokens.Character}
	fast := g.WordLike() && g != tokens.Word
	guarded := !fast || o.GuardFastPaths

	if g.WordLike() && o.PreserveTwitter && guarded {
		p.twitter = strings.NewReplacer("#", table.hashtag, "@", table.mention)
	}

	switch {
	case !g.WordLike():
	case o.RemoveHyphens && o.RemovePunct:
		p.dashes = dashSplit
	case o.RemovePunct && guarded:
		p.dashes = dashGuard
	case o.RemoveHyphens && fast:
		p.dashes = dashIsolate
	}

	p.abbreviations = g == tokens.Sentence
	return p
}

func (p protector) protect(s string) string {
	if p.escape && strings.Contains(s, marker) {
		s = strings.ReplaceAll(s, marker, p.table.literal)
	}
	if p.twitter != nil {
		s = p.twitter.Replace(s)
	}
	switch p.dashes {
	case dashGuard:
		s = rewriteDashes(s, func(rune) string { return p.table.hyphen })
	case dashSplit:
		s = rewriteDashes(s, func(rune) string { return " " })
	case dashIsolate:
		s = rewriteDashes(s, func(r rune) string { return " " + string(r) + " " })
	}
	if p.abbreviations {
		s = abbreviationRE.ReplaceAllString(s, "${1}"+p.table.period)
	}
	return s
}

// rewriteDashes replaces every dash punctuation rune that has a word rune on
// both sides.
func rewriteDashes(s string, repl func(rune) string) string {
	if !strings.ContainsFunc(s, isDash) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	prev := utf8.RuneError
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isDash(r) && isWordRune(prev) {
			next, _ := utf8.DecodeRuneInString(s[i+size:])
			if isWordRune(next) {
				b.WriteString(repl(r))
				prev = r
				i += size
				continue
			}
		}
		b.WriteString(s[i : i+size])
		prev = r
		i += size
	}
	return b.String()
}

func isDash(r rune) bool {
	return unicode.Is(unicode.Pd, r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || unicode.Is(unicode.Pc, r)
}
