package tokens

import (
	"fmt"
	"strings"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
)

// Granularity is the unit of segmentation.
type Granularity int

const (
	Word           Granularity = iota // UAX #29 word boundaries
	Sentence                          // UAX #29 sentence boundaries
	Character                         // grapheme clusters
	Whitespace                        // runs of separator characters ("fasterword")
	FixedDelimiter                    // single ASCII space ("fastestword")
)

// String returns the canonical name of the granularity.
func (g Granularity) String() string {
	switch g {
	case Word:
		return "word"
	case Sentence:
		return "sentence"
	case Character:
		return "character"
	case Whitespace:
		return "whitespace"
	case FixedDelimiter:
		return "fixed"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// Valid reports whether g is one of the known variants.
func (g Granularity) Valid() bool {
	return g >= Word && g <= FixedDelimiter
}

// WordLike reports whether g produces word tokens and therefore takes part
// in twitter and hyphen protection.
func (g Granularity) WordLike() bool {
	return g == Word || g == Whitespace || g == FixedDelimiter
}

// ParseGranularity maps a name to a Granularity. The names
// "fasterword" and "fastestword" are accepted as aliases.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word", "":
		return Word, nil
	case "sentence":
		return Sentence, nil
	case "character", "char":
		return Character, nil
	case "whitespace", "fasterword":
		return Whitespace, nil
	case "fixed", "fixed-delimiter", "fastestword":
		return FixedDelimiter, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, internalerr.ErrUnsupportedGranularity)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (g Granularity) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%d: %w", int(g), internalerr.ErrUnsupportedGranularity)
	}
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Granularity) UnmarshalText(b []byte) error {
	v, err := ParseGranularity(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}
