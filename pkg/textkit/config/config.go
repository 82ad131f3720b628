// Package config loads tokenizer options and stoplists from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/tokenize"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// Options is the YAML form of tokenize.Options. Unset keys keep the value
// of the options they are applied to.
type Options struct {
	What             string  `yaml:"what"`
	RemoveNumbers    *bool   `yaml:"remove_numbers"`
	RemovePunct      *bool   `yaml:"remove_punct"`
	RemoveSymbols    *bool   `yaml:"remove_symbols"`
	RemoveSeparators *bool   `yaml:"remove_separators"`
	RemoveHyphens    *bool   `yaml:"remove_hyphens"`
	RemoveURL        *bool   `yaml:"remove_url"`
	PreserveTwitter  *bool   `yaml:"preserve_twitter"`
	GuardFastPaths   *bool   `yaml:"guard_fast_paths"`
	NormalizeUnicode *bool   `yaml:"normalize_unicode"`
	NGrams           []int   `yaml:"ngrams"`
	Skip             []int   `yaml:"skip"`
	Concatenator     *string `yaml:"concatenator"`
	Workers          *int    `yaml:"workers"`

	// Unknown lists top-level keys that are not recognised, in file order.
	Unknown []string `yaml:"-"`
}

var knownKeys = map[string]struct{}{
	"what": {}, "remove_numbers": {}, "remove_punct": {}, "remove_symbols": {},
	"remove_separators": {}, "remove_hyphens": {}, "remove_url": {},
	"preserve_twitter": {}, "guard_fast_paths": {}, "normalize_unicode": {},
	"ngrams": {}, "skip": {}, "concatenator": {}, "workers": {},
}

// KnownKeys returns the recognised option keys, sorted.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseOptions decodes an options document. An empty document yields
// empty Options.
func ParseOptions(data []byte) (*Options, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse options: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	var opts Options
	if len(root.Content) == 0 {
		return &opts, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("options must be a mapping: %w", internalerr.ErrInvalidConfig)
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		if _, ok := knownKeys[key]; !ok {
			opts.Unknown = append(opts.Unknown, key)
		}
	}
	if err := doc.Decode(&opts); err != nil {
		return nil, fmt.Errorf("decode options: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	return &opts, nil
}

// ReadOptions decodes options from r.
func ReadOptions(r io.Reader) (*Options, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return ParseOptions(buf.Bytes())
}

// LoadOptions loads options from a YAML file
func LoadOptions(path string) (*Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadOptions(f)
}

// Apply overlays the set fields onto base and returns the result.
func (c *Options) Apply(base tokenize.Options) (tokenize.Options, error) {
	out := base
	if c.What != "" {
		g, err := tokens.ParseGranularity(c.What)
		if err != nil {
			return base, fmt.Errorf("what: %w", err)
		}
		out.Granularity = g
	}
	setBool(&out.RemoveNumbers, c.RemoveNumbers)
	setBool(&out.RemovePunct, c.RemovePunct)
	setBool(&out.RemoveSymbols, c.RemoveSymbols)
	setBool(&out.RemoveSeparators, c.RemoveSeparators)
	setBool(&out.RemoveHyphens, c.RemoveHyphens)
	setBool(&out.RemoveURL, c.RemoveURL)
	setBool(&out.PreserveTwitter, c.PreserveTwitter)
	setBool(&out.GuardFastPaths, c.GuardFastPaths)
	setBool(&out.NormalizeUnicode, c.NormalizeUnicode)
	if len(c.NGrams) > 0 {
		out.NGramSizes = append([]int(nil), c.NGrams...)
	}
	if len(c.Skip) > 0 {
		out.Skips = append([]int(nil), c.Skip...)
	}
	if c.Concatenator != nil {
		out.Concatenator = *c.Concatenator
	}
	if c.Workers != nil {
		out.Workers = *c.Workers
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}

// CheckUnknown returns an ErrInvalidArgument error naming the unknown keys,
// or nil when there are none.
func (c *Options) CheckUnknown() error {
	if len(c.Unknown) == 0 {
		return nil
	}
	errs := make([]error, len(c.Unknown))
	for i, k := range c.Unknown {
		errs[i] = fmt.Errorf("unknown option %q: %w", k, internalerr.ErrInvalidArgument)
	}
	return errors.Join(errs...)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("parse stoplist: %v: %w", err, internalerr.ErrInvalidConfig)
	}

	return &sl, nil
}
