package config

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cognicore/textkit/pkg/textkit/stoplist"
	"github.com/cognicore/textkit/pkg/textkit/tokenize"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	OptionsPath  string
	StoplistPath string

	// Strict makes unknown option keys fatal instead of logged.
	Strict bool
	// FoldCase matches stopwords case-insensitively.
	FoldCase bool

	Logger *slog.Logger
}

// Components holds all loaded configuration components
type Components struct {
	Options  tokenize.Options
	Stoplist *stoplist.Manager
	// Unknown lists ignored option keys when not strict.
	Unknown []string
}

// Load reads all configuration files on top of tokenize.DefaultOptions.
func (l *Loader) Load() (*Components, error) {
	return l.LoadOnto(tokenize.DefaultOptions())
}

// LoadOnto reads all configuration files on top of base.
func (l *Loader) LoadOnto(base tokenize.Options) (*Components, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	comp := &Components{Options: base}

	if l.OptionsPath != "" {
		file, err := LoadOptions(l.OptionsPath)
		if err != nil {
			return nil, fmt.Errorf("load options: %w", err)
		}
		if l.Strict {
			if err := file.CheckUnknown(); err != nil {
				return nil, fmt.Errorf("load options %s: %w", l.OptionsPath, err)
			}
		}
		for _, k := range file.Unknown {
			logger.Warn("ignoring unknown option", "key", k, "file", l.OptionsPath)
		}
		comp.Unknown = file.Unknown
		opts, err := file.Apply(base)
		if err != nil {
			return nil, fmt.Errorf("load options %s: %w", l.OptionsPath, err)
		}
		comp.Options = opts
	}
	if comp.Options.Logger == nil {
		comp.Options.Logger = l.Logger
	}

	var stoplistOpts []stoplist.Option
	if l.FoldCase {
		stoplistOpts = append(stoplistOpts, stoplist.WithFoldCase())
	}
	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stoplist.NewManager(sl.Terms, stoplistOpts...)
	} else {
		comp.Stoplist = stoplist.NewManager([]string{}, stoplistOpts...)
	}

	return comp, nil
}
