package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/cognicore/textkit/internal/source"
	"github.com/cognicore/textkit/pkg/textkit"
	"github.com/cognicore/textkit/pkg/textkit/config"
	"github.com/cognicore/textkit/pkg/textkit/corpus"
	"github.com/cognicore/textkit/pkg/textkit/store"
	"github.com/cognicore/textkit/pkg/textkit/store/sqlite"
	"github.com/cognicore/textkit/pkg/textkit/tokenize"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	fs *flag.FlagSet

	inputs       string
	what         string
	removeNums   bool
	removePunct  bool
	removeSyms   bool
	removeSeps   bool
	removeHyph   bool
	removeURL    bool
	twitter      bool
	guardFast    bool
	nfc          bool
	ngramList    string
	skipList     string
	concatenator string
	workers      int

	configPath   string
	stoplistPath string
	foldCase     bool
	strict       bool
	html         bool
	title        bool
	prefix       string

	dbPath   string
	list     int
	loadID   string
	simplify bool
	verbose  bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	def := tokenize.DefaultOptions()
	f := &cliFlags{fs: flag.NewFlagSet("textkit", flag.ContinueOnError)}
	fs := f.fs
	fs.SetOutput(stderr)

	fs.StringVar(&f.inputs, "input", "", "Comma-separated input files (.jsonl/.ndjson or plain text); stdin when empty")
	fs.StringVar(&f.what, "what", def.Granularity.String(), "Granularity: word, sentence, character, whitespace, fixed")
	fs.BoolVar(&f.removeNums, "remove-numbers", def.RemoveNumbers, "Drop all-digit tokens")
	fs.BoolVar(&f.removePunct, "remove-punct", def.RemovePunct, "Drop punctuation")
	fs.BoolVar(&f.removeSyms, "remove-symbols", def.RemoveSymbols, "Drop symbols")
	fs.BoolVar(&f.removeSeps, "remove-separators", def.RemoveSeparators, "Drop whitespace tokens")
	fs.BoolVar(&f.removeHyph, "remove-hyphens", def.RemoveHyphens, "Split hyphenated words")
	fs.BoolVar(&f.removeURL, "remove-url", def.RemoveURL, "Strip http(s) URLs")
	fs.BoolVar(&f.twitter, "preserve-twitter", def.PreserveTwitter, "Keep #hashtags and @mentions intact")
	fs.BoolVar(&f.guardFast, "guard-fast-paths", def.GuardFastPaths, "Protect hashtags and hyphens for whitespace/fixed granularities")
	fs.BoolVar(&f.nfc, "nfc", def.NormalizeUnicode, "Apply NFC normalization first")
	fs.StringVar(&f.ngramList, "ngrams", "1", "Comma-separated n-gram sizes")
	fs.StringVar(&f.skipList, "skip", "0", "Comma-separated skip distances")
	fs.StringVar(&f.concatenator, "concatenator", def.Concatenator, "N-gram joiner")
	fs.IntVar(&f.workers, "workers", 0, "Parallel documents (0 = GOMAXPROCS)")

	fs.StringVar(&f.configPath, "config", "", "YAML options file (optional)")
	fs.StringVar(&f.stoplistPath, "stoplist", "", "YAML stoplist file (optional)")
	fs.BoolVar(&f.foldCase, "fold-case", false, "Match stopwords case-insensitively")
	fs.BoolVar(&f.strict, "strict", false, "Fail on unknown option keys")
	fs.BoolVar(&f.html, "html", false, "Extract text from HTML input")
	fs.BoolVar(&f.title, "title", false, "Prepend the JSONL title to each document's text")
	fs.StringVar(&f.prefix, "prefix", corpus.DefaultPrefix, "Base for generated document names")

	fs.StringVar(&f.dbPath, "db", "", "SQLite database to save runs into (optional)")
	fs.IntVar(&f.list, "list", 0, "List the N most recent saved runs and exit (requires -db)")
	fs.StringVar(&f.loadID, "load", "", "Print a saved run and exit (requires -db)")
	fs.BoolVar(&f.simplify, "simplify", false, "Print one flat token array")
	fs.BoolVar(&f.verbose, "v", false, "Verbose diagnostics on stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if (f.list > 0 || f.loadID != "") && f.dbPath == "" {
		return nil, errors.New("--db required with --list or --load")
	}
	return f, nil
}

// set reports whether name was given on the command line.
func (f *cliFlags) set(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// paths returns the input files from -input and positional arguments.
func (f *cliFlags) paths() []string {
	var out []string
	for _, p := range strings.Split(f.inputs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return append(out, f.fs.Args()...)
}

// buildOptions loads the config files and applies explicitly set flags on top.
func buildOptions(f *cliFlags, logger *slog.Logger) (*config.Components, error) {
	loader := config.Loader{
		OptionsPath:  f.configPath,
		StoplistPath: f.stoplistPath,
		Strict:       f.strict,
		FoldCase:     f.foldCase,
		Logger:       logger,
	}
	comp, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	o := &comp.Options
	if f.set("what") {
		g, err := tokens.ParseGranularity(f.what)
		if err != nil {
			return nil, err
		}
		o.Granularity = g
	}
	bools := []struct {
		name string
		dst  *bool
		val  bool
	}{
		{"remove-numbers", &o.RemoveNumbers, f.removeNums},
		{"remove-punct", &o.RemovePunct, f.removePunct},
		{"remove-symbols", &o.RemoveSymbols, f.removeSyms},
		{"remove-separators", &o.RemoveSeparators, f.removeSeps},
		{"remove-hyphens", &o.RemoveHyphens, f.removeHyph},
		{"remove-url", &o.RemoveURL, f.removeURL},
		{"preserve-twitter", &o.PreserveTwitter, f.twitter},
		{"guard-fast-paths", &o.GuardFastPaths, f.guardFast},
		{"nfc", &o.NormalizeUnicode, f.nfc},
	}
	for _, b := range bools {
		if f.set(b.name) {
			*b.dst = b.val
		}
	}
	if f.set("ngrams") {
		if o.NGramSizes, err = parseInts(f.ngramList); err != nil {
			return nil, fmt.Errorf("--ngrams: %w", err)
		}
	}
	if f.set("skip") {
		if o.Skips, err = parseInts(f.skipList); err != nil {
			return nil, fmt.Errorf("--skip: %w", err)
		}
	}
	if f.set("concatenator") {
		o.Concatenator = f.concatenator
	}
	if f.set("workers") {
		o.Workers = f.workers
	}
	o.Logger = logger
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return comp, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func newLogger(stderr io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	f, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, f.verbose)
	corpus.SetDefaultPrefix(f.prefix)

	comp, err := buildOptions(f, logger)
	if err != nil {
		return err
	}

	var st store.Store
	if f.dbPath != "" {
		st, err = sqlite.OpenSQLite(ctx, f.dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
	}

	kit, err := textkit.New(textkit.Options{
		Store:    st,
		Tokenize: comp.Options,
		Stoplist: comp.Stoplist,
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return err
	}
	defer kit.Close()

	switch {
	case f.list > 0:
		runs, err := kit.Runs(ctx, f.list)
		if err != nil {
			return err
		}
		return writeJSON(stdout, runsOutput(runs))
	case f.loadID != "":
		b, err := kit.Load(ctx, f.loadID)
		if err != nil {
			return err
		}
		return writeBatch(stdout, "", b, f.simplify)
	}

	docs, err := readInputs(f, stdin, logger)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d documents", docs.Len())

	var (
		id     string
		b      *tokens.Batch
		docErr error
	)
	if st != nil {
		id, b, docErr = kit.TokenizeAndSave(ctx, docs)
	} else {
		b, docErr = kit.Tokenize(ctx, docs)
	}
	if b == nil {
		return docErr
	}
	if id != "" {
		log.Printf("Saved run %s", id)
	}
	if err := writeBatch(stdout, id, b, f.simplify); err != nil {
		return err
	}
	if docErr != nil {
		return fmt.Errorf("%d of %d documents failed: %w", countFailed(b), b.Len(), docErr)
	}
	return nil
}

func readInputs(f *cliFlags, stdin io.Reader, logger *slog.Logger) (corpus.Batch, error) {
	opts := source.Options{HTML: f.html, IncludeTitle: f.title, Logger: logger}
	paths := f.paths()
	if len(paths) > 0 {
		return source.Load(paths, opts)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return corpus.Batch{}, fmt.Errorf("read stdin: %w", err)
	}
	text := string(data)
	if f.html {
		text = source.StripHTML(text)
	}
	return corpus.FromTexts(text), nil
}

func countFailed(b *tokens.Batch) int {
	n := 0
	for i := 0; i < b.Len(); i++ {
		if b.At(i).Failed() {
			n++
		}
	}
	return n
}
