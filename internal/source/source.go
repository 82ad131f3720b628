// Package source reads documents from JSONL and plain-text files.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/textkit/pkg/textkit/corpus"
)

// Item is one JSONL record. The document name is taken from the first
// non-empty of Name, ID and URL; records without any get a default name.
type Item struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Body  string `json:"text"`
}

func (it Item) name() string {
	for _, s := range []string{it.Name, it.ID, it.URL} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Options controls how files are turned into documents.
type Options struct {
	// HTML extracts the visible text from HTML bodies.
	HTML bool
	// IncludeTitle prepends the JSONL title as its own line.
	IncludeTitle bool
	Logger       *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

const maxLine = 16 << 20

// ReadJSONL reads one document per line. Malformed lines are logged and
// skipped; blank lines are ignored.
func ReadJSONL(r io.Reader, origin string, opts Options) ([]corpus.Document, error) {
	log := opts.logger()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var docs []corpus.Document
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			log.Warn("skipping malformed JSON", "line", lineNo, "source", origin, "err", err)
			continue
		}
		text := item.Body
		if opts.HTML {
			text = StripHTML(text)
		}
		if opts.IncludeTitle && item.Title != "" {
			text = item.Title + "\n" + text
		}
		docs = append(docs, corpus.Document{Name: item.name(), Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", origin, err)
	}
	return docs, nil
}

// LoadFromJSONL loads documents from a JSONL file with proper error handling
func LoadFromJSONL(path string, opts Options) ([]corpus.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	docs, err := ReadJSONL(f, path, opts)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no valid items found in %s", path)
	}
	return docs, nil
}

// LoadText reads a whole file as one document named after the file.
// The bytes are passed through unchanged so encoding problems surface
// during tokenization.
func LoadText(path string, opts Options) (corpus.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return corpus.Document{}, fmt.Errorf("read file %s: %w", path, err)
	}
	text := string(data)
	if opts.HTML {
		text = StripHTML(text)
	}
	base := filepath.Base(path)
	return corpus.Document{Name: strings.TrimSuffix(base, filepath.Ext(base)), Text: text}, nil
}

// IsJSONL reports whether path looks like a JSONL file.
func IsJSONL(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	}
	return false
}

// Load reads every path into one batch, in order. Documents without a name
// are named by their position in the batch.
func Load(paths []string, opts Options) (corpus.Batch, error) {
	var docs []corpus.Document
	for _, p := range paths {
		if IsJSONL(p) {
			ds, err := LoadFromJSONL(p, opts)
			if err != nil {
				return corpus.Batch{}, err
			}
			docs = append(docs, ds...)
			continue
		}
		d, err := LoadText(p, opts)
		if err != nil {
			return corpus.Batch{}, err
		}
		docs = append(docs, d)
	}
	return corpus.New(docs...)
}
