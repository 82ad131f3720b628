package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/cognicore/textkit/pkg/textkit/store"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

type docOutput struct {
	Name   string   `json:"name"`
	Tokens []string `json:"tokens"`
	Error  string   `json:"error,omitempty"`
}

type batchOutput struct {
	ID           string             `json:"id,omitempty"`
	Granularity  tokens.Granularity `json:"granularity"`
	NGrams       []int              `json:"ngrams"`
	Skip         []int              `json:"skip"`
	Concatenator string             `json:"concatenator"`
	Docs         []docOutput        `json:"docs"`
}

type runOutput struct {
	ID           string             `json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	Granularity  tokens.Granularity `json:"granularity"`
	NGrams       []int              `json:"ngrams"`
	Skip         []int              `json:"skip"`
	Concatenator string             `json:"concatenator"`
	Docs         int                `json:"docs"`
	Failed       int                `json:"failed"`
}

func toOutput(id string, b *tokens.Batch) batchOutput {
	out := batchOutput{
		ID:           id,
		Granularity:  b.Granularity(),
		NGrams:       b.NGramSizes(),
		Skip:         b.Skips(),
		Concatenator: b.Concatenator(),
		Docs:         make([]docOutput, 0, b.Len()),
	}
	for _, d := range b.Documents() {
		doc := docOutput{Name: d.Name, Tokens: d.Tokens}
		if d.Err != nil {
			doc.Error = d.Err.Error()
		}
		out.Docs = append(out.Docs, doc)
	}
	return out
}

func runsOutput(runs []store.RunInfo) []runOutput {
	out := make([]runOutput, 0, len(runs))
	for _, r := range runs {
		out = append(out, runOutput{
			ID:           r.ID,
			CreatedAt:    r.CreatedAt,
			Granularity:  r.Granularity,
			NGrams:       r.NGramSizes,
			Skip:         r.Skips,
			Concatenator: r.Concatenator,
			Docs:         r.Docs,
			Failed:       r.Failed,
		})
	}
	return out
}

func writeBatch(w io.Writer, id string, b *tokens.Batch, simplify bool) error {
	if simplify {
		flat := b.Flatten()
		if flat == nil {
			flat = []string{}
		}
		return writeJSON(w, flat)
	}
	return writeJSON(w, toOutput(id, b))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
