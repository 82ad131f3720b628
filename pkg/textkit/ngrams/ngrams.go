// Package ngrams joins adjacent or skip-spaced tokens into n-grams.
package ngrams

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
)

// DefaultConcatenator joins the constituents of an n-gram.
const DefaultConcatenator = "_"

// Expand returns the n-grams of tokens for every requested size and skip.
//
// Output is grouped by size in the order the sizes were requested. Within a
// size, grams are grouped by skip vector: each of the n-1 gaps takes a value
// from skips, and vectors are visited in lexicographic order. Within a skip
// vector, grams follow start position. Size 1 passes the tokens through once
// regardless of skips.
func Expand(tokens []string, sizes, skips []int, concatenator string) ([]string, error) {
	sizes, skips, err := Normalize(sizes, skips)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(tokens)*len(sizes))
	for _, n := range sizes {
		if n == 1 {
			out = append(out, tokens...)
			continue
		}
		for _, gaps := range skipVectors(n-1, skips) {
			out = appendGrams(out, tokens, gaps, concatenator)
		}
	}
	return out, nil
}

// Normalize validates sizes and skips, removing duplicates. Sizes keep their
// requested order; skips are sorted. Empty inputs default to {1} and {0}.
func Normalize(sizes, skips []int) ([]int, []int, error) {
	if len(sizes) == 0 {
		sizes = []int{1}
	}
	if len(skips) == 0 {
		skips = []int{0}
	}

	seen := make(map[int]struct{}, len(sizes))
	ns := make([]int, 0, len(sizes))
	for _, n := range sizes {
		if n < 1 {
			return nil, nil, fmt.Errorf("ngram size %d: %w", n, internalerr.ErrInvalidArgument)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		ns = append(ns, n)
	}

	seen = make(map[int]struct{}, len(skips))
	ks := make([]int, 0, len(skips))
	for _, k := range skips {
		if k < 0 {
			return nil, nil, fmt.Errorf("skip %d: %w", k, internalerr.ErrInvalidArgument)
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ks = append(ks, k)
	}
	sort.Ints(ks)

	return ns, ks, nil
}

// IsUnigram reports whether sizes request no concatenation at all.
func IsUnigram(sizes []int) bool {
	for _, n := range sizes {
		if n != 1 {
			return false
		}
	}
	return true
}

func appendGrams(out, tokens []string, gaps []int, concatenator string) []string {
	span := 0
	for _, g := range gaps {
		span += g + 1
	}

	parts := make([]string, len(gaps)+1)
	for i := 0; i+span < len(tokens); i++ {
		pos := i
		parts[0] = tokens[pos]
		for j, g := range gaps {
			pos += g + 1
			parts[j+1] = tokens[pos]
		}
		out = append(out, strings.Join(parts, concatenator))
	}
	return out
}

// skipVectors enumerates every length-k vector over skips in lexicographic order.
func skipVectors(k int, skips []int) [][]int {
	vectors := [][]int{{}}
	for d := 0; d < k; d++ {
		next := make([][]int, 0, len(vectors)*len(skips))
		for _, v := range vectors {
			for _, s := range skips {
				w := make([]int, len(v)+1)
				copy(w, v)
				w[len(v)] = s
				next = append(next, w)
			}
		}
		vectors = next
	}
	return vectors
}
