// Package stoplist removes caller-supplied stopwords from tokenized batches
// and suggests new ones from document frequency.
package stoplist

import (
	"sort"
	"strings"
	"sync"

	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// Manager holds a stopword set. It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	stops    map[string]Reason
	foldCase bool
}

// Reason explains why a token is a stopword
type Reason struct {
	Manual    bool    // supplied by the caller
	HighDF    bool    // appears in most documents
	DFPercent float64 // share of documents containing the token
}

// Option configures a Manager.
type Option func(*Manager)

// WithFoldCase matches stopwords case-insensitively.
func WithFoldCase() Option {
	return func(m *Manager) { m.foldCase = true }
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string, opts ...Option) *Manager {
	m := &Manager{stops: make(map[string]Reason, len(initialStops))}
	for _, o := range opts {
		o(m)
	}
	for _, s := range initialStops {
		m.stops[m.key(s)] = Reason{Manual: true}
	}
	return m
}

func (m *Manager) key(token string) string {
	if m.foldCase {
		return strings.ToLower(token)
	}
	return token
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.stops[m.key(token)]
	return ok
}

// Add adds a token to the stoplist with a reason
func (m *Manager) Add(token string, reason Reason) {
	m.mu.Lock()
	m.stops[m.key(token)] = reason
	m.mu.Unlock()
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	delete(m.stops, m.key(token))
	m.mu.Unlock()
}

// Reason returns why token is a stopword.
func (m *Manager) Reason(token string) (Reason, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.stops[m.key(token)]
	return r, ok
}

// All returns all stopwords, sorted.
func (m *Manager) All() []string {
	m.mu.RLock()
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	m.mu.RUnlock()
	sort.Strings(result)
	return result
}

// Apply returns a new batch without stopwords. The input batch is not
// modified and failed documents pass through unchanged.
func (m *Manager) Apply(b *tokens.Batch) *tokens.Batch {
	return b.Select(func(tok string) bool { return !m.IsStop(tok) })
}

// Candidate represents a candidate stopword
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // confidence score
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent float64 // e.g. 80: appears in 80% of documents
	MinDocs   int     // ignore batches smaller than this
}

// DefaultThresholds returns sensible default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{DFPercent: 80.0, MinDocs: 5}
}

// SuggestCandidates suggests tokens that appear in more than
// th.DFPercent of the successful documents in b. Existing stopwords are
// skipped. Candidates are ordered by descending score, then token.
func (m *Manager) SuggestCandidates(b *tokens.Batch, th Thresholds) []Candidate {
	if th.DFPercent == 0 {
		th.DFPercent = DefaultThresholds().DFPercent
	}

	df := make(map[string]int)
	total := 0
	for _, d := range b.Documents() {
		if d.Failed() {
			continue
		}
		total++
		seen := make(map[string]struct{}, len(d.Tokens))
		for _, tok := range d.Tokens {
			k := m.key(tok)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			df[k]++
		}
	}
	if total == 0 || total < th.MinDocs {
		return nil
	}

	var candidates []Candidate
	for tok, n := range df {
		if m.IsStop(tok) {
			continue
		}
		pct := float64(n) * 100 / float64(total)
		if pct <= th.DFPercent {
			continue
		}
		candidates = append(candidates, Candidate{
			Token:  tok,
			Reason: Reason{HighDF: true, DFPercent: pct},
			Score:  pct / 100,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Token < candidates[j].Token
	})
	return candidates
}
