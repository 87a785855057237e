// Package search provides the retrieval capability used as the read-path
// fallback: given text, return the top-k most similar note passages for a
// tenant with a relevance score.
//
// The implementation is a deliberately small, dependency-free in-memory
// index: tenant notes are split into paragraphs, tokenized with Unicode
// awareness, and ranked by Jaccard similarity between the query token set and
// each paragraph's token set (|Q ∩ P| / |Q ∪ P|). Scoring and ordering are
// deterministic; ties break by insertion order.
package search

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Hit is a ranked passage with its similarity score.
type Hit struct {
	Text  string
	Score float64
}

// Searcher is the retrieval contract the engine consumes.
type Searcher interface {
	Search(tenant, query string, k int) []Hit
}

type doc struct {
	text   string
	tokens map[string]struct{}
}

// Memory is a concurrency-safe, per-tenant in-memory index.
type Memory struct {
	mu      sync.RWMutex
	tenants map[string][]doc

	// MinParagraphRunes filters out fragments too short to be useful
	// grounding context. Zero means 20.
	MinParagraphRunes int
}

// NewMemory returns an empty index.
func NewMemory() *Memory {
	return &Memory{tenants: make(map[string][]doc)}
}

func (m *Memory) minParagraphRunes() int {
	if m.MinParagraphRunes <= 0 {
		return 20
	}
	return m.MinParagraphRunes
}

// SetNotes replaces the notes for a tenant. The text is split on blank lines
// into paragraphs; each paragraph becomes one retrievable passage.
func (m *Memory) SetNotes(tenant, text string) {
	var docs []doc
	for _, para := range splitParagraphs(text) {
		if utf8.RuneCountInString(para) < m.minParagraphRunes() {
			continue
		}
		toks := tokenize(para)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{text: para, tokens: toks})
	}

	m.mu.Lock()
	m.tenants[tenant] = docs
	m.mu.Unlock()
}

// Search implements Searcher. Results are sorted by descending score; at most
// k hits are returned and zero-score passages are dropped.
func (m *Memory) Search(tenant, query string, k int) []Hit {
	if k <= 0 {
		return nil
	}
	q := tokenize(query)
	if len(q) == 0 {
		return nil
	}

	m.mu.RLock()
	docs := m.tenants[tenant]
	m.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i, d := range docs {
		if s := jaccard(q, d.tokens); s > 0 {
			candidates = append(candidates, scored{idx: i, score: s})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, Hit{Text: docs[c.idx].text, Score: c.score})
	}
	return hits
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func splitParagraphs(text string) []string {
	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(cur, "\n")))
			cur = nil
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

// tokenize lowercases and splits on any rune that is not a letter or digit.
func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	var b strings.Builder
	emit := func() {
		if b.Len() > 0 {
			out[b.String()] = struct{}{}
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		emit()
	}
	emit()
	return out
}
