// Package search ranks reference board games against a design request.
//
// The catalog is small (tens to low hundreds of games), so the index is an
// immutable in-memory slice scored by Jaccard similarity between the query
// token set and each game's token set: score = |Q ∩ G| / |Q ∪ G|.
// Tokenization is Unicode-aware, so Hangul and Latin text mix freely.
// Indexes are read-only after construction and safe for concurrent use.
package search

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultK is the number of reference games quoted in a concept prompt.
const DefaultK = 5

// Result is a ranked reference game with its similarity score.
type Result struct {
	Game  Game
	Score float64
}

// Index is implemented by all reference indexes.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultConfig() config {
	return config{}
}

// WithStopwords drops the given words from both queries and games.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many catalog entries are indexed.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	game   Game
	tokens map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over games. Games without any token are skipped.
func NewIndex(games []Game, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(games))
	for _, g := range games {
		toks := tokenize(strings.Join([]string{
			g.Name, g.Description, g.Theme, strings.Join(g.Mechanics, " "),
		}, " "), cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{game: g, tokens: toks})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k games ranked by similarity. Ties are broken by
// name so results are stable. k <= 0 means DefaultK.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	out := make([]Result, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		out = append(out, Result{Game: d.game, Score: float64(over) / union})
	}
	if len(out) == 0 {
		return nil
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Game.Name < out[b].Game.Name
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}

// Query builds the retrieval query for a concept request.
func Query(theme, playerCount string, weight float64) string {
	return fmt.Sprintf("%s %s %s", theme, playerCount, weightWord(weight))
}

// weightWord maps a 1..5 weight onto the vocabulary used in descriptions.
func weightWord(w float64) string {
	switch {
	case w < 2:
		return "캐주얼 가벼운"
	case w < 3.5:
		return "전략"
	default:
		return "전략 헤비 복잡한"
	}
}

// Reference renders results as the block quoted in generation prompts.
func Reference(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Game.Text())
	}
	return strings.Join(parts, "\n\n")
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
