package search

import (
	"sort"
	"strings"
)

const (
	DefaultThreshold     = 0.1
	DefaultFallbackLimit = 3
)

// Match строка корпуса с ее оценкой близости.
type Match struct {
	Index int
	Score float64
}

// Ranker ранжирует места корпуса по запросу.
type Ranker struct {
	index     *Index
	expander  *Expander
	threshold float64
	fallback  int
}

type RankerOption func(*Ranker)

// WithThreshold минимальная оценка, строго выше которой место попадает в выдачу.
func WithThreshold(t float64) RankerOption {
	return func(r *Ranker) { r.threshold = t }
}

// WithFallbackLimit сколько лучших мест вернуть, если порог не прошел никто.
func WithFallbackLimit(n int) RankerOption {
	return func(r *Ranker) { r.fallback = n }
}

// WithExpander включает расширение запроса синонимами.
func WithExpander(e *Expander) RankerOption {
	return func(r *Ranker) { r.expander = e }
}

func NewRanker(index *Index, opts ...RankerOption) *Ranker {
	r := &Ranker{
		index:     index,
		threshold: DefaultThreshold,
		fallback:  DefaultFallbackLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.expander != nil {
		r.expander = r.expander.WithLemmatizer(index.Preprocessor().Lemmatizer())
	}
	if r.fallback < 0 {
		r.fallback = 0
	}
	return r
}

// Matches возвращает подходящие строки корпуса по убыванию оценки.
// Рассматриваются только места, чье описание делит с запросом хотя бы один токен.
// Если ни одно из них не набрало оценку выше порога, возвращаются лучшие из них.
func (r *Ranker) Matches(query string) []Match {
	pre := r.index.Preprocessor()
	expanded := query
	if r.expander != nil {
		expanded = r.expander.Expand(query)
	}
	queryTokens := pre.Tokens(expanded)
	if len(queryTokens) == 0 {
		return nil
	}
	queryVec := r.index.vectorizer.Transform(strings.Join(queryTokens, " "))

	candidates := make([]Match, 0)
	for i := range r.index.places {
		if !r.index.sharesToken(i, queryTokens) {
			continue
		}
		candidates = append(candidates, Match{Index: i, Score: queryVec.Dot(r.index.vectors[i])})
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})

	var out []Match
	for _, m := range candidates {
		if m.Score > r.threshold {
			out = append(out, m)
		}
	}
	if len(out) > 0 {
		return out
	}
	n := r.fallback
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

// Rank возвращает индексы строк корпуса в порядке выдачи.
func (r *Ranker) Rank(query string) []int {
	matches := r.Matches(query)
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Index
	}
	return out
}

// Index индекс, по которому ранжирует Ranker.
func (r *Ranker) Index() *Index { return r.index }
