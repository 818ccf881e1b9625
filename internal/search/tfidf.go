package search

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
	ErrNotFitted       = errors.New("vectorizer is not fitted")
)

var wordPattern = regexp.MustCompile(`\b\w\w+\b`)

// SparseVector разреженный вектор: индекс термина -> вес.
type SparseVector map[int]float64

// Dot скалярное произведение. Для L2-нормированных векторов это косинусная близость.
func (v SparseVector) Dot(other SparseVector) float64 {
	a, b := v, other
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for i, x := range a {
		if y, ok := b[i]; ok {
			sum += x * y
		}
	}
	return sum
}

// Norm евклидова норма вектора.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Vectorizer TF-IDF по униграммам и биграммам со сглаженным idf
// и ограничением словаря самыми частыми терминами.
type Vectorizer struct {
	maxFeatures int
	minN, maxN  int
	vocabulary  map[string]int
	terms       []string
	idf         []float64
}

// NewVectorizer создает векторизатор; maxFeatures <= 0 снимает ограничение словаря.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{maxFeatures: maxFeatures, minN: 1, maxN: 2}
}

func (v *Vectorizer) analyze(doc string) []string {
	words := wordPattern.FindAllString(strings.ToLower(doc), -1)
	out := make([]string, 0, len(words)*(v.maxN-v.minN+1))
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			out = append(out, strings.Join(words[i:i+n], " "))
		}
	}
	return out
}

// Fit строит словарь и idf по документам.
func (v *Vectorizer) Fit(docs []string) error {
	df := make(map[string]int)
	tf := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.analyze(doc) {
			tf[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}
	if len(tf) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(tf))
	for term := range tf {
		terms = append(terms, term)
	}
	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.terms = terms
	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return nil
}

// Transform векторизует документ в пространстве обученного словаря.
// Документ без известных терминов дает пустой вектор.
func (v *Vectorizer) Transform(doc string) SparseVector {
	vec := make(SparseVector)
	if v.vocabulary == nil {
		return vec
	}
	for _, term := range v.analyze(doc) {
		if i, ok := v.vocabulary[term]; ok {
			vec[i]++
		}
	}
	for i, count := range vec {
		vec[i] = count * v.idf[i]
	}
	if norm := vec.Norm(); norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// FitTransform обучает словарь и векторизует те же документы.
func (v *Vectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out, nil
}

// Terms словарь в порядке индексов.
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}

// IDF вес idf термина; false, если термина нет в словаре.
func (v *Vectorizer) IDF(term string) (float64, bool) {
	i, ok := v.vocabulary[term]
	if !ok {
		return 0, false
	}
	return v.idf[i], true
}
