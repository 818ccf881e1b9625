package search

import (
	"fmt"
	"strings"

	"travelplanner/internal/model"
)

// Index неизменяемый поисковый индекс по корпусу мест.
// После построения безопасен для конкурентного чтения.
type Index struct {
	places     []model.Place
	tokens     []map[string]struct{}
	vectors    []SparseVector
	vectorizer *Vectorizer
	pre        *Preprocessor
}

// BuildIndex нормализует описания и строит TF-IDF матрицу.
func BuildIndex(places []model.Place, pre *Preprocessor, maxFeatures int) (*Index, error) {
	if len(places) == 0 {
		return nil, ErrEmptyCorpus
	}
	if pre == nil {
		pre = NewPreprocessor(nil)
	}
	docs := make([]string, len(places))
	tokens := make([]map[string]struct{}, len(places))
	for i, p := range places {
		toks := pre.Tokens(p.Description)
		set := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			set[t] = struct{}{}
		}
		tokens[i] = set
		docs[i] = strings.Join(toks, " ")
	}

	vectorizer := NewVectorizer(maxFeatures)
	vectors, err := vectorizer.FitTransform(docs)
	if err != nil {
		return nil, fmt.Errorf("не удалось построить индекс: %w", err)
	}
	return &Index{
		places:     append([]model.Place(nil), places...),
		tokens:     tokens,
		vectors:    vectors,
		vectorizer: vectorizer,
		pre:        pre,
	}, nil
}

func (ix *Index) Len() int { return len(ix.places) }

// Place возвращает место по индексу строки корпуса.
func (ix *Index) Place(i int) model.Place { return ix.places[i] }

// Preprocessor препроцессор, которым нормализован корпус.
func (ix *Index) Preprocessor() *Preprocessor { return ix.pre }

// Vocabulary размер словаря.
func (ix *Index) Vocabulary() int { return len(ix.vectorizer.terms) }

func (ix *Index) sharesToken(row int, query []string) bool {
	for _, t := range query {
		if _, ok := ix.tokens[row][t]; ok {
			return true
		}
	}
	return false
}
