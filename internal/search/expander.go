package search

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed thesaurus.yaml
var defaultThesaurus []byte

var letterRun = regexp.MustCompile(`\p{L}+`)

// Thesaurus слово -> синонимы.
type Thesaurus map[string][]string

// ParseThesaurus разбирает YAML вида `слово: [синоним, ...]`.
// Каждая запись считается группой: любое слово группы получает синонимами остальные.
func ParseThesaurus(data []byte) (Thesaurus, error) {
	var groups map[string][]string
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("не удалось разобрать тезаурус: %w", err)
	}
	sets := make(map[string]map[string]struct{})
	add := func(word, syn string) {
		if word == syn {
			return
		}
		if sets[word] == nil {
			sets[word] = make(map[string]struct{})
		}
		sets[word][syn] = struct{}{}
	}
	for head, syns := range groups {
		group := []string{strings.ToLower(strings.TrimSpace(head))}
		for _, s := range syns {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				group = append(group, s)
			}
		}
		for _, a := range group {
			for _, b := range group {
				add(a, b)
			}
		}
	}
	t := make(Thesaurus, len(sets))
	for word, set := range sets {
		list := make([]string, 0, len(set))
		for s := range set {
			list = append(list, s)
		}
		sort.Strings(list)
		t[word] = list
	}
	return t, nil
}

// LoadThesaurus читает тезаурус из файла; пустой путь означает встроенный словарь.
func LoadThesaurus(path string) (Thesaurus, error) {
	if path == "" {
		return ParseThesaurus(defaultThesaurus)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать тезаурус: %w", err)
	}
	return ParseThesaurus(data)
}

// Expander дописывает к запросу синонимы его слов.
// Слова запроса и ключи тезауруса сравниваются по леммам.
type Expander struct {
	thesaurus  Thesaurus
	lemmatizer Lemmatizer
}

func NewExpander(t Thesaurus) *Expander {
	return &Expander{thesaurus: t, lemmatizer: IdentityLemmatizer}
}

// WithLemmatizer возвращает копию расширителя, у которой ключи тезауруса
// приведены к леммам, а слова запроса лемматизируются перед поиском.
func (e *Expander) WithLemmatizer(l Lemmatizer) *Expander {
	if e == nil {
		return nil
	}
	if l == nil {
		l = IdentityLemmatizer
	}
	sets := make(map[string]map[string]struct{}, len(e.thesaurus))
	for word, syns := range e.thesaurus {
		key := l.Lemma(word)
		if sets[key] == nil {
			sets[key] = make(map[string]struct{})
		}
		for _, s := range syns {
			if s != key {
				sets[key][s] = struct{}{}
			}
		}
	}
	t := make(Thesaurus, len(sets))
	for key, set := range sets {
		list := make([]string, 0, len(set))
		for s := range set {
			list = append(list, s)
		}
		sort.Strings(list)
		t[key] = list
	}
	return &Expander{thesaurus: t, lemmatizer: l}
}

// Expand возвращает запрос, за которым через пробел идут синонимы
// в алфавитном порядке без повторов. Без синонимов запрос не меняется.
func (e *Expander) Expand(query string) string {
	if e == nil || len(e.thesaurus) == 0 {
		return query
	}
	set := make(map[string]struct{})
	for _, word := range letterRun.FindAllString(strings.ToLower(query), -1) {
		syns, ok := e.thesaurus[e.lemmatizer.Lemma(word)]
		if !ok {
			syns = e.thesaurus[word]
		}
		for _, syn := range syns {
			set[syn] = struct{}{}
		}
	}
	if len(set) == 0 {
		return query
	}
	syns := make([]string, 0, len(set))
	for s := range set {
		syns = append(syns, s)
	}
	sort.Strings(syns)
	return query + " " + strings.Join(syns, " ")
}
