package search

import (
	"regexp"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

var nonLetters = regexp.MustCompile(`[^a-zA-Z\s]`)

// minTokenLen токены не длиннее этого значения отбрасываются.
const minTokenLen = 2

// Lemmatizer приводит слово к словарной форме.
type Lemmatizer interface {
	Lemma(word string) string
}

// LemmatizerFunc адаптер обычной функции к Lemmatizer.
type LemmatizerFunc func(string) string

func (f LemmatizerFunc) Lemma(word string) string { return f(word) }

// IdentityLemmatizer оставляет слова без изменений.
var IdentityLemmatizer = LemmatizerFunc(func(s string) string { return s })

type golemLemmatizer struct {
	l *golem.Lemmatizer
}

func (g golemLemmatizer) Lemma(word string) string {
	if lemma := g.l.Lemma(word); lemma != "" {
		return lemma
	}
	return word
}

// NewEnglishLemmatizer загружает английский словарь golem.
func NewEnglishLemmatizer() (Lemmatizer, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, err
	}
	return golemLemmatizer{l: l}, nil
}

// Preprocessor нормализует описания мест и запросы одинаковым конвейером:
// нижний регистр, только латинские буквы, без стоп-слов и коротких токенов, леммы.
type Preprocessor struct {
	stopwords  map[string]struct{}
	lemmatizer Lemmatizer
}

// NewPreprocessor создает препроцессор; nil lemmatizer означает IdentityLemmatizer.
func NewPreprocessor(lemmatizer Lemmatizer) *Preprocessor {
	if lemmatizer == nil {
		lemmatizer = IdentityLemmatizer
	}
	return &Preprocessor{stopwords: defaultStopwords(), lemmatizer: lemmatizer}
}

// Lemmatizer лемматизатор препроцессора.
func (p *Preprocessor) Lemmatizer() Lemmatizer { return p.lemmatizer }

// Tokens возвращает нормализованные токены текста.
func (p *Preprocessor) Tokens(text string) []string {
	cleaned := strings.ToLower(nonLetters.ReplaceAllString(text, " "))
	fields := strings.Fields(cleaned)
	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) <= minTokenLen {
			continue
		}
		if _, stop := p.stopwords[tok]; stop {
			continue
		}
		out = append(out, p.lemmatizer.Lemma(tok))
	}
	return out
}

// Normalize возвращает токены, склеенные пробелом.
func (p *Preprocessor) Normalize(text string) string {
	return strings.Join(p.Tokens(text), " ")
}

// NormalizeAll нормализует набор текстов.
func (p *Preprocessor) NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = p.Normalize(t)
	}
	return out
}
