package search

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelplanner/internal/model"
)

func testPlaces() []model.Place {
	return []model.Place{
		{City: "Varkala", BestTime: "Oct-Mar", Description: "Varkala has a beautiful beach with cliffs overlooking the sea."},
		{City: "Munnar", BestTime: "Sep-May", Description: "Munnar is famous for tea plantations and misty hills."},
		{City: "Alleppey", BestTime: "Nov-Feb", Description: "Alleppey is known for backwaters and houseboat cruises."},
		{City: "Kovalam", BestTime: "Sep-Mar", Description: "Kovalam offers a sunset view over the beach and lighthouse."},
	}
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := BuildIndex(testPlaces(), NewPreprocessor(IdentityLemmatizer), 5000)
	require.NoError(t, err)
	return ix
}

func TestPreprocessorTokens(t *testing.T) {
	p := NewPreprocessor(nil)

	assert.Equal(t, []string{"beaches", "kerala", "lovely", "sea"}, p.Tokens("The Beaches, of Kerala!! 2024 are lovely by the sea"))
	assert.Equal(t, "misty hills", p.Normalize("  Misty   HILLS  "))
	assert.Empty(t, p.Tokens("   "))
	assert.Empty(t, p.Tokens("it is to be"))
}

func TestPreprocessorUsesLemmatizer(t *testing.T) {
	upper := LemmatizerFunc(strings.ToUpper)
	p := NewPreprocessor(upper)

	assert.Equal(t, []string{"TEA", "HILLS"}, p.Tokens("tea hills"))
	assert.Equal(t, []string{"misty hills", "sea"}, NewPreprocessor(nil).NormalizeAll([]string{"Misty hills", "the sea"}))
}

func TestEnglishLemmatizer(t *testing.T) {
	l, err := NewEnglishLemmatizer()
	require.NoError(t, err)

	assert.Equal(t, "beach", l.Lemma("beaches"))
	assert.Equal(t, "hill", l.Lemma("hills"))
}

func TestReadCorpus(t *testing.T) {
	data := "City,Best Time to visit,About the city (long Description)\n" +
		"Varkala,Oct-Mar,Cliffs and beach\n" +
		"Munnar,,Tea gardens\n" +
		"Varkala,Jan,Duplicate row\n" +
		"Thekkady,Oct-Feb,\"Spice plantations, wildlife\"\n"

	places, err := ReadCorpus(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, model.Place{City: "Varkala", BestTime: "Oct-Mar", Description: "Cliffs and beach"}, places[0])
	assert.Equal(t, "Spice plantations, wildlife", places[1].Description)
}

func TestReadCorpusErrors(t *testing.T) {
	_, err := ReadCorpus(strings.NewReader("City,Best Time to visit\nA,B\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadCorpus(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = ReadCorpus(strings.NewReader("City,Best Time to visit,About the city (long Description)\nA,,\n"))
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestLoadCorpusDecodesLatin1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.csv")
	data := []byte("City,Best Time to visit,About the city (long Description)\nCaf\xe9 Town,All year,Coffee\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	places, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Café Town", places[0].City)

	_, err = LoadCorpus(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestVectorizerVocabulary(t *testing.T) {
	v := NewVectorizer(0)
	require.NoError(t, v.Fit([]string{"apple banana", "apple cherry"}))

	assert.Equal(t, []string{"apple", "apple banana", "apple cherry", "banana", "cherry"}, v.Terms())

	idf, ok := v.IDF("apple")
	require.True(t, ok)
	assert.InDelta(t, 1.0, idf, 1e-9)

	idf, ok = v.IDF("banana")
	require.True(t, ok)
	assert.InDelta(t, math.Log(3.0/2.0)+1, idf, 1e-9)

	_, ok = v.IDF("durian")
	assert.False(t, ok)
}

func TestVectorizerMaxFeatures(t *testing.T) {
	v := NewVectorizer(2)
	require.NoError(t, v.Fit([]string{"apple banana", "apple cherry", "cherry"}))

	assert.Equal(t, []string{"apple", "cherry"}, v.Terms())

	vec := v.Transform("apple apple durian")
	assert.Len(t, vec, 1)
	assert.InDelta(t, 1.0, vec.Norm(), 1e-9)

	assert.Empty(t, v.Transform("durian"))
}

func TestVectorizerEmpty(t *testing.T) {
	v := NewVectorizer(10)
	assert.ErrorIs(t, v.Fit([]string{"", "a"}), ErrEmptyVocabulary)
	assert.Empty(t, v.Transform("apple"))
}

func TestSparseVectorDot(t *testing.T) {
	a := SparseVector{0: 0.6, 1: 0.8}
	b := SparseVector{1: 1}
	assert.InDelta(t, 0.8, a.Dot(b), 1e-9)
	assert.InDelta(t, 0.8, b.Dot(a), 1e-9)
	assert.Zero(t, a.Dot(SparseVector{}))
}

func TestParseThesaurus(t *testing.T) {
	th, err := ParseThesaurus([]byte("Beach: [coast, shore]\nsunset: [dusk]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"coast", "shore"}, th["beach"])
	assert.Equal(t, []string{"beach", "shore"}, th["coast"])
	assert.Equal(t, []string{"sunset"}, th["dusk"])

	_, err = ParseThesaurus([]byte("beach: [unclosed"))
	assert.Error(t, err)
}

func TestLoadThesaurus(t *testing.T) {
	th, err := LoadThesaurus("")
	require.NoError(t, err)
	assert.Contains(t, th["beach"], "coast")

	path := filepath.Join(t.TempDir(), "thesaurus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tea: [chai]\n"), 0o644))
	th, err = LoadThesaurus(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"chai"}, th["tea"])

	_, err = LoadThesaurus(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExpanderExpand(t *testing.T) {
	e := NewExpander(Thesaurus{
		"beach":  {"coast", "shore"},
		"sunset": {"dusk", "shore"},
	})

	assert.Equal(t, "Beach sunset coast dusk shore", e.Expand("Beach sunset"))
	assert.Equal(t, "mountains", e.Expand("mountains"))
	assert.Equal(t, "", e.Expand(""))

	var nilExpander *Expander
	assert.Equal(t, "beach", nilExpander.Expand("beach"))
}

func TestExpanderLemmatizesWords(t *testing.T) {
	plural := LemmatizerFunc(func(s string) string { return strings.TrimSuffix(s, "s") })
	e := NewExpander(Thesaurus{
		"mountain":   {"hill", "peak"},
		"waterfalls": {"cascade"},
	}).WithLemmatizer(plural)

	assert.Equal(t, "mountains hill peak", e.Expand("mountains"))
	assert.Equal(t, "waterfall cascade", e.Expand("waterfall"))

	var nilExpander *Expander
	assert.Nil(t, nilExpander.WithLemmatizer(plural))
}

func TestRankerExpandsInflectedQuery(t *testing.T) {
	lemmatizer, err := NewEnglishLemmatizer()
	require.NoError(t, err)
	ix, err := BuildIndex(testPlaces(), NewPreprocessor(lemmatizer), 5000)
	require.NoError(t, err)
	th, err := LoadThesaurus("")
	require.NoError(t, err)

	r := NewRanker(ix, WithExpander(NewExpander(th)))
	assert.Equal(t, []int{1}, r.Rank("mountains"))
	assert.Equal(t, r.Rank("mountain"), r.Rank("mountains"))
	assert.ElementsMatch(t, []int{0, 3}, r.Rank("coasts"))
}

func TestRankerNegativeFallbackLimit(t *testing.T) {
	r := NewRanker(testIndex(t), WithThreshold(0.99), WithFallbackLimit(-1))
	assert.Empty(t, r.Rank("beach sunset"))
}

func TestBuildIndex(t *testing.T) {
	ix := testIndex(t)
	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, "Munnar", ix.Place(1).City)
	assert.Positive(t, ix.Vocabulary())

	_, err := BuildIndex(nil, nil, 10)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = BuildIndex([]model.Place{{City: "X", BestTime: "Y", Description: "the of and"}}, nil, 10)
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestRankerSingleSharedToken(t *testing.T) {
	r := NewRanker(testIndex(t))

	matches := r.Matches("beach sunset")
	require.Len(t, matches, 2)
	assert.Equal(t, 3, matches[0].Index)
	assert.Equal(t, 0, matches[1].Index)
	for _, m := range matches {
		assert.Greater(t, m.Score, DefaultThreshold)
	}
	assert.Equal(t, []int{3, 0}, r.Rank("beach sunset"))
}

func TestRankerFallback(t *testing.T) {
	ix := testIndex(t)

	r := NewRanker(ix, WithThreshold(0.99))
	assert.Equal(t, []int{3, 0}, r.Rank("beach sunset"))

	r = NewRanker(ix, WithThreshold(0.99), WithFallbackLimit(1))
	assert.Equal(t, []int{3}, r.Rank("beach sunset"))
}

func TestRankerEmptyOnlyWithoutSharedTokens(t *testing.T) {
	r := NewRanker(testIndex(t))

	assert.Empty(t, r.Rank("snow skiing"))
	assert.Empty(t, r.Rank("   "))
	assert.Empty(t, r.Rank("the and of"))
	assert.NotEmpty(t, r.Rank("lighthouse"))
	assert.NotEmpty(t, r.Rank("misty"))
}

func TestRankerWithExpander(t *testing.T) {
	ix := testIndex(t)

	assert.Empty(t, NewRanker(ix).Rank("coast"))

	r := NewRanker(ix, WithExpander(NewExpander(Thesaurus{"coast": {"beach"}})))
	assert.ElementsMatch(t, []int{0, 3}, r.Rank("coast"))
}
