// Package app собирает зависимости поиска, общие для API и бота.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/panjf2000/ants/v2"

	"travelplanner/internal/config"
	"travelplanner/internal/genai"
	"travelplanner/internal/geo"
	"travelplanner/internal/logger"
	"travelplanner/internal/search"
	"travelplanner/internal/service"
)

// Search сервис поиска вместе с ресурсами, которые нужно закрыть.
type Search struct {
	Service *service.SearchService

	pool  *ants.Pool
	cache *geo.MemoryCache
}

// Close освобождает пул обогащения и кэш геокодера.
func (s *Search) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
	if s.cache != nil {
		s.cache.Close()
	}
}

// BuildRanker читает корпус и строит индекс TF-IDF.
func BuildRanker(cfg config.SearchConfig, l *log.Logger) (*search.Ranker, error) {
	places, err := search.LoadCorpus(cfg.CorpusPath)
	if err != nil {
		return nil, err
	}

	lemmatizer, err := search.NewEnglishLemmatizer()
	if err != nil {
		l.Warn("лемматизатор недоступен, слова не приводятся к начальной форме", "err", err)
		lemmatizer = nil
	}
	thesaurus, err := search.LoadThesaurus(cfg.ThesaurusPath)
	if err != nil {
		return nil, err
	}

	index, err := search.BuildIndex(places, search.NewPreprocessor(lemmatizer), cfg.MaxFeatures)
	if err != nil {
		return nil, err
	}
	l.Info("индекс построен", "places", index.Len(), "terms", index.Vocabulary())

	return search.NewRanker(index,
		search.WithThreshold(cfg.SimilarityThreshold),
		search.WithFallbackLimit(cfg.FallbackLimit),
		search.WithExpander(search.NewExpander(thesaurus)),
	), nil
}

// NewSearch собирает сервис поиска. Ошибка корпуса не фатальна: сервис
// поднимается без индекса и отвечает ErrIndexUnavailable.
// kv == nil переводит кэш геокодера в память.
func NewSearch(ctx context.Context, cfg *config.Config, kv *badger.DB, l *log.Logger) (*Search, error) {
	out := &Search{}

	ranker, err := BuildRanker(cfg.Search, logger.Component(l, "search"))
	if err != nil {
		l.Error("корпус не загружен, поиск недоступен", "path", cfg.Search.CorpusPath, "err", err)
		ranker = nil
	}

	var cache geo.Cache
	if cfg.Geocode.CacheBackend == "badger" && kv != nil {
		cache = geo.NewBadgerCache(kv, cfg.Geocode.CacheTTL.Duration)
	} else {
		mem, err := geo.NewMemoryCache(cfg.Geocode.CacheMaxEntries, cfg.Geocode.CacheTTL.Duration)
		if err != nil {
			return nil, fmt.Errorf("не удалось создать кэш геокодера: %w", err)
		}
		out.cache = mem
		cache = mem
	}
	geocoder := geo.New(cfg.Geocode, cache, logger.Component(l, "geo"))

	var generator genai.Generator
	if cfg.Generative.Enabled {
		generator, err = genai.NewGoogleAI(ctx, cfg.Generative)
		if err != nil {
			l.Warn("генерация описаний выключена", "err", err)
			generator = nil
		}
	}
	describer := genai.NewDescriber(generator, cfg.Generative.Timeout.Duration, logger.Component(l, "genai"))

	if cfg.Search.Workers > 0 {
		out.pool, err = ants.NewPool(cfg.Search.Workers)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("не удалось создать пул обогащения: %w", err)
		}
	}

	out.Service = service.NewSearchService(ranker, geocoder, describer, out.pool, logger.Component(l, "search"))
	return out, nil
}
