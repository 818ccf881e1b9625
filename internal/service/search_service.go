package service

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/panjf2000/ants/v2"

	"travelplanner/internal/genai"
	"travelplanner/internal/model"
	"travelplanner/internal/search"
)

// MapLinker строит ссылку на карту по названию места.
type MapLinker interface {
	MapLink(ctx context.Context, name string) string
}

// Describer пишет описание места с учетом интересов пользователя.
type Describer interface {
	Describe(ctx context.Context, place, interests string) (genai.Description, error)
}

// SearchService ранжирует места и обогащает выдачу ссылками на карту и описаниями.
type SearchService struct {
	ranker    *search.Ranker
	maps      MapLinker
	describer Describer
	pool      *ants.Pool
	logger    *log.Logger
}

// NewSearchService создает сервис поиска. ranker == nil означает, что корпус не загрузился,
// и каждый поиск вернет ErrIndexUnavailable. pool == nil включает последовательное обогащение.
func NewSearchService(ranker *search.Ranker, maps MapLinker, describer Describer, pool *ants.Pool, logger *log.Logger) *SearchService {
	return &SearchService{ranker: ranker, maps: maps, describer: describer, pool: pool, logger: logger}
}

// Available сообщает, построен ли индекс.
func (s *SearchService) Available() bool { return s.ranker != nil }

// Search возвращает рекомендации в порядке ранжирования.
// Ошибки геокодирования и генерации не прерывают поиск.
func (s *SearchService) Search(ctx context.Context, query string, describe bool) (model.Recommendations, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if s.ranker == nil {
		return nil, ErrIndexUnavailable
	}

	index := s.ranker.Index()
	ids := s.ranker.Rank(query)
	recs := make(model.Recommendations, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		recs[i].Place = index.Place(id)
		rec := &recs[i]
		task := func() {
			defer wg.Done()
			s.enrich(ctx, rec, query, describe)
		}
		wg.Add(1)
		if s.pool == nil {
			task()
			continue
		}
		if err := s.pool.Submit(task); err != nil {
			s.logger.Warn("пул обогащения недоступен, выполняем синхронно", "err", err)
			task()
		}
	}
	wg.Wait()

	s.logger.Debug("поиск выполнен", "query", query, "results", len(recs))
	return recs, nil
}

func (s *SearchService) enrich(ctx context.Context, rec *model.Recommendation, query string, describe bool) {
	if s.maps != nil {
		rec.MapLink = s.maps.MapLink(ctx, rec.Place.City)
	}
	if describe {
		blurb := s.Describe(ctx, rec.Place, query)
		rec.Blurb = &blurb
	}
}

// Describe описание одного места; при выключенной или неудачной генерации шаблонное.
func (s *SearchService) Describe(ctx context.Context, place model.Place, interests string) model.Blurb {
	if s.describer == nil {
		return model.Blurb{Text: genai.FallbackText(place.City)}
	}
	desc, err := s.describer.Describe(ctx, place.City, interests)
	if err != nil {
		s.logger.Debug("использовано шаблонное описание", "place", place.City, "err", err)
	}
	return model.Blurb{Text: desc.Text, Generated: desc.Generated()}
}
