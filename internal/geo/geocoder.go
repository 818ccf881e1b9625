package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"travelplanner/internal/config"
	"travelplanner/internal/model"
)

var (
	ErrPlaceNotFound = errors.New("place not found")
	ErrBadResponse   = errors.New("unexpected geocoder response")
)

// StatusError ответ сервиса геокодирования с кодом, отличным от 200.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocoder responded with status %d", e.Code)
}

// Geocoder клиент Nominatim с кешем, ограничением частоты и повторами.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	attempts  int
	backoff   time.Duration
	cache     Cache
	group     singleflight.Group
	logger    *log.Logger
}

type Option func(*Geocoder)

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Geocoder) { g.client = c }
}

// WithBackoff базовая задержка между повторами.
func WithBackoff(d time.Duration) Option {
	return func(g *Geocoder) { g.backoff = d }
}

func New(cfg config.GeocodeConfig, cache Cache, logger *log.Logger, opts ...Option) *Geocoder {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	g := &Geocoder{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout.Duration},
		limiter:   rate.NewLimiter(limit, 1),
		attempts:  cfg.Retries + 1,
		backoff:   200 * time.Millisecond,
		cache:     cache,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode возвращает координаты места. Успешный результат кешируется,
// одновременные промахи по одному названию дают один запрос.
func (g *Geocoder) Geocode(ctx context.Context, name string) (model.Coordinates, error) {
	if c, ok := g.cache.Get(name); ok {
		return c, nil
	}
	v, err, _ := g.group.Do(name, func() (any, error) {
		if c, ok := g.cache.Get(name); ok {
			return c, nil
		}
		// запрос общий для всех ожидающих, отмена первого вызывающего его не прерывает
		ctx := context.WithoutCancel(ctx)
		var c model.Coordinates
		err := retryWithBackoff(ctx, func() error {
			var err error
			c, err = g.fetch(ctx, name)
			return err
		}, g.attempts, g.backoff, retryable)
		if err != nil {
			return nil, err
		}
		if err := g.cache.Set(name, c); err != nil {
			g.logger.Warn("не удалось сохранить координаты в кеш", "place", name, "err", err)
		}
		return c, nil
	})
	if err != nil {
		return model.Coordinates{}, err
	}
	return v.(model.Coordinates), nil
}

// Lookup как Geocode, но ошибки только логируются.
func (g *Geocoder) Lookup(ctx context.Context, name string) (model.Coordinates, bool) {
	c, err := g.Geocode(ctx, name)
	if err != nil {
		g.logger.Warn("геокодирование не удалось", "place", name, "err", err)
		return model.Coordinates{}, false
	}
	return c, true
}

// MapLink ссылка на карту для места или пустая строка.
func (g *Geocoder) MapLink(ctx context.Context, name string) string {
	c, ok := g.Lookup(ctx, name)
	if !ok {
		return ""
	}
	return c.MapLink()
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *Geocoder) fetch(ctx context.Context, name string) (model.Coordinates, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return model.Coordinates{}, err
	}
	q := url.Values{"q": {name}, "format": {"json"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return model.Coordinates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return model.Coordinates{}, &StatusError{Code: resp.StatusCode}
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(places) == 0 {
		return model.Coordinates{}, ErrPlaceNotFound
	}
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: lat %q", ErrBadResponse, places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: lon %q", ErrBadResponse, places[0].Lon)
	}
	return model.Coordinates{Latitude: lat, Longitude: lon}, nil
}

// retryable повторяем сетевые ошибки, 429 и 5xx.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, ErrPlaceNotFound) && !errors.Is(err, ErrBadResponse)
}
