package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelplanner/internal/config"
	"travelplanner/internal/database"
	"travelplanner/internal/logger"
	"travelplanner/internal/model"
)

type nominatimStub struct {
	server   *httptest.Server
	requests atomic.Int32
}

func newNominatimStub(t *testing.T, handler http.HandlerFunc) *nominatimStub {
	t.Helper()
	s := &nominatimStub{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func newTestGeocoder(t *testing.T, baseURL string, retries int) *Geocoder {
	t.Helper()
	cache, err := NewMemoryCache(1000, time.Hour)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	cfg := config.GeocodeConfig{
		BaseURL:   baseURL,
		UserAgent: "TourRecommendationSystem/1.0",
		Timeout:   config.Duration{Duration: 2 * time.Second},
		Retries:   retries,
	}
	return New(cfg, cache, logger.Discard(), WithBackoff(time.Millisecond))
}

func TestGeocodeCachesResult(t *testing.T) {
	stub := newNominatimStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Varkala", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "TourRecommendationSystem/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"8.7379","lon":"76.7163"},{"lat":"0","lon":"0"}]`))
	})
	g := newTestGeocoder(t, stub.server.URL, 0)

	first, err := g.Geocode(context.Background(), "Varkala")
	require.NoError(t, err)
	assert.Equal(t, model.Coordinates{Latitude: 8.7379, Longitude: 76.7163}, first)

	second, err := g.Geocode(context.Background(), "Varkala")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, stub.requests.Load())

	assert.Equal(t, "https://www.google.com/maps?q=8.7379,76.7163", g.MapLink(context.Background(), "Varkala"))
	assert.EqualValues(t, 1, stub.requests.Load())
}

func TestGeocodeConcurrentMissesCollapse(t *testing.T) {
	release := make(chan struct{})
	stub := newNominatimStub(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`[{"lat":"10","lon":"77"}]`))
	})
	g := newTestGeocoder(t, stub.server.URL, 0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := g.Lookup(context.Background(), "Munnar")
			assert.True(t, ok)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, stub.requests.Load())
}

func TestGeocodeManyPlacesOneRequestEach(t *testing.T) {
	stub := newNominatimStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"10","lon":"76"}]`))
	})
	g := newTestGeocoder(t, stub.server.URL, 0)

	for round := 0; round < 2; round++ {
		for i := 0; i < 300; i++ {
			_, ok := g.Lookup(context.Background(), fmt.Sprintf("place-%d", i))
			require.True(t, ok)
		}
	}
	assert.EqualValues(t, 300, stub.requests.Load())
}

func TestGeocodeSharedLookupSurvivesCallerCancel(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	stub := newNominatimStub(t, func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.Write([]byte(`[{"lat":"9.9","lon":"76.2"}]`))
	})
	g := newTestGeocoder(t, stub.server.URL, 0)

	ctx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		g.Geocode(ctx, "Fort Kochi")
	}()
	<-started

	type result struct {
		c   model.Coordinates
		err error
	}
	second := make(chan result, 1)
	go func() {
		c, err := g.Geocode(context.Background(), "Fort Kochi")
		second <- result{c, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 9.9, got.c.Latitude)
	<-firstDone
	assert.EqualValues(t, 1, stub.requests.Load())
}

func TestGeocodeNonOKIsUnset(t *testing.T) {
	stub := newNominatimStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	g := newTestGeocoder(t, stub.server.URL, 2)

	_, err := g.Geocode(context.Background(), "Nowhere")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.EqualValues(t, 1, stub.requests.Load())

	_, ok := g.Lookup(context.Background(), "Nowhere")
	assert.False(t, ok)
	assert.Equal(t, "", g.MapLink(context.Background(), "Nowhere"))
}

func TestGeocodeEmptyResult(t *testing.T) {
	stub := newNominatimStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	g := newTestGeocoder(t, stub.server.URL, 2)

	_, err := g.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
	assert.EqualValues(t, 1, stub.requests.Load())
}

func TestGeocodeBadCoordinates(t *testing.T) {
	stub := newNominatimStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"north","lon":"76"}]`))
	})
	g := newTestGeocoder(t, stub.server.URL, 0)

	_, err := g.Geocode(context.Background(), "Kochi")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestGeocodeRetriesServerErrors(t *testing.T) {
	var failures atomic.Int32
	stub := newNominatimStub(t, func(w http.ResponseWriter, r *http.Request) {
		if failures.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"lat":"9.5","lon":"76.3"}]`))
	})
	g := newTestGeocoder(t, stub.server.URL, 2)

	c, err := g.Geocode(context.Background(), "Alleppey")
	require.NoError(t, err)
	assert.Equal(t, 9.5, c.Latitude)
	assert.EqualValues(t, 3, stub.requests.Load())
}

func TestRetryWithBackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryWithBackoff(ctx, func() error { calls++; return nil }, 3, time.Millisecond, func(error) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestBadgerCache(t *testing.T) {
	db, err := database.OpenKV("", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache := NewBadgerCache(db, time.Hour)
	_, ok := cache.Get("Kochi")
	assert.False(t, ok)

	want := model.Coordinates{Latitude: 9.93, Longitude: 76.26}
	require.NoError(t, cache.Set("Kochi", want))
	got, ok := cache.Get("Kochi")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMemoryCacheHoldsConfiguredEntries(t *testing.T) {
	cache, err := NewMemoryCache(1000, time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	for i := 0; i < 500; i++ {
		require.NoError(t, cache.Set(fmt.Sprintf("place-%d", i), model.Coordinates{Latitude: float64(i)}))
	}
	for i := 0; i < 500; i++ {
		got, ok := cache.Get(fmt.Sprintf("place-%d", i))
		require.True(t, ok, "place-%d", i)
		assert.Equal(t, float64(i), got.Latitude)
	}
}

func TestMemoryCache(t *testing.T) {
	cache, err := NewMemoryCache(0, 0)
	require.NoError(t, err)
	defer cache.Close()

	want := model.Coordinates{Latitude: 1, Longitude: 2}
	require.NoError(t, cache.Set("Wayanad", want))
	got, ok := cache.Get("Wayanad")
	require.True(t, ok)
	assert.Equal(t, want, got)
}
