package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"

	"travelplanner/internal/model"
)

// ErrCacheRejected запись отброшена кешем (переполнен буфер или не прошла политика допуска).
var ErrCacheRejected = errors.New("cache rejected the entry")

// Cache хранилище координат по названию места.
type Cache interface {
	Get(name string) (model.Coordinates, bool)
	Set(name string, c model.Coordinates) error
}

// MemoryCache кеш в памяти с ограничением по числу записей и TTL.
type MemoryCache struct {
	cache *ristretto.Cache[string, model.Coordinates]
	ttl   time.Duration
}

// NewMemoryCache создает кеш на maxEntries записей; ttl = 0 отключает истечение.
// Стоимость каждой записи 1, внутренний размер элемента не учитывается.
func NewMemoryCache(maxEntries int64, ttl time.Duration) (*MemoryCache, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, model.Coordinates]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать кеш координат: %w", err)
	}
	return &MemoryCache{cache: cache, ttl: ttl}, nil
}

func (m *MemoryCache) Get(name string) (model.Coordinates, bool) {
	return m.cache.Get(name)
}

func (m *MemoryCache) Set(name string, c model.Coordinates) error {
	if !m.cache.SetWithTTL(name, c, 1, m.ttl) {
		return fmt.Errorf("%w: %s", ErrCacheRejected, name)
	}
	m.cache.Wait()
	return nil
}

func (m *MemoryCache) Close() {
	m.cache.Close()
}

const badgerKeyPrefix = "geo:"

// BadgerCache кеш координат в badger, переживает перезапуск процесса.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

func NewBadgerCache(db *badger.DB, ttl time.Duration) *BadgerCache {
	return &BadgerCache{db: db, ttl: ttl}
}

func (b *BadgerCache) Get(name string) (model.Coordinates, bool) {
	var c model.Coordinates
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
	})
	if err != nil {
		return model.Coordinates{}, false
	}
	return c, true
}

func (b *BadgerCache) Set(name string, c model.Coordinates) error {
	val, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(badgerKeyPrefix+name), val)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

var _ Cache = (*MemoryCache)(nil)
var _ Cache = (*BadgerCache)(nil)

