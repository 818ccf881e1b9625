package database

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// badgerLogger адаптирует log.Logger к интерфейсу badger.Logger.
type badgerLogger struct {
	logger *log.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (b *badgerLogger) Errorf(msg string, items ...any)   { b.logger.Error(fmt.Sprintf(msg, items...)) }
func (b *badgerLogger) Warningf(msg string, items ...any) { b.logger.Warn(fmt.Sprintf(msg, items...)) }
func (b *badgerLogger) Infof(msg string, items ...any)    { b.logger.Debug(fmt.Sprintf(msg, items...)) }
func (b *badgerLogger) Debugf(msg string, items ...any)   { b.logger.Debug(fmt.Sprintf(msg, items...)) }

// OpenKV открывает badger в каталоге path; пустой path дает хранилище в памяти.
func OpenKV(path string, logger *log.Logger) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Compression = options.None
	if logger != nil {
		opts.Logger = &badgerLogger{logger: logger.With("component", "badger")}
	} else {
		opts.Logger = nil
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть badger: %w", err)
	}
	return db, nil
}
