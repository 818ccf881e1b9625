// Package database открывает реляционную базу (postgres или sqlite) и KV-хранилище badger.
package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib" // драйвер pgx
	_ "github.com/lib/pq"              // PostgreSQL драйвер
	_ "github.com/mattn/go-sqlite3"    // SQLite драйвер

	"travelplanner/internal/config"
)

// Open подключается к базе по настройкам и настраивает пул соединений.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == "sqlite3" && !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	db, err := sqlx.Connect(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	if cfg.Driver == "sqlite3" && strings.Contains(cfg.DSN, ":memory:") {
		// каждое новое соединение к :memory: получает свою пустую базу
		db.SetMaxOpenConns(1)
		return db, nil
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return db, nil
}

// dialect выбирает каталог миграций для драйвера.
func dialect(driverName string) string {
	switch driverName {
	case "sqlite3":
		return "sqlite3"
	default:
		return "postgres"
	}
}
