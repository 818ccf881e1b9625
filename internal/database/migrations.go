package database

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed sql
var migrationFiles embed.FS

// Migration миграция схемы с прямым и обратным SQL.
type Migration struct {
	Version int
	Up      string
	Down    string
}

// loadMigrations читает миграции диалекта, отсортированные по версии.
func loadMigrations(dialect string) ([]Migration, error) {
	dir := path.Join("sql", dialect)
	entries, err := migrationFiles.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать каталог миграций: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		// 0001_init_up.sql -> версия 1
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		content, err := migrationFiles.ReadFile(path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать миграцию %s: %w", name, err)
		}
		if byVersion[version] == nil {
			byVersion[version] = &Migration{Version: version}
		}
		switch {
		case strings.HasSuffix(name, "_up.sql"):
			byVersion[version].Up = string(content)
		case strings.HasSuffix(name, "_down.sql"):
			byVersion[version].Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("неполная миграция версии %d", m.Version)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Migrate применяет все еще не примененные миграции, каждую в своей транзакции.
func Migrate(db *sqlx.DB) (applied int, err error) {
	migrations, err := loadMigrations(dialect(db.DriverName()))
	if err != nil {
		return 0, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return 0, fmt.Errorf("не удалось создать schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		query := db.Rebind(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)`)
		if err := db.Get(&exists, query, m.Version); err != nil {
			return applied, fmt.Errorf("не удалось проверить миграцию %d: %w", m.Version, err)
		}
		if exists {
			continue
		}
		if err := apply(db, m.Version, m.Up, true); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// Rollback откатывает последнюю примененную миграцию.
func Rollback(db *sqlx.DB) error {
	migrations, err := loadMigrations(dialect(db.DriverName()))
	if err != nil {
		return err
	}
	var version int
	if err := db.Get(&version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("не удалось получить версию схемы: %w", err)
	}
	for _, m := range migrations {
		if m.Version == version {
			return apply(db, m.Version, m.Down, false)
		}
	}
	return nil
}

func apply(db *sqlx.DB, version int, script string, up bool) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("ошибка при инициации транзакции миграции: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("миграция %d завершилась ошибкой: %w", version, err)
		}
	}
	if up {
		_, err = tx.Exec(tx.Rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), version)
	} else {
		_, err = tx.Exec(tx.Rebind(`DELETE FROM schema_migrations WHERE version = ?`), version)
	}
	if err != nil {
		return fmt.Errorf("не удалось отметить миграцию %d: %w", version, err)
	}
	return tx.Commit()
}

// splitStatements делит скрипт по ';' (в миграциях нет процедур и строк с ';').
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
