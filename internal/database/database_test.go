package database

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelplanner/internal/config"
	"travelplanner/internal/logger"
)

func openMemory(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	for _, d := range []string{"postgres", "sqlite3"} {
		t.Run(d, func(t *testing.T) {
			migrations, err := loadMigrations(d)
			require.NoError(t, err)
			require.NotEmpty(t, migrations)

			for i := 1; i < len(migrations); i++ {
				assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
			}
			for _, m := range migrations {
				assert.NotEmpty(t, m.Up)
				assert.NotEmpty(t, m.Down)
			}
		})
	}
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "postgres", dialect("postgres"))
	assert.Equal(t, "postgres", dialect("pgx"))
	assert.Equal(t, "sqlite3", dialect("sqlite3"))
}

func TestMigrateAndRollback(t *testing.T) {
	db := openMemory(t)

	applied, err := Migrate(db)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	t.Run("idempotent", func(t *testing.T) {
		applied, err := Migrate(db)
		require.NoError(t, err)
		assert.Zero(t, applied)
	})

	t.Run("tables exist", func(t *testing.T) {
		for _, table := range []string{"users", "plans", "revoked_tokens"} {
			_, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1")
			assert.NoError(t, err, table)
		}
	})

	t.Run("plan date check constraint", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO users (username, password_hash) VALUES ('c', 'x')`)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO plans (user_id, destination, start_date, end_date) VALUES (1, 'Munnar', '2024-05-10', '2024-05-01')`)
		assert.Error(t, err)
	})

	t.Run("rollback", func(t *testing.T) {
		require.NoError(t, Rollback(db))
		_, err := db.Exec("SELECT 1 FROM plans LIMIT 1")
		assert.Error(t, err)

		var count int
		require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
		assert.Zero(t, count)
	})
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (x INT);\n\n  CREATE INDEX i ON a (x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, stmts)
}

func TestOpenKV(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		kv, err := OpenKV("", logger.Discard())
		require.NoError(t, err)
		defer kv.Close()

		require.NoError(t, kv.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte("k"), []byte("v"))
		}))
		err = kv.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte("k"))
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				if string(val) != "v" {
					return errors.New("unexpected value")
				}
				return nil
			})
		})
		assert.NoError(t, err)
	})

	t.Run("on disk", func(t *testing.T) {
		kv, err := OpenKV(t.TempDir(), nil)
		require.NoError(t, err)
		assert.NoError(t, kv.Close())
	})
}
