package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TokenRepository хранит идентификаторы отозванных JWT.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository создает новый репозиторий отозванных токенов.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Revoke добавляет токен в черный список (повторный отзыв не ошибка).
func (r *TokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT DO NOTHING`),
		jti, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("не удалось отозвать токен: %w", err)
	}
	return nil
}

// IsRevoked сообщает, находится ли токен в черном списке.
func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.db.GetContext(ctx, &revoked, r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti=?)`), jti)
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке токена: %w", err)
	}
	return revoked, nil
}

// PurgeExpired удаляет записи о токенах, срок которых уже истек.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM revoked_tokens WHERE expires_at < ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("не удалось очистить отозванные токены: %w", err)
	}
	return res.RowsAffected()
}
