package repository

import (
	"context"
	"fmt"
	"time"

	"travelplanner/internal/model"

	"github.com/jmoiron/sqlx"
)

// UserRepository обеспечивает доступ к данным пользователей в базе данных.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт новый репозиторий пользователей.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, created_at, updated_at`

// Create добавляет нового пользователя в базу и заполняет ID и отметки времени.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`INSERT INTO users (username, email, password_hash, first_name, last_name, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, now, now).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
		}
		return fmt.Errorf("не удалось создать пользователя: %w", err)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

// GetByID возвращает пользователя по внутреннему идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id=?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByUsername ищет пользователя по имени для входа.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE username=?`), username)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ExistsByUsername сообщает, занято ли имя пользователя.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE username=?)`), username)
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке имени пользователя: %w", err)
	}
	return exists, nil
}

// ListByEmail возвращает всех пользователей с данным email (адрес не уникален).
func (r *UserRepository) ListByEmail(ctx context.Context, email string) ([]model.User, error) {
	users := []model.User{}
	err := r.db.SelectContext(ctx, &users, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email=? ORDER BY id`), email)
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске пользователей по email: %w", err)
	}
	return users, nil
}

// UpdateProfile сохраняет имя, email и ФИО пользователя.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET username=?, email=?, first_name=?, last_name=?, updated_at=? WHERE id=?`),
		user.Username, user.Email, user.FirstName, user.LastName, now, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
		}
		return fmt.Errorf("не удалось обновить профиль: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

// UpdatePassword заменяет хэш пароля пользователя.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET password_hash=?, updated_at=? WHERE id=?`),
		hash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("не удалось обновить пароль: %w", err)
	}
	return requireRow(res)
}
