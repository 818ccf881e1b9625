package service

import (
	"context"
	"errors"
	"strings"

	"travelplanner/internal/auth"
	"travelplanner/internal/model"
	"travelplanner/internal/repository"
)

// UserService содержит бизнес-логику профиля пользователя.
type UserService struct {
	users  *repository.UserRepository
	hasher *auth.PasswordHasher
}

// NewUserService создает новый сервис пользователей.
func NewUserService(users *repository.UserRepository, hasher *auth.PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// ProfileUpdate частичное обновление профиля; nil означает «не менять».
type ProfileUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}

// GetByID возвращает пользователя по ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// UpdateProfile применяет изменения к профилю.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	if upd.Username != nil {
		if name := strings.TrimSpace(*upd.Username); name == "" {
			errs.add("username", msgRequired)
		} else {
			user.Username = name
		}
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if email != "" {
			if !validEmail(email) {
				errs.add("email", msgInvalidEmail)
			}
		}
		user.Email = email
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, FieldError("username", msgUsernameTaken)
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *UserService) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return Invalid("Old and new passwords are required.")
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return Invalid("Old password is incorrect.")
		}
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}
