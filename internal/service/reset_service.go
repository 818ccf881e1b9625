package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"travelplanner/internal/auth"
	"travelplanner/internal/mailer"
	"travelplanner/internal/model"
	"travelplanner/internal/otp"
	"travelplanner/internal/repository"
)

const otpSubject = "Password Reset OTP"

// PasswordResetService сброс пароля по одноразовому коду из письма.
type PasswordResetService struct {
	users  *repository.UserRepository
	hasher *auth.PasswordHasher
	codes  *otp.Store
	mailer mailer.Mailer
	logger *log.Logger
}

// NewPasswordResetService создает новый сервис сброса пароля.
func NewPasswordResetService(users *repository.UserRepository, hasher *auth.PasswordHasher,
	codes *otp.Store, m mailer.Mailer, logger *log.Logger) *PasswordResetService {
	return &PasswordResetService{users: users, hasher: hasher, codes: codes, mailer: m, logger: logger}
}

// ResetInput данные запроса на смену пароля.
type ResetInput struct {
	Email           string
	OTP             string
	NewPassword     string
	ConfirmPassword string
}

// Forgot выпускает код для единственного пользователя с этим email и отправляет его письмом.
func (s *PasswordResetService) Forgot(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Invalid("Email is required.")
	}
	if _, err := s.userByEmail(ctx, email); err != nil {
		return err
	}

	code, err := s.codes.Issue(email)
	if err != nil {
		return fmt.Errorf("не удалось сохранить код: %w", err)
	}
	body := fmt.Sprintf("Your OTP for password reset is: %s", code)
	if err := s.mailer.Send(ctx, email, otpSubject, body); err != nil {
		if delErr := s.codes.Delete(email); delErr != nil {
			s.logger.Warn("не удалось удалить неотправленный код", "err", delErr)
		}
		return err
	}
	s.logger.Info("отправлен код сброса пароля", "email", email)
	return nil
}

// Verify проверяет код, не расходуя его.
func (s *PasswordResetService) Verify(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(code) == "" {
		return Invalid("Email and OTP are required.")
	}
	return s.verify(email, code, s.codes.Verify)
}

// Reset меняет пароль. Код должен быть действующим и после успеха больше не принимается.
func (s *PasswordResetService) Reset(ctx context.Context, in ResetInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || strings.TrimSpace(in.OTP) == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		return Invalid("Email, OTP, new password, and confirm password are required.")
	}
	if in.NewPassword != in.ConfirmPassword {
		return Invalid("Passwords do not match.")
	}
	user, err := s.userByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if err := s.verify(in.Email, in.OTP, s.codes.Consume); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.logger.Info("пароль сброшен", "user_id", user.ID)
	return nil
}

func (s *PasswordResetService) verify(email, code string, check func(email, code string) error) error {
	err := check(email, code)
	if errors.Is(err, otp.ErrInvalidOTP) {
		return ErrInvalidOTP
	}
	return err
}

func (s *PasswordResetService) userByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.users.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return &users[0], nil
	default:
		return nil, ErrMultipleAccounts
	}
}
