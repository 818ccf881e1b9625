package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"travelplanner/internal/auth"
	"travelplanner/internal/model"
	"travelplanner/internal/repository"
)

// AuthService отвечает за регистрацию, вход и выход пользователей.
type AuthService struct {
	users  *repository.UserRepository
	tokens *repository.TokenRepository
	hasher *auth.PasswordHasher
	issuer *auth.TokenIssuer
	logger *log.Logger
}

// NewAuthService создает новый сервис аутентификации.
func NewAuthService(users *repository.UserRepository, tokens *repository.TokenRepository,
	hasher *auth.PasswordHasher, issuer *auth.TokenIssuer, logger *log.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, hasher: hasher, issuer: issuer, logger: logger}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session пользователь и выданные ему токены.
type Session struct {
	User   *model.User
	Tokens auth.TokenPair
}

// Register создает учетную запись и сразу выдает токены.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	errs := fieldErrors{}
	if in.Username == "" {
		errs.add("username", msgRequired)
	}
	if in.Email == "" {
		errs.add("email", msgRequired)
	} else if !validEmail(in.Email) {
		errs.add("email", msgInvalidEmail)
	}
	if in.Password == "" {
		errs.add("password", msgRequired)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, FieldError("username", msgUsernameTaken)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, FieldError("username", msgUsernameTaken)
		}
		return nil, err
	}
	s.logger.Info("зарегистрирован пользователь", "user_id", user.ID, "username", user.Username)
	return s.session(user)
}

// Login проверяет имя и пароль.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	errs := fieldErrors{}
	if strings.TrimSpace(username) == "" {
		errs.add("username", msgRequired)
	}
	if password == "" {
		errs.add("password", msgRequired)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.session(user)
}

func (s *AuthService) session(user *model.User) (*Session, error) {
	pair, err := s.issuer.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: pair}, nil
}

// Refresh выдает новый access-токен по действующему refresh-токену.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.Token, error) {
	claims, err := s.issuer.Parse(refreshToken, auth.RefreshToken)
	if err != nil {
		return auth.Token{}, ErrUnauthorized
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return auth.Token{}, err
	}
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.Token{}, ErrUnauthorized
		}
		return auth.Token{}, err
	}
	return s.issuer.Issue(claims.UserID, auth.AccessToken)
}

// Authenticate проверяет access-токен и возвращает его владельца.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, *auth.Claims, error) {
	claims, err := s.issuer.Parse(accessToken, auth.AccessToken)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrUnauthorized
	}
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, jti string) error {
	revoked, err := s.tokens.IsRevoked(ctx, jti)
	if err != nil {
		return err
	}
	if revoked {
		return ErrUnauthorized
	}
	return nil
}

// Logout отзывает текущий access-токен и, если передан, refresh-токен того же пользователя.
// Некорректный refresh-токен игнорируется.
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
		return fmt.Errorf("не удалось отозвать access-токен: %w", err)
	}
	if refreshToken == "" {
		return nil
	}
	refresh, err := s.issuer.Parse(refreshToken, auth.RefreshToken)
	if err != nil || refresh.UserID != access.UserID {
		s.logger.Debug("refresh-токен при выходе не принят", "user_id", access.UserID, "err", err)
		return nil
	}
	if err := s.tokens.Revoke(ctx, refresh.ID, refresh.ExpiresAt.Time); err != nil {
		return fmt.Errorf("не удалось отозвать refresh-токен: %w", err)
	}
	return nil
}
