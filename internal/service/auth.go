// auth.go — сервис регистрации и аутентификации пользователей.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/SonetShaji6/LifeSync/internal/auth"
	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/repository"
)

// AuthService — сервис регистрации и входа.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.Manager
	logger *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.UserRepository, tokens *auth.Manager, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Register создаёт пользователя и возвращает его вместе с токеном доступа.
// Email нормализуется к нижнему регистру.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, "", fmt.Errorf("%w: имя не задано", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: некорректный email %q", ErrValidation, email)
	}
	if len(password) < 6 {
		return nil, "", fmt.Errorf("%w: пароль должен быть не короче 6 символов", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("хэширование пароля: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", fmt.Errorf("%w: email уже зарегистрирован", ErrConflict)
		}
		return nil, "", fmt.Errorf("создание пользователя: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("выпуск токена: %w", err)
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("user_id", user.ID), slog.String("email", user.Email))
	return user, token, nil
}

// Login проверяет учётные данные и возвращает пользователя с токеном.
// Незарегистрированный email отличим от неверного пароля: клиент
// по NotFound предлагает регистрацию.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: пользователь с таким email не зарегистрирован", ErrNotFound)
		}
		return nil, "", fmt.Errorf("поиск пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%w: неверный пароль", ErrUnauthorized)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("выпуск токена: %w", err)
	}

	s.logger.Info("Пользователь вошёл", slog.String("user_id", user.ID))
	return user, token, nil
}

// GetUser возвращает профиль пользователя.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}
