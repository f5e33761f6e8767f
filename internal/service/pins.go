// pins.go — сервис PIN-кодов для доступа к медицинскому разделу.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/SonetShaji6/LifeSync/internal/repository"
)

// PinService — установка и проверка PIN-кода пользователя.
type PinService struct {
	pins   repository.PinRepository
	logger *slog.Logger
}

// NewPinService создаёт сервис PIN-кодов.
func NewPinService(pins repository.PinRepository, logger *slog.Logger) *PinService {
	return &PinService{
		pins:   pins,
		logger: logger.With(slog.String("component", "pin_service")),
	}
}

// validatePin проверяет формат PIN: 4-6 цифр.
func validatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 6 {
		return fmt.Errorf("%w: PIN должен содержать от 4 до 6 цифр", ErrValidation)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: PIN должен состоять только из цифр", ErrValidation)
		}
	}
	return nil
}

// Set устанавливает или заменяет PIN пользователя.
func (s *PinService) Set(ctx context.Context, userID, pin string) error {
	if err := validatePin(pin); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("хэширование PIN: %w", err)
	}
	if err := s.pins.Upsert(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("сохранение PIN: %w", err)
	}

	s.logger.Info("PIN установлен", slog.String("user_id", userID))
	return nil
}

// Verify проверяет PIN пользователя.
// ErrNotFound — PIN не установлен, ErrUnauthorized — PIN неверен.
func (s *PinService) Verify(ctx context.Context, userID, pin string) error {
	hash, err := s.pins.GetHash(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: PIN не установлен", ErrNotFound)
		}
		return fmt.Errorf("получение PIN: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return fmt.Errorf("%w: неверный PIN", ErrUnauthorized)
	}
	return nil
}

// IsSet возвращает true, если PIN пользователя установлен.
func (s *PinService) IsSet(ctx context.Context, userID string) (bool, error) {
	_, err := s.pins.GetHash(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("получение PIN: %w", err)
	}
	return true, nil
}
