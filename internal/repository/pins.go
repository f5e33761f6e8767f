package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PinRepository — интерфейс доступа к таблице pins.
type PinRepository interface {
	// Upsert устанавливает или заменяет PIN-хэш пользователя.
	Upsert(ctx context.Context, userID, pinHash string) error
	// GetHash возвращает PIN-хэш пользователя.
	GetHash(ctx context.Context, userID string) (string, error)
}

// pinRepo — реализация PinRepository.
type pinRepo struct {
	db DBTX
}

// NewPinRepository создаёт репозиторий PIN-кодов.
func NewPinRepository(db DBTX) PinRepository {
	return &pinRepo{db: db}
}

func (r *pinRepo) Upsert(ctx context.Context, userID, pinHash string) error {
	query := `
		INSERT INTO pins (user_id, pin_hash)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET pin_hash = EXCLUDED.pin_hash, updated_at = now()`

	if _, err := r.db.Exec(ctx, query, userID, pinHash); err != nil {
		return fmt.Errorf("ошибка сохранения PIN: %w", err)
	}
	return nil
}

func (r *pinRepo) GetHash(ctx context.Context, userID string) (string, error) {
	query := `SELECT pin_hash FROM pins WHERE user_id = $1`

	var hash string
	err := r.db.QueryRow(ctx, query, userID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка получения PIN: %w", err)
	}
	return hash, nil
}
