package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
)

// MedicationRepository — интерфейс доступа к медикаментам.
type MedicationRepository interface {
	// Create создаёт медикамент.
	Create(ctx context.Context, m *model.Medication) error
	// GetByID возвращает медикамент по UUID.
	GetByID(ctx context.Context, id string) (*model.Medication, error)
	// ListByUser возвращает медикаменты пользователя.
	ListByUser(ctx context.Context, userID string) ([]*model.Medication, error)
	// ListSharedByUsers возвращает расшаренные медикаменты указанных пользователей.
	ListSharedByUsers(ctx context.Context, userIDs []string) ([]*model.Medication, error)
	// Update сохраняет изменённый медикамент.
	Update(ctx context.Context, m *model.Medication) error
	// Delete удаляет медикамент.
	Delete(ctx context.Context, id string) error
}

// medicationRepo — реализация MedicationRepository.
type medicationRepo struct {
	db DBTX
}

// NewMedicationRepository создаёт репозиторий медикаментов.
func NewMedicationRepository(db DBTX) MedicationRepository {
	return &medicationRepo{db: db}
}

const medicationColumns = `id, user_id, family_id, name, dosage, frequency,
	start_date, end_date, doctor, notes, reminder, reminder_times, is_shared, created_at`

// scanMedication читает строку таблицы medications в модель.
func scanMedication(row pgx.Row) (*model.Medication, error) {
	m := &model.Medication{}
	if err := row.Scan(&m.ID, &m.UserID, &m.FamilyID, &m.Name, &m.Dosage,
		&m.Frequency, &m.StartDate, &m.EndDate, &m.Doctor, &m.Notes,
		&m.Reminder, &m.ReminderTimes, &m.IsShared, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *medicationRepo) Create(ctx context.Context, m *model.Medication) error {
	query := `
		INSERT INTO medications (user_id, family_id, name, dosage, frequency,
			start_date, end_date, doctor, notes, reminder, reminder_times, is_shared)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		m.UserID, m.FamilyID, m.Name, m.Dosage, m.Frequency,
		m.StartDate, m.EndDate, m.Doctor, m.Notes,
		m.Reminder, m.ReminderTimes, m.IsShared,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания медикамента: %w", err)
	}
	return nil
}

func (r *medicationRepo) GetByID(ctx context.Context, id string) (*model.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`

	m, err := scanMedication(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения медикамента: %w", err)
	}
	return m, nil
}

func (r *medicationRepo) ListByUser(ctx context.Context, userID string) ([]*model.Medication, error) {
	query := `SELECT ` + medicationColumns + `
		FROM medications
		WHERE user_id = $1
		ORDER BY created_at DESC`

	return r.queryMedications(ctx, query, userID)
}

func (r *medicationRepo) ListSharedByUsers(ctx context.Context, userIDs []string) ([]*model.Medication, error) {
	query := `SELECT ` + medicationColumns + `
		FROM medications
		WHERE user_id = ANY($1) AND is_shared = true
		ORDER BY created_at DESC`

	return r.queryMedications(ctx, query, userIDs)
}

func (r *medicationRepo) queryMedications(ctx context.Context, query string, arg any) ([]*model.Medication, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения медикаментов: %w", err)
	}
	defer rows.Close()

	var medications []*model.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения медикамента: %w", err)
		}
		medications = append(medications, m)
	}
	return medications, rows.Err()
}

func (r *medicationRepo) Update(ctx context.Context, m *model.Medication) error {
	query := `
		UPDATE medications
		SET name = $2, dosage = $3, frequency = $4, start_date = $5, end_date = $6,
			doctor = $7, notes = $8, reminder = $9, reminder_times = $10, is_shared = $11
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		m.ID, m.Name, m.Dosage, m.Frequency, m.StartDate, m.EndDate,
		m.Doctor, m.Notes, m.Reminder, m.ReminderTimes, m.IsShared,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления медикамента: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *medicationRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM medications WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления медикамента: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
