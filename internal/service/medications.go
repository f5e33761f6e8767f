// medications.go — сервис медикаментов и напоминаний о приёме.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/repository"
)

// MedicationInput — данные для создания или обновления медикамента.
type MedicationInput struct {
	// Name — название препарата
	Name string
	// Dosage — дозировка
	Dosage string
	// Frequency — частота приёма
	Frequency string
	// StartDate — начало курса (опционально)
	StartDate *time.Time
	// EndDate — конец курса (опционально)
	EndDate *time.Time
	// Doctor — назначивший врач (опционально)
	Doctor *string
	// Notes — заметки (опционально)
	Notes *string
	// Reminder — включить напоминания
	Reminder bool
	// ReminderTimes — времена напоминаний HH:MM
	ReminderTimes []string
	// IsShared — расшарить для семьи
	IsShared bool
}

// MedicationService — сервис медикаментов.
type MedicationService struct {
	medications repository.MedicationRepository
	families    *FamilyService
	logger      *slog.Logger
}

// NewMedicationService создаёт сервис медикаментов.
func NewMedicationService(
	medications repository.MedicationRepository,
	families *FamilyService,
	logger *slog.Logger,
) *MedicationService {
	return &MedicationService{
		medications: medications,
		families:    families,
		logger:      logger.With(slog.String("component", "medication_service")),
	}
}

// validateMedicationInput проверяет обязательные поля и формат времён.
func validateMedicationInput(in *MedicationInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: название препарата не задано", ErrValidation)
	}
	if in.Reminder && len(in.ReminderTimes) == 0 {
		return fmt.Errorf("%w: для напоминаний нужно указать хотя бы одно время", ErrValidation)
	}
	for _, rt := range in.ReminderTimes {
		if _, err := time.Parse("15:04", rt); err != nil {
			return fmt.Errorf("%w: некорректное время напоминания %q (ожидается HH:MM)", ErrValidation, rt)
		}
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return fmt.Errorf("%w: конец курса раньше начала", ErrValidation)
	}
	return nil
}

// Create создаёт медикамент пользователя.
func (s *MedicationService) Create(ctx context.Context, userID string, in *MedicationInput) (*model.Medication, error) {
	if err := validateMedicationInput(in); err != nil {
		return nil, err
	}

	m := &model.Medication{
		UserID:        userID,
		Name:          in.Name,
		Dosage:        in.Dosage,
		Frequency:     in.Frequency,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Doctor:        in.Doctor,
		Notes:         in.Notes,
		Reminder:      in.Reminder,
		ReminderTimes: in.ReminderTimes,
		IsShared:      in.IsShared,
	}
	if m.ReminderTimes == nil {
		m.ReminderTimes = []string{}
	}
	if err := s.medications.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("создание медикамента: %w", err)
	}

	s.logger.Info("Медикамент создан",
		slog.String("medication_id", m.ID), slog.String("user_id", userID))
	return m, nil
}

// List возвращает медикаменты пользователя.
func (s *MedicationService) List(ctx context.Context, userID string) ([]*model.Medication, error) {
	medications, err := s.medications.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение медикаментов: %w", err)
	}
	return medications, nil
}

// ListFamilyShared возвращает расшаренные медикаменты остальных
// членов семьи.
func (s *MedicationService) ListFamilyShared(ctx context.Context, userID string) ([]*model.Medication, error) {
	memberIDs, err := s.families.MemberIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	others := memberIDs[:0]
	for _, id := range memberIDs {
		if id != userID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return nil, nil
	}

	medications, err := s.medications.ListSharedByUsers(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("получение расшаренных медикаментов: %w", err)
	}
	return medications, nil
}

// Get возвращает медикамент с проверкой доступа: владелец всегда,
// член семьи — только к расшаренному.
func (s *MedicationService) Get(ctx context.Context, userID, medicationID string) (*model.Medication, error) {
	m, err := s.medications.GetByID(ctx, medicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: медикамент не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("получение медикамента: %w", err)
	}
	if m.UserID == userID {
		return m, nil
	}
	if !m.IsShared {
		return nil, fmt.Errorf("%w: медикамент не расшарен", ErrForbidden)
	}

	memberIDs, err := s.families.MemberIDs(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: медикамент принадлежит другому пользователю", ErrForbidden)
		}
		return nil, err
	}
	for _, id := range memberIDs {
		if id == m.UserID {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: медикамент принадлежит члену другой семьи", ErrForbidden)
}

// ToggleShared инвертирует флаг расшаривания медикамента.
func (s *MedicationService) ToggleShared(ctx context.Context, userID, medicationID string) (*model.Medication, error) {
	m, err := s.getOwned(ctx, userID, medicationID)
	if err != nil {
		return nil, err
	}

	m.IsShared = !m.IsShared
	if err := s.medications.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("обновление медикамента: %w", err)
	}
	return m, nil
}

// Update обновляет медикамент владельца.
func (s *MedicationService) Update(ctx context.Context, userID, medicationID string, in *MedicationInput) (*model.Medication, error) {
	if err := validateMedicationInput(in); err != nil {
		return nil, err
	}

	m, err := s.getOwned(ctx, userID, medicationID)
	if err != nil {
		return nil, err
	}

	m.Name = in.Name
	m.Dosage = in.Dosage
	m.Frequency = in.Frequency
	m.StartDate = in.StartDate
	m.EndDate = in.EndDate
	m.Doctor = in.Doctor
	m.Notes = in.Notes
	m.Reminder = in.Reminder
	m.ReminderTimes = in.ReminderTimes
	m.IsShared = in.IsShared
	if m.ReminderTimes == nil {
		m.ReminderTimes = []string{}
	}

	if err := s.medications.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("обновление медикамента: %w", err)
	}

	s.logger.Info("Медикамент обновлён", slog.String("medication_id", m.ID))
	return m, nil
}

// Delete удаляет медикамент владельца.
func (s *MedicationService) Delete(ctx context.Context, userID, medicationID string) error {
	m, err := s.getOwned(ctx, userID, medicationID)
	if err != nil {
		return err
	}
	if err := s.medications.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("удаление медикамента: %w", err)
	}

	s.logger.Info("Медикамент удалён", slog.String("medication_id", m.ID))
	return nil
}

// getOwned возвращает медикамент, принадлежащий пользователю.
func (s *MedicationService) getOwned(ctx context.Context, userID, medicationID string) (*model.Medication, error) {
	m, err := s.medications.GetByID(ctx, medicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: медикамент не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("получение медикамента: %w", err)
	}
	if m.UserID != userID {
		return nil, fmt.Errorf("%w: медикамент принадлежит другому пользователю", ErrForbidden)
	}
	return m, nil
}
