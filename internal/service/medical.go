// medical.go — сервис медицинских записей.
// Записи принадлежат пользователю; расшаренные записи видны членам
// его семьи. Прикреплённые файлы хранятся в отдельной области
// blob-хранилища, вне виртуальной файловой системы.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/repository"
)

// MedicalRecordInput — данные для создания или обновления записи.
type MedicalRecordInput struct {
	// RecordType — тип записи
	RecordType string
	// Date — дата события
	Date time.Time
	// Title — заголовок
	Title string
	// Institution — медицинское учреждение (опционально)
	Institution *string
	// Doctor — врач (опционально)
	Doctor *string
	// Details — произвольные детали (JSON)
	Details json.RawMessage
	// IsShared — расшарить для семьи
	IsShared bool
}

// MedicalUpload — прикрепляемый файл.
type MedicalUpload struct {
	// Filename — оригинальное имя
	Filename string
	// ContentType — MIME-тип
	ContentType string
	// Reader — содержимое
	Reader io.Reader
}

// MedicalService — сервис медицинских записей.
type MedicalService struct {
	records  repository.MedicalRecordRepository
	families *FamilyService
	storage  *StorageService
	logger   *slog.Logger
}

// NewMedicalService создаёт сервис медицинских записей.
func NewMedicalService(
	records repository.MedicalRecordRepository,
	families *FamilyService,
	storage *StorageService,
	logger *slog.Logger,
) *MedicalService {
	return &MedicalService{
		records:  records,
		families: families,
		storage:  storage,
		logger:   logger.With(slog.String("component", "medical_service")),
	}
}

// validateInput проверяет обязательные поля записи.
func (s *MedicalService) validateInput(in *MedicalRecordInput) error {
	if !model.IsValidRecordType(in.RecordType) {
		return fmt.Errorf("%w: недопустимый тип записи %q", ErrValidation, in.RecordType)
	}
	if in.Title == "" {
		return fmt.Errorf("%w: заголовок не задан", ErrValidation)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: дата не задана", ErrValidation)
	}
	return nil
}

// Create создаёт запись, при наличии upload — сохраняет прикреплённый файл.
func (s *MedicalService) Create(ctx context.Context, userID string, in *MedicalRecordInput, upload *MedicalUpload) (*model.MedicalRecord, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	rec := &model.MedicalRecord{
		UserID:      userID,
		RecordType:  in.RecordType,
		Date:        in.Date,
		Title:       in.Title,
		Institution: in.Institution,
		Doctor:      in.Doctor,
		Details:     in.Details,
		IsShared:    in.IsShared,
	}

	if upload != nil {
		file, err := s.storage.SaveMedicalBlob(userID, upload.Filename, upload.ContentType, upload.Reader)
		if err != nil {
			return nil, err
		}
		rec.File = file
	}

	if err := s.records.Create(ctx, rec); err != nil {
		if rec.File != nil {
			_ = s.storage.RemoveMedicalBlob(rec.File.BlobPath)
		}
		return nil, fmt.Errorf("создание записи: %w", err)
	}

	s.logger.Info("Медицинская запись создана",
		slog.String("record_id", rec.ID), slog.String("user_id", userID))
	return rec, nil
}

// List возвращает записи пользователя.
func (s *MedicalService) List(ctx context.Context, userID string) ([]*model.MedicalRecord, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение записей: %w", err)
	}
	return records, nil
}

// ListFamilyShared возвращает расшаренные записи остальных членов семьи.
func (s *MedicalService) ListFamilyShared(ctx context.Context, userID string) ([]*model.MedicalRecord, error) {
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

	records, err := s.records.ListSharedByUsers(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("получение расшаренных записей: %w", err)
	}
	return records, nil
}

// Get возвращает запись с проверкой доступа: владелец всегда,
// член семьи — только к расшаренной записи.
func (s *MedicalService) Get(ctx context.Context, userID, recordID string) (*model.MedicalRecord, error) {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: запись не найдена", ErrNotFound)
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	if rec.UserID != userID {
		if err := s.requireFamilyAccess(ctx, userID, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// requireFamilyAccess проверяет доступ члена семьи к чужой записи.
func (s *MedicalService) requireFamilyAccess(ctx context.Context, userID string, rec *model.MedicalRecord) error {
	if !rec.IsShared {
		return fmt.Errorf("%w: запись не расшарена", ErrForbidden)
	}
	memberIDs, err := s.families.MemberIDs(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: запись принадлежит другому пользователю", ErrForbidden)
		}
		return err
	}
	for _, id := range memberIDs {
		if id == rec.UserID {
			return nil
		}
	}
	return fmt.Errorf("%w: запись принадлежит другому пользователю", ErrForbidden)
}

// Update обновляет запись владельца. Новый upload заменяет
// прикреплённый файл, старое содержимое удаляется.
func (s *MedicalService) Update(ctx context.Context, userID, recordID string, in *MedicalRecordInput, upload *MedicalUpload) (*model.MedicalRecord, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	rec, err := s.getOwned(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	rec.RecordType = in.RecordType
	rec.Date = in.Date
	rec.Title = in.Title
	rec.Institution = in.Institution
	rec.Doctor = in.Doctor
	rec.Details = in.Details
	rec.IsShared = in.IsShared

	var oldBlobPath string
	if upload != nil {
		if rec.File != nil {
			oldBlobPath = rec.File.BlobPath
		}
		file, err := s.storage.SaveMedicalBlob(userID, upload.Filename, upload.ContentType, upload.Reader)
		if err != nil {
			return nil, err
		}
		rec.File = file
	}

	if err := s.records.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("обновление записи: %w", err)
	}
	if oldBlobPath != "" {
		_ = s.storage.RemoveMedicalBlob(oldBlobPath)
	}

	s.logger.Info("Медицинская запись обновлена", slog.String("record_id", rec.ID))
	return rec, nil
}

// ToggleShared инвертирует флаг расшаривания записи.
func (s *MedicalService) ToggleShared(ctx context.Context, userID, recordID string) (*model.MedicalRecord, error) {
	rec, err := s.getOwned(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	rec.IsShared = !rec.IsShared
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("обновление записи: %w", err)
	}
	return rec, nil
}

// Delete удаляет запись владельца вместе с прикреплённым файлом.
func (s *MedicalService) Delete(ctx context.Context, userID, recordID string) error {
	rec, err := s.getOwned(ctx, userID, recordID)
	if err != nil {
		return err
	}
	if err := s.records.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("удаление записи: %w", err)
	}
	if rec.File != nil {
		_ = s.storage.RemoveMedicalBlob(rec.File.BlobPath)
	}

	s.logger.Info("Медицинская запись удалена", slog.String("record_id", rec.ID))
	return nil
}

// DownloadFile открывает прикреплённый файл записи с проверкой доступа.
func (s *MedicalService) DownloadFile(ctx context.Context, userID, recordID string) (*model.MedicalRecord, *os.File, error) {
	rec, err := s.Get(ctx, userID, recordID)
	if err != nil {
		return nil, nil, err
	}
	if rec.File == nil {
		return nil, nil, fmt.Errorf("%w: у записи нет прикреплённого файла", ErrNotFound)
	}

	f, err := s.storage.OpenMedicalBlob(rec.File.BlobPath)
	if err != nil {
		return nil, nil, err
	}
	return rec, f, nil
}

// getOwned возвращает запись, принадлежащую пользователю.
func (s *MedicalService) getOwned(ctx context.Context, userID, recordID string) (*model.MedicalRecord, error) {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: запись не найдена", ErrNotFound)
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}
	if rec.UserID != userID {
		return nil, fmt.Errorf("%w: запись принадлежит другому пользователю", ErrForbidden)
	}
	return rec, nil
}
