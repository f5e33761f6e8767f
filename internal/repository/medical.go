package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
)

// MedicalRecordRepository — интерфейс доступа к медицинским записям.
type MedicalRecordRepository interface {
	// Create создаёт запись.
	Create(ctx context.Context, rec *model.MedicalRecord) error
	// GetByID возвращает запись по UUID.
	GetByID(ctx context.Context, id string) (*model.MedicalRecord, error)
	// ListByUser возвращает записи пользователя (новые первыми).
	ListByUser(ctx context.Context, userID string) ([]*model.MedicalRecord, error)
	// ListSharedByUsers возвращает расшаренные записи указанных пользователей.
	ListSharedByUsers(ctx context.Context, userIDs []string) ([]*model.MedicalRecord, error)
	// Update сохраняет изменённую запись.
	Update(ctx context.Context, rec *model.MedicalRecord) error
	// Delete удаляет запись.
	Delete(ctx context.Context, id string) error
}

// medicalRepo — реализация MedicalRecordRepository.
type medicalRepo struct {
	db DBTX
}

// NewMedicalRecordRepository создаёт репозиторий медицинских записей.
func NewMedicalRecordRepository(db DBTX) MedicalRecordRepository {
	return &medicalRepo{db: db}
}

const medicalColumns = `id, user_id, family_id, record_type, record_date, title,
	institution, doctor, details, file_blob_path, file_name, file_content_type,
	is_shared, created_at`

// scanMedicalRecord читает строку таблицы medical_records в модель.
func scanMedicalRecord(row pgx.Row) (*model.MedicalRecord, error) {
	rec := &model.MedicalRecord{}
	var blobPath, fileName, fileContentType *string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.FamilyID, &rec.RecordType,
		&rec.Date, &rec.Title, &rec.Institution, &rec.Doctor, &rec.Details,
		&blobPath, &fileName, &fileContentType,
		&rec.IsShared, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if blobPath != nil {
		rec.File = &model.MedicalFile{BlobPath: *blobPath}
		if fileName != nil {
			rec.File.Filename = *fileName
		}
		if fileContentType != nil {
			rec.File.ContentType = *fileContentType
		}
	}
	return rec, nil
}

func (r *medicalRepo) Create(ctx context.Context, rec *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (user_id, family_id, record_type, record_date,
			title, institution, doctor, details, file_blob_path, file_name,
			file_content_type, is_shared)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	var blobPath, fileName, fileContentType *string
	if rec.File != nil {
		blobPath = &rec.File.BlobPath
		fileName = &rec.File.Filename
		fileContentType = &rec.File.ContentType
	}

	err := r.db.QueryRow(ctx, query,
		rec.UserID, rec.FamilyID, rec.RecordType, rec.Date, rec.Title,
		rec.Institution, rec.Doctor, rec.Details,
		blobPath, fileName, fileContentType, rec.IsShared,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания медицинской записи: %w", err)
	}
	return nil
}

func (r *medicalRepo) GetByID(ctx context.Context, id string) (*model.MedicalRecord, error) {
	query := `SELECT ` + medicalColumns + ` FROM medical_records WHERE id = $1`

	rec, err := scanMedicalRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения медицинской записи: %w", err)
	}
	return rec, nil
}

func (r *medicalRepo) ListByUser(ctx context.Context, userID string) ([]*model.MedicalRecord, error) {
	query := `SELECT ` + medicalColumns + `
		FROM medical_records
		WHERE user_id = $1
		ORDER BY record_date DESC`

	return r.queryRecords(ctx, query, userID)
}

func (r *medicalRepo) ListSharedByUsers(ctx context.Context, userIDs []string) ([]*model.MedicalRecord, error) {
	query := `SELECT ` + medicalColumns + `
		FROM medical_records
		WHERE user_id = ANY($1) AND is_shared = true
		ORDER BY record_date DESC`

	return r.queryRecords(ctx, query, userIDs)
}

func (r *medicalRepo) queryRecords(ctx context.Context, query string, arg any) ([]*model.MedicalRecord, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения медицинских записей: %w", err)
	}
	defer rows.Close()

	var records []*model.MedicalRecord
	for rows.Next() {
		rec, err := scanMedicalRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения медицинской записи: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *medicalRepo) Update(ctx context.Context, rec *model.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET record_type = $2, record_date = $3, title = $4, institution = $5,
			doctor = $6, details = $7, file_blob_path = $8, file_name = $9,
			file_content_type = $10, is_shared = $11
		WHERE id = $1`

	var blobPath, fileName, fileContentType *string
	if rec.File != nil {
		blobPath = &rec.File.BlobPath
		fileName = &rec.File.Filename
		fileContentType = &rec.File.ContentType
	}

	tag, err := r.db.Exec(ctx, query,
		rec.ID, rec.RecordType, rec.Date, rec.Title, rec.Institution,
		rec.Doctor, rec.Details, blobPath, fileName, fileContentType, rec.IsShared,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления медицинской записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *medicalRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM medical_records WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления медицинской записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
