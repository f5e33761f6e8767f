package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
)

// FileRepository — интерфейс доступа к записям файлов.
type FileRepository interface {
	// Create регистрирует файл.
	Create(ctx context.Context, f *model.FileRecord) error
	// GetByID возвращает файл scope по UUID.
	GetByID(ctx context.Context, scope model.OwnerScope, id string) (*model.FileRecord, error)
	// GetAnyByID возвращает файл по UUID без проверки scope.
	// Используется для доступа к расшаренным файлам.
	GetAnyByID(ctx context.Context, id string) (*model.FileRecord, error)
	// GetByName возвращает файл по имени внутри папки.
	GetByName(ctx context.Context, parentFolderID, name string) (*model.FileRecord, error)
	// ListByFolder возвращает файлы папки.
	ListByFolder(ctx context.Context, parentFolderID string) ([]*model.FileRecord, error)
	// Update сохраняет имя, blob-путь и родительскую папку файла.
	Update(ctx context.Context, f *model.FileRecord) error
	// ToggleShared инвертирует флаг расшаривания, возвращает новое значение.
	ToggleShared(ctx context.Context, id string) (bool, error)
	// RebaseBlobPaths заменяет префикс blob-путей всех файлов,
	// лежащих под директорией oldPrefix, на newPrefix.
	RebaseBlobPaths(ctx context.Context, oldPrefix, newPrefix string) error
	// Delete удаляет запись файла.
	Delete(ctx context.Context, id string) error
}

// fileRepo — реализация FileRepository.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

const fileColumns = `id, name, content_type, size, blob_path, user_id, family_id,
	parent_folder_id, is_shared, upload_date`

// scanFile читает строку таблицы files в модель.
func scanFile(row pgx.Row) (*model.FileRecord, error) {
	f := &model.FileRecord{}
	var userID, familyID *string
	if err := row.Scan(&f.ID, &f.Name, &f.ContentType, &f.Size, &f.BlobPath,
		&userID, &familyID, &f.ParentFolderID, &f.IsShared, &f.UploadDate); err != nil {
		return nil, err
	}
	if userID != nil {
		f.Scope = model.PrivateScope(*userID)
	} else if familyID != nil {
		f.Scope = model.FamilyScope(*familyID)
	}
	return f, nil
}

func (r *fileRepo) Create(ctx context.Context, f *model.FileRecord) error {
	query := `
		INSERT INTO files (name, content_type, size, blob_path, user_id, family_id,
			parent_folder_id, is_shared)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, upload_date`

	err := r.db.QueryRow(ctx, query,
		f.Name, f.ContentType, f.Size, f.BlobPath,
		f.Scope.UserID(), f.Scope.FamilyID(), f.ParentFolderID, f.IsShared,
	).Scan(&f.ID, &f.UploadDate)
	if err != nil {
		return fmt.Errorf("ошибка регистрации файла: %w", err)
	}
	return nil
}

func (r *fileRepo) GetByID(ctx context.Context, scope model.OwnerScope, id string) (*model.FileRecord, error) {
	cond, arg := scopeCondition(scope, 2)
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND ` + cond

	f, err := scanFile(r.db.QueryRow(ctx, query, id, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) GetAnyByID(ctx context.Context, id string) (*model.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	f, err := scanFile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) GetByName(ctx context.Context, parentFolderID, name string) (*model.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE parent_folder_id = $1 AND name = $2`

	f, err := scanFile(r.db.QueryRow(ctx, query, parentFolderID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла по имени: %w", err)
	}
	return f, nil
}

func (r *fileRepo) ListByFolder(ctx context.Context, parentFolderID string) ([]*model.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE parent_folder_id = $1 ORDER BY name`

	rows, err := r.db.Query(ctx, query, parentFolderID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения файлов папки: %w", err)
	}
	defer rows.Close()

	var files []*model.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения файла: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *fileRepo) Update(ctx context.Context, f *model.FileRecord) error {
	query := `
		UPDATE files
		SET name = $2, blob_path = $3, parent_folder_id = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, f.ID, f.Name, f.BlobPath, f.ParentFolderID)
	if err != nil {
		return fmt.Errorf("ошибка обновления файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) ToggleShared(ctx context.Context, id string) (bool, error) {
	query := `UPDATE files SET is_shared = NOT is_shared WHERE id = $1 RETURNING is_shared`

	var shared bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&shared); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("ошибка переключения флага расшаривания: %w", err)
	}
	return shared, nil
}

// RebaseBlobPaths используется при переименовании и перемещении папок:
// физическая директория переносится целиком, записи файлов поддерева
// должны продолжать указывать на действующие blob-пути.
func (r *fileRepo) RebaseBlobPaths(ctx context.Context, oldPrefix, newPrefix string) error {
	query := `
		UPDATE files
		SET blob_path = $2 || substring(blob_path FROM char_length($1) + 1)
		WHERE starts_with(blob_path, $1 || '/')`

	if _, err := r.db.Exec(ctx, query, oldPrefix, newPrefix); err != nil {
		return fmt.Errorf("ошибка переноса blob-путей: %w", err)
	}
	return nil
}

func (r *fileRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM files WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
