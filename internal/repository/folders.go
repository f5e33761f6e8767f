package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/storage/vpath"
)

// FolderRepository — интерфейс доступа к дереву папок.
// Все операции работают в пределах одного scope (private или family);
// scope-условие входит в каждый запрос, изоляция доменов обеспечивается
// на уровне SQL.
type FolderRepository interface {
	// EnsureRoot идемпотентно создаёт корневую папку scope и возвращает её.
	// Безопасна при конкурентных вызовах.
	EnsureRoot(ctx context.Context, scope model.OwnerScope) (*model.FolderNode, error)
	// Create создаёт папку.
	Create(ctx context.Context, f *model.FolderNode) error
	// GetByID возвращает папку scope по UUID.
	GetByID(ctx context.Context, scope model.OwnerScope, id string) (*model.FolderNode, error)
	// GetByPath возвращает папку scope по нормализованному пути.
	GetByPath(ctx context.Context, scope model.OwnerScope, path string) (*model.FolderNode, error)
	// ListChildren возвращает дочерние папки.
	ListChildren(ctx context.Context, parentID string) ([]*model.FolderNode, error)
	// Update сохраняет имя, путь и родителя папки.
	Update(ctx context.Context, f *model.FolderNode) error
	// Delete удаляет папку. Потомки удаляются каскадом на уровне БД,
	// но сервис обходит дерево явно ради удаления blob.
	Delete(ctx context.Context, id string) error
}

// folderRepo — реализация FolderRepository.
type folderRepo struct {
	db DBTX
}

// NewFolderRepository создаёт репозиторий папок.
func NewFolderRepository(db DBTX) FolderRepository {
	return &folderRepo{db: db}
}

// scopeCondition возвращает SQL-условие владельца и аргумент.
func scopeCondition(scope model.OwnerScope, argNum int) (string, string) {
	if scope.IsPrivate() {
		return fmt.Sprintf("user_id = $%d", argNum), scope.ID
	}
	return fmt.Sprintf("family_id = $%d", argNum), scope.ID
}

const folderColumns = `id, name, parent_id, user_id, family_id, path, created_at`

// scanFolder читает строку таблицы folders в модель.
func scanFolder(row pgx.Row) (*model.FolderNode, error) {
	f := &model.FolderNode{}
	var userID, familyID *string
	if err := row.Scan(&f.ID, &f.Name, &f.ParentID, &userID, &familyID, &f.Path, &f.CreatedAt); err != nil {
		return nil, err
	}
	if userID != nil {
		f.Scope = model.PrivateScope(*userID)
	} else if familyID != nil {
		f.Scope = model.FamilyScope(*familyID)
	}
	return f, nil
}

func (r *folderRepo) EnsureRoot(ctx context.Context, scope model.OwnerScope) (*model.FolderNode, error) {
	// Идемпотентная вставка: частичный уникальный индекс по (owner, path)
	// гасит гонку конкурентных первых обращений, проигравший перечитывает.
	query := `
		INSERT INTO folders (name, parent_id, user_id, family_id, path)
		VALUES ($1, NULL, $2, $3, $4)
		ON CONFLICT DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		vpath.Base(vpath.Root), scope.UserID(), scope.FamilyID(), vpath.Root)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания корневой папки: %w", err)
	}

	root, err := r.GetByPath(ctx, scope, vpath.Root)
	if err != nil {
		return nil, fmt.Errorf("корневая папка недоступна после создания: %w", err)
	}
	return root, nil
}

func (r *folderRepo) Create(ctx context.Context, f *model.FolderNode) error {
	query := `
		INSERT INTO folders (name, parent_id, user_id, family_id, path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		f.Name, f.ParentID, f.Scope.UserID(), f.Scope.FamilyID(), f.Path,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: папка %s уже существует", ErrConflict, f.Path)
		}
		return fmt.Errorf("ошибка создания папки: %w", err)
	}
	return nil
}

func (r *folderRepo) GetByID(ctx context.Context, scope model.OwnerScope, id string) (*model.FolderNode, error) {
	cond, arg := scopeCondition(scope, 2)
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1 AND ` + cond

	f, err := scanFolder(r.db.QueryRow(ctx, query, id, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения папки: %w", err)
	}
	return f, nil
}

func (r *folderRepo) GetByPath(ctx context.Context, scope model.OwnerScope, path string) (*model.FolderNode, error) {
	cond, arg := scopeCondition(scope, 2)
	query := `SELECT ` + folderColumns + ` FROM folders WHERE path = $1 AND ` + cond

	f, err := scanFolder(r.db.QueryRow(ctx, query, path, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения папки по пути: %w", err)
	}
	return f, nil
}

func (r *folderRepo) ListChildren(ctx context.Context, parentID string) ([]*model.FolderNode, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id = $1 ORDER BY name`

	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения дочерних папок: %w", err)
	}
	defer rows.Close()

	var folders []*model.FolderNode
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения папки: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (r *folderRepo) Update(ctx context.Context, f *model.FolderNode) error {
	query := `UPDATE folders SET name = $2, parent_id = $3, path = $4 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, f.ID, f.Name, f.ParentID, f.Path)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: папка %s уже существует", ErrConflict, f.Path)
		}
		return fmt.Errorf("ошибка обновления папки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *folderRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM folders WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления папки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
