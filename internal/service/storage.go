// storage.go — сервис виртуальной файловой системы.
// Объединяет индекс папок и файлов (PostgreSQL) с blob-хранилищем на диске.
// Все операции работают в пределах scope (private или family); scope
// разрешается из аутентифицированного пользователя, клиент не может
// подменить владельца.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/jackc/pgx/v5"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/repository"
	"github.com/SonetShaji6/LifeSync/internal/storage/blobstore"
	"github.com/SonetShaji6/LifeSync/internal/storage/vpath"
)

// FolderListing — содержимое папки для ответа API.
type FolderListing struct {
	// Folder — сама папка
	Folder *model.FolderNode
	// Folders — дочерние папки
	Folders []*model.FolderNode
	// Files — файлы папки
	Files []*model.FileRecord
}

// StorageService — сервис виртуальной файловой системы.
type StorageService struct {
	folders  repository.FolderRepository
	files    repository.FileRepository
	families repository.FamilyRepository
	blobs    *blobstore.BlobStore
	tx       *repository.TxRunner
	logger   *slog.Logger
}

// NewStorageService создаёт сервис файловой системы.
func NewStorageService(
	folders repository.FolderRepository,
	files repository.FileRepository,
	families repository.FamilyRepository,
	blobs *blobstore.BlobStore,
	tx *repository.TxRunner,
	logger *slog.Logger,
) *StorageService {
	return &StorageService{
		folders:  folders,
		files:    files,
		families: families,
		blobs:    blobs,
		tx:       tx,
		logger:   logger.With(slog.String("component", "storage_service")),
	}
}

// ResolveScope определяет scope хранилища для пользователя.
// private — личное хранилище, family — хранилище семьи пользователя
// (ErrForbidden, если пользователь не состоит в семье).
func (s *StorageService) ResolveScope(ctx context.Context, userID string, kind model.ScopeKind) (model.OwnerScope, error) {
	if kind == model.ScopePrivate {
		return model.PrivateScope(userID), nil
	}

	family, err := s.families.GetByMemberID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.OwnerScope{}, fmt.Errorf("%w: пользователь не состоит в семье", ErrForbidden)
		}
		return model.OwnerScope{}, fmt.Errorf("разрешение scope: %w", err)
	}
	return model.FamilyScope(family.ID), nil
}

// resolveFolder возвращает папку по виртуальному пути.
// Для корня выполняет идемпотентное создание.
func (s *StorageService) resolveFolder(ctx context.Context, scope model.OwnerScope, path string) (*model.FolderNode, error) {
	path = vpath.Normalize(path)
	if !vpath.UnderRoot(path) {
		return nil, fmt.Errorf("%w: путь %q вне корня хранилища", ErrValidation, path)
	}
	if vpath.IsRoot(path) {
		root, err := s.folders.EnsureRoot(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("создание корня: %w", err)
		}
		return root, nil
	}

	folder, err := s.folders.GetByPath(ctx, scope, path)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: папка %s не найдена", ErrNotFound, path)
		}
		return nil, fmt.Errorf("поиск папки: %w", err)
	}
	return folder, nil
}

// ListFolder возвращает содержимое папки по виртуальному пути.
func (s *StorageService) ListFolder(ctx context.Context, scope model.OwnerScope, path string) (*FolderListing, error) {
	folder, err := s.resolveFolder(ctx, scope, path)
	if err != nil {
		return nil, err
	}

	subfolders, err := s.folders.ListChildren(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("список папок: %w", err)
	}
	files, err := s.files.ListByFolder(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("список файлов: %w", err)
	}

	return &FolderListing{Folder: folder, Folders: subfolders, Files: files}, nil
}

// CreateFolder создаёт папку внутри parentPath и физическую директорию
// для будущих загрузок.
func (s *StorageService) CreateFolder(ctx context.Context, scope model.OwnerScope, parentPath, name string) (*model.FolderNode, error) {
	if err := vpath.ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	parent, err := s.resolveFolder(ctx, scope, parentPath)
	if err != nil {
		return nil, err
	}

	folder := &model.FolderNode{
		Name:     name,
		ParentID: &parent.ID,
		Scope:    scope,
		Path:     vpath.Join(parent.Path, name),
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: папка %s уже существует", ErrConflict, folder.Path)
		}
		return nil, fmt.Errorf("создание папки: %w", err)
	}

	if err := s.blobs.EnsureDir(s.folderDir(folder)); err != nil {
		s.logger.Warn("Не удалось создать физическую директорию папки",
			slog.String("path", folder.Path), slog.String("error", err.Error()))
	}

	s.logger.Info("Папка создана",
		slog.String("scope", scope.String()),
		slog.String("path", folder.Path),
	)
	return folder, nil
}

// folderDir возвращает физическую директорию папки.
func (s *StorageService) folderDir(f *model.FolderNode) string {
	return blobstore.FolderDir(blobstore.ScopeDir(string(f.Scope.Kind), f.Scope.ID), f.Path)
}

// UploadFile сохраняет содержимое в blob-хранилище и регистрирует файл
// в папке folderPath. Дубликат имени в папке — конфликт.
func (s *StorageService) UploadFile(ctx context.Context, scope model.OwnerScope, folderPath, filename, contentType string, r io.Reader) (*model.FileRecord, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: имя файла не задано", ErrValidation)
	}

	folder, err := s.resolveFolder(ctx, scope, folderPath)
	if err != nil {
		return nil, err
	}

	if _, err := s.files.GetByName(ctx, folder.ID, filename); err == nil {
		return nil, fmt.Errorf("%w: файл %s уже существует в папке %s", ErrConflict, filename, folder.Path)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка имени файла: %w", err)
	}

	res, err := s.blobs.Put(s.folderDir(folder), filename, r)
	if err != nil {
		return nil, fmt.Errorf("сохранение содержимого: %w", err)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	file := &model.FileRecord{
		Name:           filename,
		ContentType:    contentType,
		Size:           res.Size,
		BlobPath:       res.BlobPath,
		Scope:          scope,
		ParentFolderID: folder.ID,
	}
	if err := s.files.Create(ctx, file); err != nil {
		// Blob без записи — мусор, убираем сразу
		_ = s.blobs.Remove(res.BlobPath)
		return nil, fmt.Errorf("регистрация файла: %w", err)
	}

	s.logger.Info("Файл загружен",
		slog.String("scope", scope.String()),
		slog.String("folder", folder.Path),
		slog.String("name", filename),
		slog.Int64("size", res.Size),
	)
	return file, nil
}

// DownloadFile открывает файл scope для чтения.
// Вызывающий код обязан закрыть ReadCloser.
func (s *StorageService) DownloadFile(ctx context.Context, scope model.OwnerScope, fileID string) (*model.FileRecord, io.ReadCloser, error) {
	file, err := s.getFile(ctx, scope, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.openBlob(file)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}

// DownloadSharedFile открывает расшаренный файл без проверки scope.
// Нерасшаренный файл недоступен (ErrForbidden).
func (s *StorageService) DownloadSharedFile(ctx context.Context, fileID string) (*model.FileRecord, io.ReadCloser, error) {
	file, err := s.files.GetAnyByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: файл не найден", ErrNotFound)
		}
		return nil, nil, fmt.Errorf("поиск файла: %w", err)
	}
	if !file.IsShared {
		return nil, nil, fmt.Errorf("%w: файл не расшарен", ErrForbidden)
	}
	rc, err := s.openBlob(file)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}

func (s *StorageService) openBlob(file *model.FileRecord) (io.ReadCloser, error) {
	rc, err := s.blobs.Open(file.BlobPath)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: содержимое файла отсутствует в хранилище", ErrNotFound)
		}
		return nil, fmt.Errorf("открытие содержимого: %w", err)
	}
	return rc, nil
}

func (s *StorageService) getFile(ctx context.Context, scope model.OwnerScope, fileID string) (*model.FileRecord, error) {
	file, err := s.files.GetByID(ctx, scope, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("поиск файла: %w", err)
	}
	return file, nil
}

// ToggleFileShared инвертирует флаг расшаривания файла и возвращает
// запись с новым значением.
func (s *StorageService) ToggleFileShared(ctx context.Context, scope model.OwnerScope, fileID string) (*model.FileRecord, error) {
	file, err := s.getFile(ctx, scope, fileID)
	if err != nil {
		return nil, err
	}
	shared, err := s.files.ToggleShared(ctx, file.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("переключение флага расшаривания: %w", err)
	}
	file.IsShared = shared

	s.logger.Info("Флаг расшаривания переключён",
		slog.String("file_id", file.ID), slog.Bool("shared", shared))
	return file, nil
}

// RenameFile меняет имя файла. К новому имени добавляется расширение
// исходного blob, сам blob переименовывается на месте: его путь и имя
// записи остаются согласованными.
func (s *StorageService) RenameFile(ctx context.Context, scope model.OwnerScope, fileID, newName string) (*model.FileRecord, error) {
	if err := vpath.ValidateName(newName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	file, err := s.getFile(ctx, scope, fileID)
	if err != nil {
		return nil, err
	}

	finalName := newName + path.Ext(file.BlobPath)
	if _, err := s.files.GetByName(ctx, file.ParentFolderID, finalName); err == nil {
		return nil, fmt.Errorf("%w: файл %s уже существует в папке", ErrConflict, finalName)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка имени файла: %w", err)
	}

	newBlobPath := path.Dir(file.BlobPath) + "/" + finalName
	if newBlobPath != file.BlobPath {
		// Физическое имя после переименования совпадает с отображаемым;
		// занятое место в директории — конфликт, не перезапись
		if s.blobs.Exists(newBlobPath) {
			return nil, fmt.Errorf("%w: содержимое с именем %s уже существует", ErrConflict, finalName)
		}
		if err := s.blobs.Rename(file.BlobPath, newBlobPath); err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, fmt.Errorf("%w: содержимое файла отсутствует в хранилище", ErrNotFound)
			}
			return nil, fmt.Errorf("переименование содержимого: %w", err)
		}
	}

	file.Name = finalName
	file.BlobPath = newBlobPath
	if err := s.files.Update(ctx, file); err != nil {
		return nil, fmt.Errorf("переименование файла: %w", err)
	}

	s.logger.Info("Файл переименован",
		slog.String("file_id", file.ID), slog.String("name", finalName))
	return file, nil
}

// MoveFile перемещает файл в папку destFolderPath. Физическая директория
// назначения обязана существовать заранее; если её нет — конфликт.
// Копирование, в отличие от перемещения, директории создаёт.
func (s *StorageService) MoveFile(ctx context.Context, scope model.OwnerScope, fileID, destFolderPath string) (*model.FileRecord, error) {
	file, err := s.getFile(ctx, scope, fileID)
	if err != nil {
		return nil, err
	}
	dest, err := s.resolveFolder(ctx, scope, destFolderPath)
	if err != nil {
		return nil, err
	}

	if _, err := s.files.GetByName(ctx, dest.ID, file.Name); err == nil {
		return nil, fmt.Errorf("%w: файл %s уже существует в папке %s", ErrConflict, file.Name, dest.Path)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка имени файла: %w", err)
	}

	newBlobPath := s.folderDir(dest) + "/" + vpath.Base(file.BlobPath)
	if err := s.blobs.Rename(file.BlobPath, newBlobPath); err != nil {
		if errors.Is(err, blobstore.ErrDestinationMissing) {
			return nil, fmt.Errorf("%w: директория назначения не существует", ErrConflict)
		}
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: содержимое файла отсутствует в хранилище", ErrNotFound)
		}
		return nil, fmt.Errorf("перемещение содержимого: %w", err)
	}

	file.ParentFolderID = dest.ID
	file.BlobPath = newBlobPath
	if err := s.files.Update(ctx, file); err != nil {
		return nil, fmt.Errorf("перемещение файла: %w", err)
	}

	s.logger.Info("Файл перемещён",
		slog.String("file_id", file.ID), slog.String("dest", dest.Path))
	return file, nil
}

// CopyFile копирует файл в папку destFolderPath. Исходный файл не
// изменяется; физические директории назначения создаются автоматически.
func (s *StorageService) CopyFile(ctx context.Context, scope model.OwnerScope, fileID, destFolderPath string) (*model.FileRecord, error) {
	file, err := s.getFile(ctx, scope, fileID)
	if err != nil {
		return nil, err
	}
	dest, err := s.resolveFolder(ctx, scope, destFolderPath)
	if err != nil {
		return nil, err
	}

	if _, err := s.files.GetByName(ctx, dest.ID, file.Name); err == nil {
		return nil, fmt.Errorf("%w: файл %s уже существует в папке %s", ErrConflict, file.Name, dest.Path)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка имени файла: %w", err)
	}

	return s.copyFileInto(ctx, file, dest)
}

// copyFileInto клонирует содержимое и запись файла в папку dest.
func (s *StorageService) copyFileInto(ctx context.Context, file *model.FileRecord, dest *model.FolderNode) (*model.FileRecord, error) {
	src, err := s.openBlob(file)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// Новое физическое имя защищает от коллизий virtual-имён в destination
	res, err := s.blobs.Put(s.folderDir(dest), file.Name, src)
	if err != nil {
		return nil, fmt.Errorf("копирование содержимого: %w", err)
	}

	clone := &model.FileRecord{
		Name:           file.Name,
		ContentType:    file.ContentType,
		Size:           res.Size,
		BlobPath:       res.BlobPath,
		Scope:          dest.Scope,
		ParentFolderID: dest.ID,
	}
	if err := s.files.Create(ctx, clone); err != nil {
		_ = s.blobs.Remove(res.BlobPath)
		return nil, fmt.Errorf("регистрация копии: %w", err)
	}
	return clone, nil
}

// DeleteFile удаляет запись файла и его содержимое.
// Отсутствующий blob не считается ошибкой.
func (s *StorageService) DeleteFile(ctx context.Context, scope model.OwnerScope, fileID string) error {
	file, err := s.getFile(ctx, scope, fileID)
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, file.ID); err != nil {
		return fmt.Errorf("удаление записи файла: %w", err)
	}
	if err := s.blobs.Remove(file.BlobPath); err != nil {
		s.logger.Warn("Не удалось удалить содержимое файла",
			slog.String("blob_path", file.BlobPath), slog.String("error", err.Error()))
	}

	s.logger.Info("Файл удалён", slog.String("file_id", file.ID))
	return nil
}

// folderByID возвращает папку scope по идентификатору.
func (s *StorageService) folderByID(ctx context.Context, scope model.OwnerScope, folderID string) (*model.FolderNode, error) {
	folder, err := s.folders.GetByID(ctx, scope, folderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: папка не найдена", ErrNotFound)
		}
		return nil, fmt.Errorf("получение папки: %w", err)
	}
	return folder, nil
}

// RenameFolder меняет имя папки и её путь, перенося физическую
// директорию вместе с содержимым. Blob-пути файлов поддерева
// перебазируются на новый префикс; кэшированные path-строки папок
// потомков при этом не пересчитываются — обход дерева идёт по parent_id.
func (s *StorageService) RenameFolder(ctx context.Context, scope model.OwnerScope, folderPath, newName string) (*model.FolderNode, error) {
	folder, err := s.resolveFolder(ctx, scope, folderPath)
	if err != nil {
		return nil, err
	}
	return s.renameFolder(ctx, scope, folder, newName)
}

// RenameFolderByID — вариант RenameFolder с адресацией по идентификатору.
func (s *StorageService) RenameFolderByID(ctx context.Context, scope model.OwnerScope, folderID, newName string) (*model.FolderNode, error) {
	folder, err := s.folderByID(ctx, scope, folderID)
	if err != nil {
		return nil, err
	}
	return s.renameFolder(ctx, scope, folder, newName)
}

func (s *StorageService) renameFolder(ctx context.Context, scope model.OwnerScope, folder *model.FolderNode, newName string) (*model.FolderNode, error) {
	if err := vpath.ValidateName(newName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if folder.IsRoot() {
		return nil, fmt.Errorf("%w: корневую папку нельзя переименовать", ErrValidation)
	}

	oldDir := s.folderDir(folder)
	folder.Name = newName
	folder.Path = vpath.Join(vpath.Parent(folder.Path), newName)
	newDir := s.folderDir(folder)

	if err := s.relocateFolderDir(oldDir, newDir); err != nil {
		return nil, err
	}
	if err := s.folders.Update(ctx, folder); err != nil {
		// Директория уже перенесена — возвращаем на место
		_ = s.blobs.Rename(newDir, oldDir)
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: папка %s уже существует", ErrConflict, folder.Path)
		}
		return nil, fmt.Errorf("переименование папки: %w", err)
	}
	if err := s.files.RebaseBlobPaths(ctx, oldDir, newDir); err != nil {
		return nil, fmt.Errorf("перенос blob-путей поддерева: %w", err)
	}

	s.logger.Info("Папка переименована",
		slog.String("scope", scope.String()), slog.String("path", folder.Path))
	return folder, nil
}

// relocateFolderDir переносит физическую директорию папки.
// Отсутствующая исходная директория не ошибка: папка могла не успеть
// материализоваться, тогда директория просто создаётся на новом месте.
// Отсутствие родителя назначения — конфликт, как и для файлов.
func (s *StorageService) relocateFolderDir(oldDir, newDir string) error {
	err := s.blobs.Rename(oldDir, newDir)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, blobstore.ErrNotFound):
		return s.blobs.EnsureDir(newDir)
	case errors.Is(err, blobstore.ErrDestinationMissing):
		return fmt.Errorf("%w: директория назначения не существует", ErrConflict)
	default:
		return fmt.Errorf("перенос директории папки: %w", err)
	}
}

// MoveFolder перемещает папку под destParentPath, перенося физическую
// директорию и перебазируя blob-пути файлов поддерева. Перемещение
// в собственное поддерево запрещено; директория папки назначения
// обязана существовать заранее, как и при перемещении файла.
func (s *StorageService) MoveFolder(ctx context.Context, scope model.OwnerScope, folderPath, destParentPath string) (*model.FolderNode, error) {
	folder, err := s.resolveFolder(ctx, scope, folderPath)
	if err != nil {
		return nil, err
	}
	return s.moveFolder(ctx, scope, folder, destParentPath)
}

// MoveFolderByID — вариант MoveFolder с адресацией по идентификатору.
func (s *StorageService) MoveFolderByID(ctx context.Context, scope model.OwnerScope, folderID, destParentPath string) (*model.FolderNode, error) {
	folder, err := s.folderByID(ctx, scope, folderID)
	if err != nil {
		return nil, err
	}
	return s.moveFolder(ctx, scope, folder, destParentPath)
}

func (s *StorageService) moveFolder(ctx context.Context, scope model.OwnerScope, folder *model.FolderNode, destParentPath string) (*model.FolderNode, error) {
	if folder.IsRoot() {
		return nil, fmt.Errorf("%w: корневую папку нельзя перемещать", ErrValidation)
	}

	dest, err := s.resolveFolder(ctx, scope, destParentPath)
	if err != nil {
		return nil, err
	}
	if dest.ID == folder.ID {
		return nil, fmt.Errorf("%w: папку нельзя переместить в саму себя", ErrValidation)
	}

	// Подъём по цепочке предков destination: если среди них сама папка,
	// перемещение создало бы цикл
	inside, err := s.isDescendant(ctx, scope, dest, folder.ID)
	if err != nil {
		return nil, err
	}
	if inside {
		return nil, fmt.Errorf("%w: папку нельзя переместить в собственное поддерево", ErrValidation)
	}

	oldDir := s.folderDir(folder)
	folder.ParentID = &dest.ID
	folder.Path = vpath.Join(dest.Path, folder.Name)
	newDir := s.folderDir(folder)

	if err := s.relocateFolderDir(oldDir, newDir); err != nil {
		return nil, err
	}
	if err := s.folders.Update(ctx, folder); err != nil {
		_ = s.blobs.Rename(newDir, oldDir)
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: папка %s уже существует", ErrConflict, folder.Path)
		}
		return nil, fmt.Errorf("перемещение папки: %w", err)
	}
	if err := s.files.RebaseBlobPaths(ctx, oldDir, newDir); err != nil {
		return nil, fmt.Errorf("перенос blob-путей поддерева: %w", err)
	}

	s.logger.Info("Папка перемещена",
		slog.String("scope", scope.String()), slog.String("path", folder.Path))
	return folder, nil
}

// isDescendant проверяет, находится ли node в поддереве папки ancestorID.
func (s *StorageService) isDescendant(ctx context.Context, scope model.OwnerScope, node *model.FolderNode, ancestorID string) (bool, error) {
	current := node
	for current.ParentID != nil {
		if *current.ParentID == ancestorID {
			return true, nil
		}
		parent, err := s.folders.GetByID(ctx, scope, *current.ParentID)
		if err != nil {
			return false, fmt.Errorf("обход предков: %w", err)
		}
		current = parent
	}
	return false, nil
}

// CopyFolder клонирует поддерево папки под destParentPath.
// Источник не изменяется; содержимое файлов копируется побайтово.
func (s *StorageService) CopyFolder(ctx context.Context, scope model.OwnerScope, folderPath, destParentPath string) (*model.FolderNode, error) {
	folder, err := s.resolveFolder(ctx, scope, folderPath)
	if err != nil {
		return nil, err
	}
	return s.copyFolder(ctx, scope, folder, destParentPath)
}

// CopyFolderByID — вариант CopyFolder с адресацией по идентификатору.
func (s *StorageService) CopyFolderByID(ctx context.Context, scope model.OwnerScope, folderID, destParentPath string) (*model.FolderNode, error) {
	folder, err := s.folderByID(ctx, scope, folderID)
	if err != nil {
		return nil, err
	}
	return s.copyFolder(ctx, scope, folder, destParentPath)
}

func (s *StorageService) copyFolder(ctx context.Context, scope model.OwnerScope, folder *model.FolderNode, destParentPath string) (*model.FolderNode, error) {
	if folder.IsRoot() {
		return nil, fmt.Errorf("%w: корневую папку нельзя копировать", ErrValidation)
	}

	dest, err := s.resolveFolder(ctx, scope, destParentPath)
	if err != nil {
		return nil, err
	}
	if dest.ID == folder.ID {
		return nil, fmt.Errorf("%w: папку нельзя скопировать в саму себя", ErrValidation)
	}
	inside, err := s.isDescendant(ctx, scope, dest, folder.ID)
	if err != nil {
		return nil, err
	}
	if inside {
		return nil, fmt.Errorf("%w: папку нельзя скопировать в собственное поддерево", ErrValidation)
	}

	clone, err := s.copySubtree(ctx, scope, folder, dest)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Папка скопирована",
		slog.String("scope", scope.String()),
		slog.String("src", folder.Path),
		slog.String("dest", clone.Path),
	)
	return clone, nil
}

// copySubtree рекурсивно клонирует папку src под папку destParent.
func (s *StorageService) copySubtree(ctx context.Context, scope model.OwnerScope, src, destParent *model.FolderNode) (*model.FolderNode, error) {
	clone := &model.FolderNode{
		Name:     src.Name,
		ParentID: &destParent.ID,
		Scope:    scope,
		Path:     vpath.Join(destParent.Path, src.Name),
	}
	if err := s.folders.Create(ctx, clone); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: папка %s уже существует", ErrConflict, clone.Path)
		}
		return nil, fmt.Errorf("создание копии папки: %w", err)
	}
	if err := s.blobs.EnsureDir(s.folderDir(clone)); err != nil {
		return nil, fmt.Errorf("создание директории копии: %w", err)
	}

	files, err := s.files.ListByFolder(ctx, src.ID)
	if err != nil {
		return nil, fmt.Errorf("список файлов источника: %w", err)
	}
	for _, f := range files {
		if _, err := s.copyFileInto(ctx, f, clone); err != nil {
			return nil, err
		}
	}

	children, err := s.folders.ListChildren(ctx, src.ID)
	if err != nil {
		return nil, fmt.Errorf("список папок источника: %w", err)
	}
	for _, child := range children {
		if _, err := s.copySubtree(ctx, scope, child, clone); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

// DeleteFolder удаляет поддерево папки: сначала файлы и потомки
// (children-first), затем сама папка. Записи БД удаляются в одной
// транзакции, blob — после коммита (потерянный blob безопаснее
// потерянной записи).
func (s *StorageService) DeleteFolder(ctx context.Context, scope model.OwnerScope, folderPath string) error {
	folder, err := s.resolveFolder(ctx, scope, folderPath)
	if err != nil {
		return err
	}
	return s.deleteFolder(ctx, scope, folder)
}

// DeleteFolderByID — вариант DeleteFolder с адресацией по идентификатору.
func (s *StorageService) DeleteFolderByID(ctx context.Context, scope model.OwnerScope, folderID string) error {
	folder, err := s.folderByID(ctx, scope, folderID)
	if err != nil {
		return err
	}
	return s.deleteFolder(ctx, scope, folder)
}

func (s *StorageService) deleteFolder(ctx context.Context, scope model.OwnerScope, folder *model.FolderNode) error {
	if folder.IsRoot() {
		return fmt.Errorf("%w: корневую папку нельзя удалить", ErrValidation)
	}

	// Собираем blob-пути до удаления записей
	blobPaths, err := s.collectBlobPaths(ctx, folder)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		return s.deleteSubtree(ctx, repository.NewFolderRepository(tx), repository.NewFileRepository(tx), folder)
	})
	if err != nil {
		return err
	}

	for _, bp := range blobPaths {
		if err := s.blobs.Remove(bp); err != nil {
			s.logger.Warn("Не удалось удалить содержимое файла",
				slog.String("blob_path", bp), slog.String("error", err.Error()))
		}
	}
	if err := s.blobs.RemoveTree(s.folderDir(folder)); err != nil {
		s.logger.Warn("Не удалось удалить директорию папки",
			slog.String("path", folder.Path), slog.String("error", err.Error()))
	}

	s.logger.Info("Папка удалена",
		slog.String("scope", scope.String()), slog.String("path", folder.Path))
	return nil
}

// collectBlobPaths собирает blob-пути всех файлов поддерева.
func (s *StorageService) collectBlobPaths(ctx context.Context, folder *model.FolderNode) ([]string, error) {
	var paths []string

	files, err := s.files.ListByFolder(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("список файлов: %w", err)
	}
	for _, f := range files {
		paths = append(paths, f.BlobPath)
	}

	children, err := s.folders.ListChildren(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("список папок: %w", err)
	}
	for _, child := range children {
		childPaths, err := s.collectBlobPaths(ctx, child)
		if err != nil {
			return nil, err
		}
		paths = append(paths, childPaths...)
	}
	return paths, nil
}

// deleteSubtree удаляет записи поддерева children-first.
func (s *StorageService) deleteSubtree(ctx context.Context, folders repository.FolderRepository, files repository.FileRepository, folder *model.FolderNode) error {
	children, err := folders.ListChildren(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("список папок: %w", err)
	}
	for _, child := range children {
		if err := s.deleteSubtree(ctx, folders, files, child); err != nil {
			return err
		}
	}

	fileList, err := files.ListByFolder(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("список файлов: %w", err)
	}
	for _, f := range fileList {
		if err := files.Delete(ctx, f.ID); err != nil {
			return fmt.Errorf("удаление записи файла: %w", err)
		}
	}

	if err := folders.Delete(ctx, folder.ID); err != nil {
		return fmt.Errorf("удаление папки: %w", err)
	}
	return nil
}

// SaveMedicalBlob сохраняет файл медицинской записи в отдельную область
// хранилища medical-records/<userID>, вне виртуальной файловой системы.
func (s *StorageService) SaveMedicalBlob(userID, filename, contentType string, r io.Reader) (*model.MedicalFile, error) {
	res, err := s.blobs.Put("medical-records/"+userID, filename, r)
	if err != nil {
		return nil, fmt.Errorf("сохранение медицинского файла: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &model.MedicalFile{
		BlobPath:    res.BlobPath,
		Filename:    filename,
		ContentType: contentType,
	}, nil
}

// OpenMedicalBlob открывает файл медицинской записи.
func (s *StorageService) OpenMedicalBlob(blobPath string) (*os.File, error) {
	f, err := s.blobs.Open(blobPath)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл отсутствует в хранилище", ErrNotFound)
		}
		return nil, fmt.Errorf("открытие медицинского файла: %w", err)
	}
	return f, nil
}

// RemoveMedicalBlob удаляет файл медицинской записи (идемпотентно).
func (s *StorageService) RemoveMedicalBlob(blobPath string) error {
	return s.blobs.Remove(blobPath)
}
