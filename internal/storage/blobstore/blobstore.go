// Пакет blobstore — операции с физическими файлами на диске.
// Адресация — относительные пути от корневой директории данных.
// Метаданные (папки, записи файлов) живут отдельно, в БД; blobstore
// отвечает только за байты.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ошибки blob-хранилища.
var (
	// ErrNotFound — blob по указанному пути отсутствует.
	ErrNotFound = errors.New("blob не найден")
	// ErrDestinationMissing — директория назначения не существует.
	// Rename намеренно не создаёт директории назначения: перемещение
	// требует заранее существующего места, в отличие от копирования.
	ErrDestinationMissing = errors.New("директория назначения не существует")
)

// BlobStore — файловое хранилище на локальном диске.
type BlobStore struct {
	// dataDir — корневая директория хранения (LS_DATA_DIR)
	dataDir string
}

// SaveResult — результат сохранения blob.
type SaveResult struct {
	// BlobPath — относительный путь blob от корня данных
	BlobPath string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт BlobStore, создавая корневую директорию при необходимости.
func New(dataDir string) (*BlobStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}
	return &BlobStore{dataDir: dataDir}, nil
}

// DataDir возвращает корневую директорию данных.
func (bs *BlobStore) DataDir() string {
	return bs.dataDir
}

// FullPath возвращает абсолютный путь для относительного пути blob.
func (bs *BlobStore) FullPath(rel string) string {
	return filepath.Join(bs.dataDir, filepath.FromSlash(rel))
}

// ScopeDir возвращает относительную директорию scope:
// private/<userID> или family/<familyID>.
func ScopeDir(kind, ownerID string) string {
	return kind + "/" + ownerID
}

// FolderDir возвращает относительную директорию, соответствующую
// виртуальному пути папки внутри scope (например,
// private/<userID>/Home/Docs для пути "/Home/Docs").
func FolderDir(scopeDir, virtualPath string) string {
	return scopeDir + virtualPath
}

// Put записывает содержимое reader в директорию dir (относительную),
// создавая её при необходимости. Имя blob генерируется уникальным:
// file-<timestamp>-<uuid><ext>. Возвращает относительный путь и размер.
func (bs *BlobStore) Put(dir, originalFilename string, r io.Reader) (*SaveResult, error) {
	absDir := bs.FullPath(dir)
	if err := os.MkdirAll(absDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	storageName := generateStorageName(originalFilename)
	relPath := dir + "/" + storageName
	absPath := filepath.Join(absDir, storageName)

	f, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(absPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(absPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	return &SaveResult{BlobPath: relPath, Size: size}, nil
}

// Open открывает blob для чтения. Вызывающий код обязан закрыть файл.
func (bs *BlobStore) Open(blobPath string) (*os.File, error) {
	f, err := os.Open(bs.FullPath(blobPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, blobPath)
		}
		return nil, fmt.Errorf("ошибка открытия blob %s: %w", blobPath, err)
	}
	return f, nil
}

// Exists проверяет существование blob.
func (bs *BlobStore) Exists(blobPath string) bool {
	_, err := os.Stat(bs.FullPath(blobPath))
	return err == nil
}

// Remove удаляет blob. Отсутствующий blob — не ошибка (идемпотентно).
func (bs *BlobStore) Remove(blobPath string) error {
	err := os.Remove(bs.FullPath(blobPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления blob %s: %w", blobPath, err)
	}
	return nil
}

// Rename перемещает blob или директорию на новый относительный путь.
// Родительская директория назначения обязана существовать заранее —
// возвращает ErrDestinationMissing, если это не так. Асимметрия с
// CopyFile/CopyTree (которые создают директории) сохранена сознательно.
func (bs *BlobStore) Rename(oldPath, newPath string) error {
	absOld := bs.FullPath(oldPath)
	absNew := bs.FullPath(newPath)

	if _, err := os.Stat(filepath.Dir(absNew)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDestinationMissing, newPath)
		}
		return fmt.Errorf("ошибка проверки директории назначения: %w", err)
	}

	if err := os.Rename(absOld, absNew); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, oldPath)
		}
		return fmt.Errorf("ошибка перемещения %s -> %s: %w", oldPath, newPath, err)
	}
	return nil
}

// CopyFile копирует один blob, создавая директорию назначения
// при необходимости.
func (bs *BlobStore) CopyFile(srcPath, dstPath string) error {
	src, err := os.Open(bs.FullPath(srcPath))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, srcPath)
		}
		return fmt.Errorf("ошибка открытия источника %s: %w", srcPath, err)
	}
	defer src.Close()

	absDst := bs.FullPath(dstPath)
	if err := os.MkdirAll(filepath.Dir(absDst), 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию назначения: %w", err)
	}

	dst, err := os.Create(absDst)
	if err != nil {
		return fmt.Errorf("ошибка создания копии %s: %w", dstPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(absDst)
		return fmt.Errorf("ошибка копирования данных: %w", err)
	}
	return dst.Close()
}

// CopyTree рекурсивно копирует дерево директорий, создавая
// недостающие директории назначения.
func (bs *BlobStore) CopyTree(srcDir, dstDir string) error {
	absSrc := bs.FullPath(srcDir)
	absDst := bs.FullPath(dstDir)

	if err := os.MkdirAll(absDst, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dstDir, err)
	}

	entries, err := os.ReadDir(absSrc)
	if err != nil {
		if os.IsNotExist(err) {
			// Источник без физической директории — пустая папка, копировать нечего
			return nil
		}
		return fmt.Errorf("ошибка чтения директории %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		srcChild := srcDir + "/" + entry.Name()
		dstChild := dstDir + "/" + entry.Name()
		if entry.IsDir() {
			if err := bs.CopyTree(srcChild, dstChild); err != nil {
				return err
			}
		} else {
			if err := bs.CopyFile(srcChild, dstChild); err != nil {
				return err
			}
		}
	}
	return nil
}

// EnsureDir создаёт директорию (вместе с родителями).
func (bs *BlobStore) EnsureDir(dir string) error {
	if err := os.MkdirAll(bs.FullPath(dir), 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}
	return nil
}

// RemoveTree удаляет дерево директорий. Отсутствие — не ошибка.
func (bs *BlobStore) RemoveTree(dir string) error {
	if err := os.RemoveAll(bs.FullPath(dir)); err != nil {
		return fmt.Errorf("ошибка удаления директории %s: %w", dir, err)
	}
	return nil
}

// generateStorageName генерирует уникальное имя blob:
// file-<timestamp>-<короткий uuid><расширение оригинала>.
// Timestamp повторяет схему оригинала, uuid защищает от коллизий
// в пределах одной миллисекунды.
func generateStorageName(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	ext = sanitizeExt(ext)
	uid := uuid.New().String()[:8]
	return fmt.Sprintf("file-%d-%s%s", time.Now().UnixMilli(), uid, ext)
}

// sanitizeExt оставляет в расширении только безопасные символы.
func sanitizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() <= 1 {
		return ""
	}
	return b.String()
}
