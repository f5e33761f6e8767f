package blobstore

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *BlobStore {
	t.Helper()
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("не удалось создать хранилище: %v", err)
	}
	return bs
}

func TestPutAndOpen(t *testing.T) {
	bs := newTestStore(t)

	content := "тестовое содержимое файла"
	res, err := bs.Put("private/user-1/Home", "report.pdf", strings.NewReader(content))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if res.Size != int64(len(content)) {
		t.Errorf("неверный размер: ожидалось %d, получено %d", len(content), res.Size)
	}
	if !strings.HasPrefix(res.BlobPath, "private/user-1/Home/file-") {
		t.Errorf("неверный путь blob: %s", res.BlobPath)
	}
	if !strings.HasSuffix(res.BlobPath, ".pdf") {
		t.Errorf("расширение оригинала не сохранено: %s", res.BlobPath)
	}

	f, err := bs.Open(res.BlobPath)
	if err != nil {
		t.Fatalf("ошибка открытия: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if string(data) != content {
		t.Errorf("содержимое не совпадает: %q", string(data))
	}
}

func TestPutGeneratesUniqueNames(t *testing.T) {
	bs := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		res, err := bs.Put("private/u/Home", "same.txt", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("ошибка сохранения: %v", err)
		}
		if seen[res.BlobPath] {
			t.Fatalf("повтор имени blob: %s", res.BlobPath)
		}
		seen[res.BlobPath] = true
	}
}

func TestOpenNotFound(t *testing.T) {
	bs := newTestStore(t)

	_, err := bs.Open("private/u/Home/нет-такого")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	bs := newTestStore(t)

	res, err := bs.Put("private/u/Home", "a.txt", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if err := bs.Remove(res.BlobPath); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if bs.Exists(res.BlobPath) {
		t.Error("blob должен быть удалён")
	}

	// Повторное удаление — не ошибка
	if err := bs.Remove(res.BlobPath); err != nil {
		t.Errorf("повторное удаление должно быть идемпотентным: %v", err)
	}
}

func TestRenameRequiresDestination(t *testing.T) {
	bs := newTestStore(t)

	res, err := bs.Put("private/u/Home", "a.txt", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	// Директория назначения не существует — перемещение запрещено
	err = bs.Rename(res.BlobPath, "private/u/Home/Docs/a.txt")
	if !errors.Is(err, ErrDestinationMissing) {
		t.Errorf("ожидалась ошибка ErrDestinationMissing, получено: %v", err)
	}

	// После создания директории перемещение проходит
	if err := bs.EnsureDir("private/u/Home/Docs"); err != nil {
		t.Fatalf("ошибка создания директории: %v", err)
	}
	if err := bs.Rename(res.BlobPath, "private/u/Home/Docs/a.txt"); err != nil {
		t.Fatalf("ошибка перемещения: %v", err)
	}
	if bs.Exists(res.BlobPath) {
		t.Error("источник должен исчезнуть после перемещения")
	}
	if !bs.Exists("private/u/Home/Docs/a.txt") {
		t.Error("blob не найден по новому пути")
	}
}

func TestRenameMissingSource(t *testing.T) {
	bs := newTestStore(t)

	if err := bs.EnsureDir("private/u/Home"); err != nil {
		t.Fatalf("ошибка создания директории: %v", err)
	}
	err := bs.Rename("private/u/Home/нет", "private/u/Home/куда")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}

func TestCopyFileCreatesDestination(t *testing.T) {
	bs := newTestStore(t)

	res, err := bs.Put("private/u/Home", "a.txt", strings.NewReader("оригинал"))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	// Копирование, в отличие от перемещения, создаёт директории само
	dst := "private/u/Home/Новая/Глубокая/a.txt"
	if err := bs.CopyFile(res.BlobPath, dst); err != nil {
		t.Fatalf("ошибка копирования: %v", err)
	}

	if !bs.Exists(res.BlobPath) {
		t.Error("источник не должен изменяться при копировании")
	}

	f, err := bs.Open(dst)
	if err != nil {
		t.Fatalf("ошибка открытия копии: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "оригинал" {
		t.Errorf("содержимое копии не совпадает: %q", string(data))
	}
}

func TestCopyTree(t *testing.T) {
	bs := newTestStore(t)

	if _, err := bs.Put("private/u/Home/Src", "a.txt", strings.NewReader("a")); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}
	if _, err := bs.Put("private/u/Home/Src/Sub", "b.txt", strings.NewReader("b")); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if err := bs.CopyTree("private/u/Home/Src", "private/u/Home/Dst"); err != nil {
		t.Fatalf("ошибка копирования дерева: %v", err)
	}

	srcEntries, err := os.ReadDir(bs.FullPath("private/u/Home/Src"))
	if err != nil {
		t.Fatalf("источник должен остаться: %v", err)
	}
	dstEntries, err := os.ReadDir(bs.FullPath("private/u/Home/Dst"))
	if err != nil {
		t.Fatalf("назначение не создано: %v", err)
	}
	if len(srcEntries) != len(dstEntries) {
		t.Errorf("деревья различаются: %d против %d записей", len(srcEntries), len(dstEntries))
	}

	subEntries, err := os.ReadDir(bs.FullPath("private/u/Home/Dst/Sub"))
	if err != nil {
		t.Fatalf("вложенная директория не скопирована: %v", err)
	}
	if len(subEntries) != 1 {
		t.Errorf("во вложенной директории ожидался 1 файл, получено %d", len(subEntries))
	}
}

func TestCopyTreeMissingSource(t *testing.T) {
	bs := newTestStore(t)

	// Папка без физической директории считается пустой
	if err := bs.CopyTree("private/u/Home/Пусто", "private/u/Home/Копия"); err != nil {
		t.Fatalf("копирование пустой папки не должно падать: %v", err)
	}
	if !bs.Exists("private/u/Home/Копия") {
		t.Error("директория назначения должна быть создана")
	}
}

func TestRemoveTree(t *testing.T) {
	bs := newTestStore(t)

	if _, err := bs.Put("private/u/Home/Dir/Sub", "a.txt", strings.NewReader("a")); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}
	if err := bs.RemoveTree("private/u/Home/Dir"); err != nil {
		t.Fatalf("ошибка удаления дерева: %v", err)
	}
	if bs.Exists("private/u/Home/Dir") {
		t.Error("дерево должно быть удалено")
	}
	// Повторное удаление — не ошибка
	if err := bs.RemoveTree("private/u/Home/Dir"); err != nil {
		t.Errorf("повторное удаление дерева должно быть идемпотентным: %v", err)
	}
}

func TestSanitizeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{".pdf", ".pdf"},
		{".PDF", ".PDF"},
		{"", ""},
		{".", ""},
		{".p df", ".pdf"},
		{".tar.gz", ".tar.gz"},
	}
	for _, tt := range tests {
		if got := sanitizeExt(tt.in); got != tt.want {
			t.Errorf("sanitizeExt(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}
