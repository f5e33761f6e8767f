// Пакет vpath — нормализация виртуальных путей файлового хранилища.
// Виртуальные пути всегда абсолютные, разделитель "/", корень scope — "/Home".
// Пути "/", "" и "/Home" — синонимы корня.
package vpath

import (
	"fmt"
	gopath "path"
	"strings"
)

// Root — путь корневой папки каждого scope.
const Root = "/Home"

// Normalize приводит виртуальный путь к каноническому виду:
// убирает хвостовые слэши и повторные разделители, схлопывает
// "." и "..", пустую строку и "/" трактует как корень "/Home".
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return Root
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	cleaned := gopath.Clean(p)
	if cleaned == "/" {
		return Root
	}
	return cleaned
}

// IsRoot возвращает true, если путь обозначает корень scope
// ("/", "" или "/Home" в любом написании с хвостовым слэшем).
func IsRoot(p string) bool {
	return Normalize(p) == Root
}

// Join присоединяет имя к родительскому пути.
func Join(parent, name string) string {
	return gopath.Join(Normalize(parent), name)
}

// Parent возвращает путь родительской папки.
// Для корня возвращает корень.
func Parent(p string) string {
	n := Normalize(p)
	if n == Root {
		return Root
	}
	return gopath.Dir(n)
}

// Base возвращает последний элемент пути (имя файла или папки).
func Base(p string) string {
	return gopath.Base(Normalize(p))
}

// ValidateName проверяет имя папки или файла: непустое,
// без разделителей пути и ссылок на родителя.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("имя не может быть пустым")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("имя не может содержать разделители пути: %q", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("недопустимое имя: %q", name)
	}
	return nil
}

// UnderRoot проверяет, что путь лежит под "/Home".
// Для private-хранилища все пути обязаны находиться под корнем.
func UnderRoot(p string) bool {
	n := Normalize(p)
	return n == Root || strings.HasPrefix(n, Root+"/")
}
