package model

import "time"

// FolderNode — узел дерева папок виртуальной файловой системы.
// Хранится в таблице folders. Корень scope — папка "Home" с
// ParentID = nil и путём "/Home".
type FolderNode struct {
	// ID — UUID папки
	ID string
	// Name — имя папки (непустое)
	Name string
	// ParentID — ссылка на родительскую папку; nil только у корня scope
	ParentID *string
	// Scope — владелец папки (private/user или family)
	Scope OwnerScope
	// Path — нормализованный абсолютный виртуальный путь,
	// уникальный внутри scope. Кэш для разрешения путей; при
	// переименовании предков путь потомков не пересчитывается,
	// обход дерева идёт по ParentID.
	Path string
	// CreatedAt — время создания
	CreatedAt time.Time
}

// IsRoot возвращает true для корневой папки scope.
func (f *FolderNode) IsRoot() bool {
	return f.ParentID == nil
}
