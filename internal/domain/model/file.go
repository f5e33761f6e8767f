package model

import "time"

// FileRecord — метаданные файла виртуальной файловой системы.
// Хранится в таблице files. Содержимое лежит в blob-хранилище
// по пути BlobPath; ровно одна запись ссылается на один blob.
type FileRecord struct {
	// ID — UUID файла
	ID string
	// Name — отображаемое имя файла
	Name string
	// ContentType — MIME-тип
	ContentType string
	// Size — размер в байтах
	Size int64
	// BlobPath — расположение содержимого в blob-хранилище
	// (относительный путь от корня данных)
	BlobPath string
	// Scope — владелец файла; всегда совпадает со scope родительской папки
	Scope OwnerScope
	// ParentFolderID — папка, в которой лежит файл (никогда не пустая)
	ParentFolderID string
	// IsShared — флаг расшаривания файла
	IsShared bool
	// UploadDate — время загрузки
	UploadDate time.Time
}
