// storage.go — обработчики виртуальной файловой системы.
// Все операции работают внутри scope (private или family), который
// определяется сегментом {domain} маршрута и членством пользователя
// в семье.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/SonetShaji6/LifeSync/internal/api/errors"
	"github.com/SonetShaji6/LifeSync/internal/api/middleware"
	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/service"
)

// multipartMemoryLimit — буфер разбора multipart form в памяти,
// остальное уходит во временные файлы.
const multipartMemoryLimit = 32 << 20

// StorageHandler — обработчик /storage/*.
type StorageHandler struct {
	storage     *service.StorageService
	maxFileSize int64
	logger      *slog.Logger
}

// NewStorageHandler создаёт обработчик файловой системы.
// maxFileSize — лимит размера загружаемого запроса в байтах.
func NewStorageHandler(storage *service.StorageService, maxFileSize int64, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{
		storage:     storage,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "storage_handler")),
	}
}

// itemResponse — элемент листинга папки.
type itemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
	Path        string `json:"path"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	IsShared    bool   `json:"isShared,omitempty"`
}

func folderItem(f *model.FolderNode) itemResponse {
	return itemResponse{ID: f.ID, Name: f.Name, IsDirectory: true, Path: f.Path}
}

func fileItem(f *model.FileRecord) itemResponse {
	return itemResponse{
		ID:          f.ID,
		Name:        f.Name,
		IsDirectory: false,
		Path:        f.BlobPath,
		ContentType: f.ContentType,
		Size:        f.Size,
		IsShared:    f.IsShared,
	}
}

// resolveScope определяет scope операции из сегмента {domain} и
// необязательного familyId (сегмент маршрута или query-параметр).
// Для family-домена пользователь должен состоять в указанной семье.
// При ошибке ответ уже записан, второй результат false.
func (h *StorageHandler) resolveScope(w http.ResponseWriter, r *http.Request) (model.OwnerScope, bool) {
	userID := middleware.UserIDFrom(r.Context())

	kind, err := model.ParseScopeKind(chi.URLParam(r, "domain"))
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return model.OwnerScope{}, false
	}

	scope, err := h.storage.ResolveScope(r.Context(), userID, kind)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return model.OwnerScope{}, false
	}

	familyID := chi.URLParam(r, "familyId")
	if familyID == "" {
		familyID = r.URL.Query().Get("familyId")
	}
	if kind == model.ScopeFamily && familyID != "" && familyID != scope.ID {
		apierrors.Forbidden(w, "пользователь не состоит в этой семье")
		return model.OwnerScope{}, false
	}
	return scope, true
}

// Upload обрабатывает POST /storage/{domain}/upload[/{familyId}].
// Multipart form: file (обязательно), path — целевая папка.
func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.FileTooLarge(w, fmt.Sprintf("размер запроса превышает лимит %d байт", h.maxFileSize))
			return
		}
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка разбора multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	folderPath := r.FormValue("path")

	record, err := h.storage.UploadFile(r.Context(), scope, folderPath, header.Filename, contentType, file)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, fileItem(record))
}

// Download обрабатывает GET /storage/{domain}/download/{fileId}.
// Содержимое отдаётся потоково, без буферизации файла в памяти.
func (h *StorageHandler) Download(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	record, rc, err := h.storage.DownloadFile(r.Context(), scope, chi.URLParam(r, "fileId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	defer rc.Close()

	h.serveBlob(w, record, rc)
}

// DownloadShared обрабатывает GET /storage/shared/{fileId}.
// Маршрут публичный: доступ только к файлам с isShared=true.
func (h *StorageHandler) DownloadShared(w http.ResponseWriter, r *http.Request) {
	record, rc, err := h.storage.DownloadSharedFile(r.Context(), chi.URLParam(r, "fileId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	defer rc.Close()

	h.serveBlob(w, record, rc)
}

func (h *StorageHandler) serveBlob(w http.ResponseWriter, record *model.FileRecord, rc io.Reader) {
	w.Header().Set("Content-Type", record.ContentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": record.Name}))
	if record.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", record.Size))
	}
	if _, err := io.Copy(w, rc); err != nil {
		// Заголовки уже отправлены, остаётся только залогировать
		h.logger.Warn("Передача файла прервана",
			slog.String("file_id", record.ID), slog.String("error", err.Error()))
	}
}

// List обрабатывает GET /storage/{domain}/list?path=&familyId=.
func (h *StorageHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	listing, err := h.storage.ListFolder(r.Context(), scope, r.URL.Query().Get("path"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	items := make([]itemResponse, 0, len(listing.Folders)+len(listing.Files))
	for _, f := range listing.Folders {
		items = append(items, folderItem(f))
	}
	for _, f := range listing.Files {
		items = append(items, fileItem(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateFolder обрабатывает POST /storage/{domain}/create-folder[/{familyId}].
// Тело: {name, path} — имя новой папки и путь родителя.
func (h *StorageHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	folder, err := h.storage.CreateFolder(r.Context(), scope, req.Path, req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, folderItem(folder))
}

// DeleteFolder обрабатывает DELETE /storage/{domain}/delete-folder[/{familyId}]/{folderId}.
// Удаление рекурсивное: поддерево метаданных и содержимое файлов.
func (h *StorageHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	if err := h.storage.DeleteFolderByID(r.Context(), scope, chi.URLParam(r, "folderId")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "папка удалена"})
}

// DeleteFile обрабатывает DELETE /storage/{domain}/delete-file/{fileId}.
func (h *StorageHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	if err := h.storage.DeleteFile(r.Context(), scope, chi.URLParam(r, "fileId")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "файл удалён"})
}

// MoveFile обрабатывает PATCH /storage/{domain}/move-file/{fileId}.
// Тело: {newPath} — путь папки назначения. Физическая директория
// назначения должна существовать.
func (h *StorageHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	var req struct {
		NewPath string `json:"newPath"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.storage.MoveFile(r.Context(), scope, chi.URLParam(r, "fileId"), req.NewPath)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fileItem(record))
}

// CopyFile обрабатывает POST /storage/{domain}/copy-file/{fileId}.
// Тело: {newPath}. Директория назначения создаётся при необходимости.
func (h *StorageHandler) CopyFile(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	var req struct {
		NewPath string `json:"newPath"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.storage.CopyFile(r.Context(), scope, chi.URLParam(r, "fileId"), req.NewPath)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, fileItem(record))
}

// RenameFile обрабатывает PUT /storage/{domain}/rename-file/{fileId}.
// Тело: {newName}.
func (h *StorageHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	var req struct {
		NewName string `json:"newName"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.storage.RenameFile(r.Context(), scope, chi.URLParam(r, "fileId"), req.NewName)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fileItem(record))
}

// MoveFolder обрабатывает PATCH /storage/{domain}/move-folder/{folderId}.
// Тело: {newPath} — путь нового родителя.
func (h *StorageHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	var req struct {
		NewPath string `json:"newPath"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	folder, err := h.storage.MoveFolderByID(r.Context(), scope, chi.URLParam(r, "folderId"), req.NewPath)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, folderItem(folder))
}

// CopyFolder обрабатывает POST /storage/{domain}/copy-folder/{folderId}.
// Тело: {newPath}. Источник не изменяется.
func (h *StorageHandler) CopyFolder(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	var req struct {
		NewPath string `json:"newPath"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	folder, err := h.storage.CopyFolderByID(r.Context(), scope, chi.URLParam(r, "folderId"), req.NewPath)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, folderItem(folder))
}

// RenameFolder обрабатывает PUT /storage/{domain}/rename-folder/{folderId}.
// Тело: {newName}. Пути потомков не пересчитываются.
func (h *StorageHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	var req struct {
		NewName string `json:"newName"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	folder, err := h.storage.RenameFolderByID(r.Context(), scope, chi.URLParam(r, "folderId"), req.NewName)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, folderItem(folder))
}

// ShareFile обрабатывает PATCH /storage/{domain}/share-file/{fileId}.
// Инвертирует флаг расшаривания, тело запроса не требуется.
func (h *StorageHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	record, err := h.storage.ToggleFileShared(r.Context(), scope, chi.URLParam(r, "fileId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fileItem(record))
}
