// medical.go — обработчики медицинских записей.
// Создание и обновление принимают multipart form с необязательным
// прикреплённым файлом.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/SonetShaji6/LifeSync/internal/api/errors"
	"github.com/SonetShaji6/LifeSync/internal/api/middleware"
	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/service"
)

// MedicalHandler — обработчик /api/medical-records.
type MedicalHandler struct {
	medical     *service.MedicalService
	maxFileSize int64
	logger      *slog.Logger
}

// NewMedicalHandler создаёт обработчик медицинских записей.
func NewMedicalHandler(medical *service.MedicalService, maxFileSize int64, logger *slog.Logger) *MedicalHandler {
	return &MedicalHandler{
		medical:     medical,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "medical_handler")),
	}
}

// medicalFileResponse — прикреплённый файл в ответах API.
type medicalFileResponse struct {
	FilePath    string `json:"filePath"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// medicalResponse — медицинская запись в ответах API.
type medicalResponse struct {
	ID          string               `json:"_id"`
	UserID      string               `json:"userId"`
	RecordType  string               `json:"recordType"`
	Date        string               `json:"date"`
	Title       string               `json:"title"`
	Institution string               `json:"institution,omitempty"`
	Doctor      string               `json:"doctor,omitempty"`
	Details     json.RawMessage      `json:"details,omitempty"`
	File        *medicalFileResponse `json:"file,omitempty"`
	IsShared    bool                 `json:"isShared"`
	CreatedAt   string               `json:"createdAt"`
}

func newMedicalResponse(rec *model.MedicalRecord) medicalResponse {
	resp := medicalResponse{
		ID:          rec.ID,
		UserID:      rec.UserID,
		RecordType:  rec.RecordType,
		Date:        formatDate(rec.Date),
		Title:       rec.Title,
		Institution: strOrEmpty(rec.Institution),
		Doctor:      strOrEmpty(rec.Doctor),
		Details:     rec.Details,
		IsShared:    rec.IsShared,
		CreatedAt:   formatTime(rec.CreatedAt),
	}
	if rec.File != nil {
		resp.File = &medicalFileResponse{
			FilePath:    rec.File.BlobPath,
			FileName:    rec.File.Filename,
			ContentType: rec.File.ContentType,
		}
	}
	return resp
}

// parseRecordForm разбирает multipart form в MedicalRecordInput и
// необязательный файл. При ошибке ответ уже записан.
func (h *MedicalHandler) parseRecordForm(w http.ResponseWriter, r *http.Request) (*service.MedicalRecordInput, *service.MedicalUpload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.FileTooLarge(w, fmt.Sprintf("размер запроса превышает лимит %d байт", h.maxFileSize))
			return nil, nil, nil, false
		}
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка разбора multipart: %s", err.Error()))
		return nil, nil, nil, false
	}

	in := &service.MedicalRecordInput{
		RecordType: r.FormValue("recordType"),
		Title:      r.FormValue("title"),
	}

	if raw := r.FormValue("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return nil, nil, nil, false
		}
		in.Date = date
	}
	if v := r.FormValue("institution"); v != "" {
		in.Institution = &v
	}
	if v := r.FormValue("doctor"); v != "" {
		in.Doctor = &v
	}
	if v := r.FormValue("details"); v != "" {
		// Детали принимаются и как JSON, и как произвольная строка
		if json.Valid([]byte(v)) {
			in.Details = json.RawMessage(v)
		} else {
			raw, _ := json.Marshal(v)
			in.Details = raw
		}
	}
	if v := r.FormValue("isShared"); v != "" {
		shared, err := strconv.ParseBool(v)
		if err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("некорректное значение isShared: %q", v))
			return nil, nil, nil, false
		}
		in.IsShared = shared
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil, func() {}, true
		}
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка чтения файла: %s", err.Error()))
		return nil, nil, nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upload := &service.MedicalUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Reader:      file,
	}
	return in, upload, func() { file.Close() }, true
}

// Create обрабатывает POST /api/medical-records.
func (h *MedicalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	in, upload, cleanup, ok := h.parseRecordForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	rec, err := h.medical.Create(r.Context(), userID, in, upload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMedicalResponse(rec))
}

// recordFilter — фильтры списка записей из query-параметров.
type recordFilter struct {
	recordType string
	startDate  time.Time
	endDate    time.Time
}

func (f *recordFilter) matches(rec *model.MedicalRecord) bool {
	if f.recordType != "" && rec.RecordType != f.recordType {
		return false
	}
	if !f.startDate.IsZero() && rec.Date.Before(f.startDate) {
		return false
	}
	if !f.endDate.IsZero() && rec.Date.After(f.endDate) {
		return false
	}
	return true
}

// List обрабатывает GET /api/medical-records.
// Без familyId возвращаются записи пользователя; с familyId —
// расшаренные записи остальных членов его семьи. Фильтры:
// recordType, startDate, endDate.
func (h *MedicalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	q := r.URL.Query()

	filter := recordFilter{recordType: q.Get("recordType")}
	if raw := q.Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		filter.startDate = t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		filter.endDate = t
	}

	var (
		records []*model.MedicalRecord
		err     error
	)
	if q.Get("familyId") != "" {
		records, err = h.medical.ListFamilyShared(r.Context(), userID)
	} else {
		records, err = h.medical.List(r.Context(), userID)
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]medicalResponse, 0, len(records))
	for _, rec := range records {
		if filter.matches(rec) {
			resp = append(resp, newMedicalResponse(rec))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get обрабатывает GET /api/medical-records/{recordId}.
func (h *MedicalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	rec, err := h.medical.Get(r.Context(), userID, chi.URLParam(r, "recordId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newMedicalResponse(rec))
}

// Update обрабатывает PUT /api/medical-records/{recordId}.
// Новый файл замещает прежний.
func (h *MedicalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	in, upload, cleanup, ok := h.parseRecordForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	rec, err := h.medical.Update(r.Context(), userID, chi.URLParam(r, "recordId"), in, upload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newMedicalResponse(rec))
}

// Delete обрабатывает DELETE /api/medical-records/{recordId}.
func (h *MedicalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	if err := h.medical.Delete(r.Context(), userID, chi.URLParam(r, "recordId")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "запись удалена"})
}

// Share обрабатывает PATCH /api/medical-records/{recordId}/share.
// Инвертирует флаг расшаривания, тело запроса не требуется.
func (h *MedicalHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	rec, err := h.medical.ToggleShared(r.Context(), userID, chi.URLParam(r, "recordId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newMedicalResponse(rec))
}

// FileDetails обрабатывает GET /api/medical-records/{recordId}/download.
// Возвращает метаданные прикреплённого файла; содержимое отдаёт
// маршрут /file.
func (h *MedicalHandler) FileDetails(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	rec, err := h.medical.Get(r.Context(), userID, chi.URLParam(r, "recordId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if rec.File == nil {
		apierrors.NotFound(w, "к записи не прикреплён файл")
		return
	}
	writeJSON(w, http.StatusOK, medicalFileResponse{
		FilePath:    rec.File.BlobPath,
		FileName:    rec.File.Filename,
		ContentType: rec.File.ContentType,
	})
}

// File обрабатывает GET /api/medical-records/{recordId}/file.
// Отдаёт содержимое прикреплённого файла потоково.
func (h *MedicalHandler) File(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	rec, f, err := h.medical.DownloadFile(r.Context(), userID, chi.URLParam(r, "recordId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", rec.File.ContentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": rec.File.Filename}))
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("Передача файла прервана",
			slog.String("record_id", rec.ID), slog.String("error", err.Error()))
	}
}
