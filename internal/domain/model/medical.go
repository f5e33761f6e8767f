package model

import (
	"encoding/json"
	"time"
)

// Допустимые типы медицинских записей.
var MedicalRecordTypes = []string{"lab result", "imaging report", "clinical note", "prescription"}

// IsValidRecordType проверяет тип медицинской записи.
func IsValidRecordType(t string) bool {
	for _, v := range MedicalRecordTypes {
		if v == t {
			return true
		}
	}
	return false
}

// MedicalFile — прикреплённый к записи файл.
type MedicalFile struct {
	// BlobPath — расположение файла в blob-хранилище
	BlobPath string `json:"path"`
	// Filename — оригинальное имя файла
	Filename string `json:"filename"`
	// ContentType — MIME-тип
	ContentType string `json:"contentType"`
}

// MedicalRecord — медицинская запись пользователя.
// Хранится в таблице medical_records, поле Details — JSONB
// (произвольная строка или структура).
type MedicalRecord struct {
	// ID — UUID записи
	ID string
	// UserID — владелец записи
	UserID string
	// FamilyID — семья, с которой связана запись (опционально)
	FamilyID *string
	// RecordType — тип записи (lab result, imaging report, clinical note, prescription)
	RecordType string
	// Date — дата события (анализа, приёма)
	Date time.Time
	// Title — заголовок записи
	Title string
	// Institution — медицинское учреждение (опционально)
	Institution *string
	// Doctor — лечащий врач (опционально)
	Doctor *string
	// Details — произвольные детали (строка или структура)
	Details json.RawMessage
	// File — прикреплённый файл (nil если нет)
	File *MedicalFile
	// IsShared — расшарена ли запись для семьи
	IsShared bool
	// CreatedAt — время создания
	CreatedAt time.Time
}

// Medication — препарат пользователя с расписанием приёма.
// Хранится в таблице medications.
type Medication struct {
	// ID — UUID препарата
	ID string
	// UserID — владелец
	UserID string
	// FamilyID — семья (опционально)
	FamilyID *string
	// Name — название препарата
	Name string
	// Dosage — дозировка
	Dosage string
	// Frequency — частота приёма
	Frequency string
	// StartDate — начало курса (опционально)
	StartDate *time.Time
	// EndDate — конец курса (опционально)
	EndDate *time.Time
	// Doctor — назначивший врач (опционально)
	Doctor *string
	// Notes — заметки (опционально)
	Notes *string
	// Reminder — включены ли напоминания
	Reminder bool
	// ReminderTimes — времена напоминаний в формате HH:MM
	ReminderTimes []string
	// IsShared — расшарен ли препарат для семьи
	IsShared bool
	// CreatedAt — время создания
	CreatedAt time.Time
}
