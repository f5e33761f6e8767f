package model

import (
	"encoding/json"
	"time"
)

// Plan — сгенерированный план (учебный или рабочий).
// Хранится в таблице plans вместе с сырым ответом генератора
// (для отладки и повторного использования).
type Plan struct {
	// ID — UUID плана
	ID string
	// UserID — владелец плана
	UserID string
	// PlanType — тип плана (study, work)
	PlanType string
	// StartDate — начало периода планирования
	StartDate time.Time
	// EndDate — конец периода планирования
	EndDate time.Time
	// Description — описание задачи от пользователя
	Description string
	// GeneratedPlan — сгенерированный текст плана (Markdown)
	GeneratedPlan string
	// RawResponse — сырой ответ генератора (JSONB)
	RawResponse json.RawMessage
	// CreatedAt — время создания
	CreatedAt time.Time
}
