package model

import "time"

// Family — семейная группа.
// Члены и заявки на вступление хранятся в отдельных таблицах
// family_members и family_join_requests; заявка и членство
// взаимоисключающи (approve переносит запись).
type Family struct {
	// ID — UUID семьи
	ID string
	// Name — название семьи (уникальное)
	Name string
	// AdminID — администратор семьи (всегда член семьи)
	AdminID string
	// CreatedAt — время создания
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения состава
	UpdatedAt time.Time
}

// FamilyMember — участник семьи в ответах API (имя и email
// подтягиваются из users).
type FamilyMember struct {
	// ID — UUID пользователя
	ID string
	// Name — отображаемое имя
	Name string
	// Email — адрес электронной почты
	Email string
}

// Статусы заявки на вступление в семью.
const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestRejected = "rejected"
)

// JoinRequest — заявка пользователя на вступление в семью.
type JoinRequest struct {
	// ID — UUID заявки
	ID string
	// FamilyID — семья, в которую подана заявка
	FamilyID string
	// UserID — подавший заявку пользователь
	UserID string
	// UserName — имя пользователя (из users)
	UserName string
	// UserEmail — email пользователя (из users)
	UserEmail string
	// Status — статус заявки (pending, approved, rejected)
	Status string
	// CreatedAt — время подачи
	CreatedAt time.Time
}
