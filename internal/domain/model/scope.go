// Пакет model — доменные модели LifeSync.
package model

import "fmt"

// ScopeKind — тип домена хранилища.
type ScopeKind string

const (
	// ScopePrivate — личное хранилище пользователя.
	ScopePrivate ScopeKind = "private"
	// ScopeFamily — общее хранилище семьи.
	ScopeFamily ScopeKind = "family"
)

// OwnerScope — владелец объекта хранилища: ровно один из
// пользователя (private) или семьи (family). Явный tagged-вариант
// вместо пары опциональных полей "одно задано, другое нет".
type OwnerScope struct {
	// Kind — тип домена (private или family)
	Kind ScopeKind
	// ID — идентификатор владельца (userID или familyID)
	ID string
}

// PrivateScope создаёт личный scope пользователя.
func PrivateScope(userID string) OwnerScope {
	return OwnerScope{Kind: ScopePrivate, ID: userID}
}

// FamilyScope создаёт семейный scope.
func FamilyScope(familyID string) OwnerScope {
	return OwnerScope{Kind: ScopeFamily, ID: familyID}
}

// IsPrivate возвращает true для личного scope.
func (s OwnerScope) IsPrivate() bool {
	return s.Kind == ScopePrivate
}

// UserID возвращает идентификатор пользователя или пустую строку
// для семейного scope. Используется при маппинге в SQL-колонки.
func (s OwnerScope) UserID() *string {
	if s.Kind == ScopePrivate {
		return &s.ID
	}
	return nil
}

// FamilyID возвращает идентификатор семьи или nil для личного scope.
func (s OwnerScope) FamilyID() *string {
	if s.Kind == ScopeFamily {
		return &s.ID
	}
	return nil
}

// String возвращает человекочитаемое представление scope для логов.
func (s OwnerScope) String() string {
	return fmt.Sprintf("%s/%s", s.Kind, s.ID)
}

// ParseScopeKind валидирует строку домена из URL.
func ParseScopeKind(raw string) (ScopeKind, error) {
	switch raw {
	case string(ScopePrivate):
		return ScopePrivate, nil
	case string(ScopeFamily):
		return ScopeFamily, nil
	default:
		return "", fmt.Errorf("недопустимый тип хранилища %q, допустимые: private, family", raw)
	}
}
