// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrForbidden — операция запрещена для текущего пользователя.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrUnauthorized — неверные учётные данные.
	ErrUnauthorized = errors.New("неверные учётные данные")
	// ErrUpstream — внешний сервис недоступен или вернул ошибку.
	ErrUpstream = errors.New("внешний сервис недоступен")
)
