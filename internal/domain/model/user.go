package model

import "time"

// User — зарегистрированный пользователь.
// Хранится в таблице users, пароль — bcrypt-хэш.
type User struct {
	// ID — UUID пользователя
	ID string
	// Name — отображаемое имя
	Name string
	// Email — адрес электронной почты (уникальный)
	Email string
	// PasswordHash — bcrypt-хэш пароля
	PasswordHash string
	// CreatedAt — время регистрации
	CreatedAt time.Time
}

// Pin — PIN-код пользователя для доступа к медицинскому разделу.
// Один PIN на пользователя, хранится bcrypt-хэш.
type Pin struct {
	// UserID — владелец PIN (уникальный)
	UserID string
	// Hash — bcrypt-хэш PIN-кода
	Hash string
}
