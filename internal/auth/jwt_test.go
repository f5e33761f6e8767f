package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret-0123456789", time.Hour)

	token, err := m.Generate("user-42")
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}
	if token == "" {
		t.Fatal("токен не должен быть пустым")
	}

	userID, err := m.Verify(token)
	if err != nil {
		t.Fatalf("ошибка проверки токена: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("неверный subject: ожидалось user-42, получено %q", userID)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret-0123456789", -time.Minute)

	token, err := m.Generate("user-42")
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}

	_, err = m.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ожидалась ошибка ErrExpiredToken, получено: %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m1 := NewManager("secret-one-0123456789", time.Hour)
	m2 := NewManager("secret-two-0123456789", time.Hour)

	token, err := m1.Generate("user-42")
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}

	_, err = m2.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ожидалась ошибка ErrInvalidToken, получено: %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := NewManager("test-secret-0123456789", time.Hour)

	for _, token := range []string{"", "мусор", "a.b.c"} {
		if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): ожидалась ошибка ErrInvalidToken, получено: %v", token, err)
		}
	}
}
