package plangen

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestGenerate(t *testing.T) {
	var gotKey string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("ошибка разбора тела запроса: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"# План\n"},{"text":"День 1"}]}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", srv.Client(), testLogger())

	text, raw, err := c.Generate(context.Background(), "составь план")
	if err != nil {
		t.Fatalf("Generate() ошибка: %v", err)
	}
	if text != "# План\nДень 1" {
		t.Errorf("неверный текст: %q", text)
	}
	if len(raw) == 0 {
		t.Error("сырой ответ пуст")
	}
	if gotKey != "test-key" {
		t.Errorf("заголовок x-goog-api-key: %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "составь план" {
		t.Errorf("неверное тело запроса: %+v", gotBody)
	}
}

func TestGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", srv.Client(), testLogger())

	if _, _, err := c.Generate(context.Background(), "prompt"); err == nil {
		t.Error("ожидалась ошибка для статуса 429")
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", srv.Client(), testLogger())

	_, _, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("ожидалась ошибка ErrEmptyResponse, получено: %v", err)
	}
}

func TestEnabled(t *testing.T) {
	if New("http://x", "", nil, testLogger()).Enabled() {
		t.Error("клиент без ключа должен быть выключен")
	}
	if !New("http://x", "key", nil, testLogger()).Enabled() {
		t.Error("клиент с ключом должен быть включён")
	}
}
