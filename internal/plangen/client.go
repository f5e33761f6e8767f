// Пакет plangen — HTTP-клиент к Gemini generateContent API.
// Отправляет текстовый prompt, возвращает сгенерированный текст
// и сырой ответ API.
package plangen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrEmptyResponse — API вернул ответ без кандидатов.
var ErrEmptyResponse = errors.New("генератор вернул пустой ответ")

// Client — HTTP-клиент Gemini API.
type Client struct {
	endpoint string // Полный URL generateContent endpoint
	apiKey   string

	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент Gemini API.
// endpoint — полный URL generateContent, apiKey — ключ API.
// httpClient может быть nil, тогда используется клиент с таймаутом 60s.
func New(endpoint, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "plangen_client")),
	}
}

// Enabled возвращает true, если клиент сконфигурирован ключом API.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// --- Формат запроса и ответа generateContent ---

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate отправляет prompt и возвращает сгенерированный текст
// вместе с сырым телом ответа.
func (c *Client) Generate(ctx context.Context, prompt string) (string, json.RawMessage, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", nil, fmt.Errorf("сериализация запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("запрос к генератору: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("чтение ответа генератора: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Генератор вернул ошибку",
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)),
		)
		return "", nil, fmt.Errorf("генератор вернул статус %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", nil, fmt.Errorf("разбор ответа генератора: %w", err)
	}
	if parsed.Error != nil {
		return "", nil, fmt.Errorf("генератор вернул ошибку %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil, ErrEmptyResponse
	}

	text := ""
	for _, p := range parsed.Candidates[0].Content.Parts {
		text += p.Text
	}
	if text == "" {
		return "", nil, ErrEmptyResponse
	}

	c.logger.Debug("Текст сгенерирован",
		slog.Int("prompt_len", len(prompt)),
		slog.Int("response_len", len(text)),
		slog.Duration("duration", time.Since(start)),
	)
	return text, raw, nil
}

// truncate обрезает тело ответа для сообщения об ошибке.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
