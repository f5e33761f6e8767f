// Пакет config — загрузка и валидация конфигурации LifeSync
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Пользователь БД
	DBUser string
	// Пароль пользователя БД
	DBPassword string
	// Режим SSL подключения к БД (disable, require, verify-full)
	DBSSLMode string
	// Путь к корневой директории хранения файлов
	DataDir string
	// Секрет подписи JWT-токенов (обязательный параметр)
	JWTSecret string
	// Время жизни access-токена
	TokenTTL time.Duration
	// Базовый URL Gemini API
	GeminiURL string
	// Ключ Gemini API (пустой — генерация планов отключена)
	GeminiAPIKey string
	// Таймаут запроса к Gemini API
	GeminiTimeout time.Duration
	// Максимальный размер загружаемого файла в байтах
	MaxFileSize int64
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// LS_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("LS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("LS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("LS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// LS_DB_HOST — хост PostgreSQL (по умолчанию localhost)
	cfg.DBHost = getEnvDefault("LS_DB_HOST", "localhost")

	// LS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("LS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("LS_DB_PORT: %w", err)
	}

	// LS_DB_NAME — имя базы данных (по умолчанию lifesync)
	cfg.DBName = getEnvDefault("LS_DB_NAME", "lifesync")

	// LS_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("LS_DB_USER")
	if err != nil {
		return nil, err
	}

	// LS_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("LS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// LS_DB_SSLMODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("LS_DB_SSLMODE", "disable")

	// LS_DATA_DIR — обязательный, корень файлового хранилища
	cfg.DataDir, err = getEnvRequired("LS_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// LS_JWT_SECRET — обязательный, секрет подписи токенов
	cfg.JWTSecret, err = getEnvRequired("LS_JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("LS_JWT_SECRET: длина секрета должна быть не менее 16 символов")
	}

	// LS_TOKEN_TTL — время жизни токена (по умолчанию 24h)
	cfg.TokenTTL, err = getEnvDuration("LS_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("LS_TOKEN_TTL: %w", err)
	}

	// LS_GEMINI_URL — базовый URL Gemini API
	cfg.GeminiURL = getEnvDefault("LS_GEMINI_URL",
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent")

	// LS_GEMINI_API_KEY — опциональный; без ключа генерация планов недоступна
	cfg.GeminiAPIKey = getEnvDefault("LS_GEMINI_API_KEY", "")

	// LS_GEMINI_TIMEOUT — таймаут запроса к Gemini (по умолчанию 60s)
	cfg.GeminiTimeout, err = getEnvDuration("LS_GEMINI_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LS_GEMINI_TIMEOUT: %w", err)
	}

	// LS_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 100 MB)
	cfg.MaxFileSize, err = getEnvInt64("LS_MAX_FILE_SIZE", 104857600)
	if err != nil {
		return nil, fmt.Errorf("LS_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("LS_MAX_FILE_SIZE: значение должно быть положительным")
	}

	// LS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("LS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LS_LOG_LEVEL: %w", err)
	}

	// LS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("LS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// LS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 10s)
	cfg.ShutdownTimeout, err = getEnvDuration("LS_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("недопустимый уровень логирования %q, допустимые: debug, info, warn, error", level)
	}
}
