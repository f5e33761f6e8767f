package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

// clearAllLSEnvVars очищает все переменные окружения LS_* для чистого теста
// и возвращает функцию восстановления. Всегда вызывать defer cleanup().
func clearAllLSEnvVars(t *testing.T) func() {
	t.Helper()
	keys := []string{
		"LS_PORT", "LS_DB_HOST", "LS_DB_PORT", "LS_DB_NAME",
		"LS_DB_USER", "LS_DB_PASSWORD", "LS_DB_SSLMODE",
		"LS_DATA_DIR", "LS_JWT_SECRET", "LS_TOKEN_TTL",
		"LS_GEMINI_URL", "LS_GEMINI_API_KEY", "LS_GEMINI_TIMEOUT",
		"LS_MAX_FILE_SIZE", "LS_LOG_LEVEL", "LS_LOG_FORMAT",
		"LS_SHUTDOWN_TIMEOUT",
	}
	originals := make(map[string]string)
	origSet := make(map[string]bool)
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			originals[k] = v
			origSet[k] = true
		}
		os.Unsetenv(k)
	}
	return func() {
		for _, k := range keys {
			if origSet[k] {
				os.Setenv(k, originals[k])
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

// setRequiredEnvVars устанавливает минимальный набор обязательных переменных.
func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	os.Setenv("LS_DB_USER", "lifesync")
	os.Setenv("LS_DB_PASSWORD", "secret")
	os.Setenv("LS_DATA_DIR", "/tmp/lifesync-data")
	os.Setenv("LS_JWT_SECRET", "test-secret-0123456789")
}

func TestLoad_DefaultValues(t *testing.T) {
	cleanup := clearAllLSEnvVars(t)
	defer cleanup()
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost: ожидалось localhost, получено %q", cfg.DBHost)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort: ожидалось 5432, получено %d", cfg.DBPort)
	}
	if cfg.DBName != "lifesync" {
		t.Errorf("DBName: ожидалось lifesync, получено %q", cfg.DBName)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL: ожидалось 24h, получено %v", cfg.TokenTTL)
	}
	if cfg.MaxFileSize != 104857600 {
		t.Errorf("MaxFileSize: ожидалось 104857600, получено %d", cfg.MaxFileSize)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось info, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось json, получено %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 10s, получено %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		skip string
	}{
		{"без LS_DB_USER", "LS_DB_USER"},
		{"без LS_DB_PASSWORD", "LS_DB_PASSWORD"},
		{"без LS_DATA_DIR", "LS_DATA_DIR"},
		{"без LS_JWT_SECRET", "LS_JWT_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := clearAllLSEnvVars(t)
			defer cleanup()
			setRequiredEnvVars(t)
			os.Unsetenv(tt.skip)

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка при отсутствии %s", tt.skip)
			}
		})
	}
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	cleanup := clearAllLSEnvVars(t)
	defer cleanup()
	setRequiredEnvVars(t)
	os.Setenv("LS_JWT_SECRET", "короткий")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для короткого секрета")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	cleanup := clearAllLSEnvVars(t)
	defer cleanup()
	setRequiredEnvVars(t)
	os.Setenv("LS_PORT", "99999")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для порта вне диапазона")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	cleanup := clearAllLSEnvVars(t)
	defer cleanup()
	setRequiredEnvVars(t)
	os.Setenv("LS_LOG_FORMAT", "xml")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для недопустимого формата логов")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	cleanup := clearAllLSEnvVars(t)
	defer cleanup()
	setRequiredEnvVars(t)
	os.Setenv("LS_PORT", "9090")
	os.Setenv("LS_TOKEN_TTL", "1h")
	os.Setenv("LS_LOG_LEVEL", "debug")
	os.Setenv("LS_LOG_FORMAT", "text")
	os.Setenv("LS_GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port: ожидалось 9090, получено %d", cfg.Port)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL: ожидалось 1h, получено %v", cfg.TokenTTL)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось debug, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось text, получено %q", cfg.LogFormat)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Errorf("GeminiAPIKey: ожидалось test-key, получено %q", cfg.GeminiAPIKey)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.local",
		DBPort:     5433,
		DBName:     "lifesync",
		DBUser:     "app",
		DBPassword: "pw",
		DBSSLMode:  "disable",
	}
	dsn := cfg.DatabaseDSN()
	want := "postgres://app:pw@db.local:5433/lifesync?sslmode=disable"
	if dsn != want {
		t.Errorf("DSN: ожидалось %q, получено %q", want, dsn)
	}
	if !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("DSN должен начинаться с postgres://: %q", dsn)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseLogLevel(%q): ожидалась ошибка", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLogLevel(%q): неожиданная ошибка %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, ожидалось %v", tt.in, got, tt.want)
		}
	}
}
