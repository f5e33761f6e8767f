// Точка входа LifeSync — backend персонального и семейного
// органайзера. Загружает конфигурацию, применяет миграции PostgreSQL,
// инициализирует blob-хранилище, репозитории и сервисный слой,
// запускает HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/SonetShaji6/LifeSync/internal/api/handlers"
	"github.com/SonetShaji6/LifeSync/internal/auth"
	"github.com/SonetShaji6/LifeSync/internal/config"
	"github.com/SonetShaji6/LifeSync/internal/database"
	"github.com/SonetShaji6/LifeSync/internal/plangen"
	"github.com/SonetShaji6/LifeSync/internal/repository"
	"github.com/SonetShaji6/LifeSync/internal/server"
	"github.com/SonetShaji6/LifeSync/internal/service"
	"github.com/SonetShaji6/LifeSync/internal/storage/blobstore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("LifeSync запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Blob-хранилище на диске
	blobs, err := blobstore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации blob-хранилища",
			slog.String("data_dir", cfg.DataDir), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Blob-хранилище готово", slog.String("data_dir", cfg.DataDir))

	// 6. Repositories
	userRepo := repository.NewUserRepository(pool)
	pinRepo := repository.NewPinRepository(pool)
	familyRepo := repository.NewFamilyRepository(pool)
	folderRepo := repository.NewFolderRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	medicalRepo := repository.NewMedicalRecordRepository(pool)
	medicationRepo := repository.NewMedicationRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 7. Генератор планов (опционален: без API-ключа endpoint
	// генерации возвращает ошибку, остальное работает)
	planGen := plangen.New(cfg.GeminiURL, cfg.GeminiAPIKey,
		&http.Client{Timeout: cfg.GeminiTimeout}, logger)
	if !planGen.Enabled() {
		logger.Warn("LS_GEMINI_API_KEY не задан, генерация планов отключена")
	}

	// 8. Services
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := service.NewAuthService(userRepo, tokens, logger)
	pinSvc := service.NewPinService(pinRepo, logger)
	familySvc := service.NewFamilyService(familyRepo, txRunner, logger)
	storageSvc := service.NewStorageService(folderRepo, fileRepo, familyRepo, blobs, txRunner, logger)
	medicalSvc := service.NewMedicalService(medicalRepo, familySvc, storageSvc, logger)
	medicationSvc := service.NewMedicationService(medicationRepo, familySvc, logger)
	planSvc := service.NewPlanService(planRepo, planGen, logger)

	// 9. HTTP handlers
	h := &server.Handlers{
		Health:      handlers.NewHealthHandler(database.NewReadinessChecker(pool)),
		Auth:        handlers.NewAuthHandler(authSvc, logger),
		Storage:     handlers.NewStorageHandler(storageSvc, cfg.MaxFileSize, logger),
		Families:    handlers.NewFamiliesHandler(familySvc, logger),
		Medical:     handlers.NewMedicalHandler(medicalSvc, cfg.MaxFileSize, logger),
		Medications: handlers.NewMedicationsHandler(medicationSvc, logger),
		Plans:       handlers.NewPlansHandler(planSvc, logger),
		Pins:        handlers.NewPinHandler(pinSvc, logger),
	}

	// 10. HTTP-сервер
	srv := server.New(cfg, logger, tokens, h)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
