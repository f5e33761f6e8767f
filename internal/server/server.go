// Пакет server — HTTP-сервер LifeSync с graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SonetShaji6/LifeSync/internal/api/handlers"
	"github.com/SonetShaji6/LifeSync/internal/api/middleware"
	"github.com/SonetShaji6/LifeSync/internal/auth"
	"github.com/SonetShaji6/LifeSync/internal/config"
)

// Handlers — доменные обработчики, монтируемые сервером.
type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Storage     *handlers.StorageHandler
	Families    *handlers.FamiliesHandler
	Medical     *handlers.MedicalHandler
	Medications *handlers.MedicationsHandler
	Plans       *handlers.PlansHandler
	Pins        *handlers.PinHandler
}

// Server — HTTP-сервер LifeSync.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, tokens *auth.Manager, h *Handlers) *Server {
	router := chi.NewRouter()

	// Публичные префиксы: probes, метрики, аутентификация и
	// скачивание расшаренных файлов
	excluded := []string{"/health/", "/metrics", "/api/auth/", "/storage/shared/"}

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.JWTAuth(tokens, excluded))

	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.Auth.Signup)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
	})

	router.Get("/storage/shared/{fileId}", h.Storage.DownloadShared)
	router.Route("/storage/{domain}", func(r chi.Router) {
		r.Post("/upload", h.Storage.Upload)
		r.Post("/upload/{familyId}", h.Storage.Upload)
		r.Get("/download/{fileId}", h.Storage.Download)
		r.Get("/list", h.Storage.List)
		r.Delete("/delete-file/{fileId}", h.Storage.DeleteFile)
		r.Post("/create-folder", h.Storage.CreateFolder)
		r.Post("/create-folder/{familyId}", h.Storage.CreateFolder)
		r.Delete("/delete-folder/{folderId}", h.Storage.DeleteFolder)
		r.Delete("/delete-folder/{familyId}/{folderId}", h.Storage.DeleteFolder)
		r.Patch("/move-file/{fileId}", h.Storage.MoveFile)
		r.Patch("/move-folder/{folderId}", h.Storage.MoveFolder)
		r.Post("/copy-file/{fileId}", h.Storage.CopyFile)
		r.Post("/copy-folder/{folderId}", h.Storage.CopyFolder)
		r.Put("/rename-file/{fileId}", h.Storage.RenameFile)
		r.Put("/rename-folder/{folderId}", h.Storage.RenameFolder)
		r.Patch("/share-file/{fileId}", h.Storage.ShareFile)
	})

	router.Route("/api/families", func(r chi.Router) {
		r.Get("/", h.Families.List)
		r.Post("/", h.Families.Create)
		r.Get("/search", h.Families.Search)
		r.Post("/{familyId}/join", h.Families.Join)
		r.Get("/{familyId}/members", h.Families.Members)
		r.Delete("/{familyId}/members/{userId}", h.Families.RemoveMember)
		r.Get("/{familyId}/joinRequests", h.Families.JoinRequests)
		r.Delete("/{familyId}/joinRequests/{userId}", h.Families.RejectRequest)
		r.Patch("/{familyId}/approve/{userId}", h.Families.Approve)
	})

	router.Route("/api/medical-records", func(r chi.Router) {
		r.Post("/", h.Medical.Create)
		r.Get("/", h.Medical.List)
		r.Get("/{recordId}", h.Medical.Get)
		r.Put("/{recordId}", h.Medical.Update)
		r.Delete("/{recordId}", h.Medical.Delete)
		r.Patch("/{recordId}/share", h.Medical.Share)
		r.Get("/{recordId}/download", h.Medical.FileDetails)
		r.Get("/{recordId}/file", h.Medical.File)
	})

	router.Route("/api/medications", func(r chi.Router) {
		r.Post("/", h.Medications.Create)
		r.Get("/", h.Medications.List)
		r.Get("/{medicationId}", h.Medications.Get)
		r.Put("/{medicationId}", h.Medications.Update)
		r.Delete("/{medicationId}", h.Medications.Delete)
		r.Patch("/{medicationId}/share", h.Medications.Share)
	})

	router.Post("/api/generate-plan", h.Plans.Generate)
	router.Route("/api/plans", func(r chi.Router) {
		r.Get("/", h.Plans.List)
		r.Get("/{planId}", h.Plans.Get)
		r.Delete("/{planId}", h.Plans.Delete)
	})

	router.Route("/api/user", func(r chi.Router) {
		r.Get("/pin-status", h.Pins.PinStatus)
		r.Post("/set-pin", h.Pins.SetPin)
		r.Post("/verify-pin", h.Pins.VerifyPin)
		r.Post("/change-pin", h.Pins.ChangePin)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
		// WriteTimeout с запасом: скачивание больших файлов идёт
		// через тот же сервер
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Handler возвращает корневой маршрутизатор сервера.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run запускает сервер и блокируется до сигнала завершения или
// ошибки. Активные запросы дорабатывают в пределах cfg.ShutdownTimeout.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка graceful shutdown: %w", err)
	}

	s.logger.Info("Сервер остановлен")
	return nil
}
