// plans.go — сервис генерации учебных и рабочих планов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/plangen"
	"github.com/SonetShaji6/LifeSync/internal/repository"
)

// Допустимые типы планов.
var planTypes = map[string]bool{"study": true, "work": true}

// PlanInput — параметры генерации плана.
type PlanInput struct {
	// PlanType — тип плана (study, work)
	PlanType string
	// StartDate — начало периода
	StartDate time.Time
	// EndDate — конец периода
	EndDate time.Time
	// Description — описание задачи
	Description string
}

// PlanService — сервис планов.
type PlanService struct {
	plans     repository.PlanRepository
	generator *plangen.Client
	logger    *slog.Logger
}

// NewPlanService создаёт сервис планов.
func NewPlanService(plans repository.PlanRepository, generator *plangen.Client, logger *slog.Logger) *PlanService {
	return &PlanService{
		plans:     plans,
		generator: generator,
		logger:    logger.With(slog.String("component", "plan_service")),
	}
}

// buildPrompt формирует prompt для генератора.
func buildPrompt(in *PlanInput) string {
	kind := "study plan"
	if in.PlanType == "work" {
		kind = "work plan"
	}
	return fmt.Sprintf(
		"Create a detailed %s from %s to %s. Task description: %s. "+
			"Format the plan in Markdown with a section per day.",
		kind,
		in.StartDate.Format("2006-01-02"),
		in.EndDate.Format("2006-01-02"),
		in.Description,
	)
}

// Generate генерирует план через внешний API и сохраняет его.
func (s *PlanService) Generate(ctx context.Context, userID string, in *PlanInput) (*model.Plan, error) {
	if !planTypes[in.PlanType] {
		return nil, fmt.Errorf("%w: недопустимый тип плана %q, допустимые: study, work", ErrValidation, in.PlanType)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: период планирования не задан", ErrValidation)
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: конец периода раньше начала", ErrValidation)
	}
	if in.Description == "" {
		return nil, fmt.Errorf("%w: описание задачи не задано", ErrValidation)
	}
	if !s.generator.Enabled() {
		return nil, fmt.Errorf("%w: генерация планов не сконфигурирована", ErrUpstream)
	}

	text, raw, err := s.generator.Generate(ctx, buildPrompt(in))
	if err != nil {
		if errors.Is(err, plangen.ErrEmptyResponse) {
			return nil, fmt.Errorf("%w: генератор вернул пустой ответ", ErrUpstream)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	plan := &model.Plan{
		UserID:        userID,
		PlanType:      in.PlanType,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Description:   in.Description,
		GeneratedPlan: text,
		RawResponse:   raw,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("сохранение плана: %w", err)
	}

	s.logger.Info("План сгенерирован",
		slog.String("plan_id", plan.ID),
		slog.String("user_id", userID),
		slog.String("plan_type", plan.PlanType),
	)
	return plan, nil
}

// List возвращает планы пользователя.
func (s *PlanService) List(ctx context.Context, userID string) ([]*model.Plan, error) {
	plans, err := s.plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение планов: %w", err)
	}
	return plans, nil
}

// Get возвращает план владельца.
func (s *PlanService) Get(ctx context.Context, userID, planID string) (*model.Plan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: план не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("получение плана: %w", err)
	}
	if plan.UserID != userID {
		return nil, fmt.Errorf("%w: план принадлежит другому пользователю", ErrForbidden)
	}
	return plan, nil
}

// Delete удаляет план владельца.
func (s *PlanService) Delete(ctx context.Context, userID, planID string) error {
	plan, err := s.Get(ctx, userID, planID)
	if err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, plan.ID); err != nil {
		return fmt.Errorf("удаление плана: %w", err)
	}

	s.logger.Info("План удалён", slog.String("plan_id", plan.ID))
	return nil
}
