package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
)

// PlanRepository — интерфейс доступа к сгенерированным планам.
type PlanRepository interface {
	// Create сохраняет план.
	Create(ctx context.Context, p *model.Plan) error
	// GetByID возвращает план по UUID.
	GetByID(ctx context.Context, id string) (*model.Plan, error)
	// ListByUser возвращает планы пользователя (новые первыми).
	ListByUser(ctx context.Context, userID string) ([]*model.Plan, error)
	// Delete удаляет план.
	Delete(ctx context.Context, id string) error
}

// planRepo — реализация PlanRepository.
type planRepo struct {
	db DBTX
}

// NewPlanRepository создаёт репозиторий планов.
func NewPlanRepository(db DBTX) PlanRepository {
	return &planRepo{db: db}
}

const planColumns = `id, user_id, plan_type, start_date, end_date, description,
	generated_plan, raw_response, created_at`

// scanPlan читает строку таблицы plans в модель.
func scanPlan(row pgx.Row) (*model.Plan, error) {
	p := &model.Plan{}
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanType, &p.StartDate, &p.EndDate,
		&p.Description, &p.GeneratedPlan, &p.RawResponse, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *planRepo) Create(ctx context.Context, p *model.Plan) error {
	query := `
		INSERT INTO plans (user_id, plan_type, start_date, end_date, description,
			generated_plan, raw_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		p.UserID, p.PlanType, p.StartDate, p.EndDate, p.Description,
		p.GeneratedPlan, p.RawResponse,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения плана: %w", err)
	}
	return nil
}

func (r *planRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	p, err := scanPlan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения плана: %w", err)
	}
	return p, nil
}

func (r *planRepo) ListByUser(ctx context.Context, userID string) ([]*model.Plan, error) {
	query := `SELECT ` + planColumns + `
		FROM plans
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения планов: %w", err)
	}
	defer rows.Close()

	var plans []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения плана: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *planRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM plans WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления плана: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
