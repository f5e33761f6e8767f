package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
)

// FamilyRepository — интерфейс доступа к семьям, членству и заявкам.
type FamilyRepository interface {
	// Create создаёт семью.
	Create(ctx context.Context, f *model.Family) error
	// GetByID возвращает семью по UUID.
	GetByID(ctx context.Context, id string) (*model.Family, error)
	// GetByMemberID возвращает семью, в которой состоит пользователь.
	GetByMemberID(ctx context.Context, userID string) (*model.Family, error)
	// Search ищет семьи по подстроке названия, исключая семью пользователя.
	Search(ctx context.Context, query, excludeUserID string, limit int) ([]*model.Family, error)
	// ListMembers возвращает участников семьи с именами и email.
	ListMembers(ctx context.Context, familyID string) ([]*model.FamilyMember, error)
	// AddMember добавляет пользователя в семью.
	AddMember(ctx context.Context, familyID, userID string) error
	// RemoveMember исключает пользователя из семьи.
	RemoveMember(ctx context.Context, familyID, userID string) error
	// Touch обновляет updated_at семьи.
	Touch(ctx context.Context, familyID string) error
	// CreateJoinRequest создаёт заявку на вступление.
	CreateJoinRequest(ctx context.Context, familyID, userID string) (*model.JoinRequest, error)
	// GetPendingRequestByUser возвращает необработанную заявку пользователя в семью.
	GetPendingRequestByUser(ctx context.Context, familyID, userID string) (*model.JoinRequest, error)
	// ListPendingRequests возвращает необработанные заявки семьи.
	ListPendingRequests(ctx context.Context, familyID string) ([]*model.JoinRequest, error)
	// SetJoinRequestStatus меняет статус заявки.
	SetJoinRequestStatus(ctx context.Context, id, status string) error
}

// familyRepo — реализация FamilyRepository.
type familyRepo struct {
	db DBTX
}

// NewFamilyRepository создаёт репозиторий семей.
func NewFamilyRepository(db DBTX) FamilyRepository {
	return &familyRepo{db: db}
}

func (r *familyRepo) Create(ctx context.Context, f *model.Family) error {
	query := `
		INSERT INTO families (name, admin_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, f.Name, f.AdminID).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: семья с таким названием уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания семьи: %w", err)
	}
	return nil
}

func (r *familyRepo) GetByID(ctx context.Context, id string) (*model.Family, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *familyRepo) GetByMemberID(ctx context.Context, userID string) (*model.Family, error) {
	return r.getOne(ctx,
		`WHERE id = (SELECT family_id FROM family_members WHERE user_id = $1)`, userID)
}

func (r *familyRepo) Search(ctx context.Context, query, excludeUserID string, limit int) ([]*model.Family, error) {
	sql := `
		SELECT id, name, admin_id, created_at, updated_at
		FROM families
		WHERE name ILIKE '%' || $1 || '%'
		  AND id NOT IN (SELECT family_id FROM family_members WHERE user_id = $2)
		ORDER BY name
		LIMIT $3`

	rows, err := r.db.Query(ctx, sql, query, excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска семей: %w", err)
	}
	defer rows.Close()

	var families []*model.Family
	for rows.Next() {
		f := &model.Family{}
		if err := rows.Scan(&f.ID, &f.Name, &f.AdminID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения семьи: %w", err)
		}
		families = append(families, f)
	}
	return families, rows.Err()
}

func (r *familyRepo) getOne(ctx context.Context, where string, arg any) (*model.Family, error) {
	query := `
		SELECT id, name, admin_id, created_at, updated_at
		FROM families ` + where

	f := &model.Family{}
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&f.ID, &f.Name, &f.AdminID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения семьи: %w", err)
	}
	return f, nil
}

func (r *familyRepo) ListMembers(ctx context.Context, familyID string) ([]*model.FamilyMember, error) {
	query := `
		SELECT u.id, u.name, u.email
		FROM family_members fm
		JOIN users u ON u.id = fm.user_id
		WHERE fm.family_id = $1
		ORDER BY fm.joined_at`

	rows, err := r.db.Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения участников семьи: %w", err)
	}
	defer rows.Close()

	var members []*model.FamilyMember
	for rows.Next() {
		m := &model.FamilyMember{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("ошибка чтения участника: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *familyRepo) AddMember(ctx context.Context, familyID, userID string) error {
	query := `INSERT INTO family_members (family_id, user_id) VALUES ($1, $2)`

	if _, err := r.db.Exec(ctx, query, familyID, userID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пользователь уже состоит в семье", ErrConflict)
		}
		return fmt.Errorf("ошибка добавления участника: %w", err)
	}
	return nil
}

func (r *familyRepo) RemoveMember(ctx context.Context, familyID, userID string) error {
	query := `DELETE FROM family_members WHERE family_id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query, familyID, userID)
	if err != nil {
		return fmt.Errorf("ошибка исключения участника: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *familyRepo) Touch(ctx context.Context, familyID string) error {
	query := `UPDATE families SET updated_at = now() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, familyID); err != nil {
		return fmt.Errorf("ошибка обновления семьи: %w", err)
	}
	return nil
}

func (r *familyRepo) CreateJoinRequest(ctx context.Context, familyID, userID string) (*model.JoinRequest, error) {
	query := `
		INSERT INTO family_join_requests (family_id, user_id)
		VALUES ($1, $2)
		RETURNING id, status, created_at`

	req := &model.JoinRequest{FamilyID: familyID, UserID: userID}
	err := r.db.QueryRow(ctx, query, familyID, userID).
		Scan(&req.ID, &req.Status, &req.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: заявка уже подана", ErrConflict)
		}
		return nil, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return req, nil
}

func (r *familyRepo) GetPendingRequestByUser(ctx context.Context, familyID, userID string) (*model.JoinRequest, error) {
	query := `
		SELECT jr.id, jr.family_id, jr.user_id, u.name, u.email, jr.status, jr.created_at
		FROM family_join_requests jr
		JOIN users u ON u.id = jr.user_id
		WHERE jr.family_id = $1 AND jr.user_id = $2 AND jr.status = 'pending'`

	req := &model.JoinRequest{}
	err := r.db.QueryRow(ctx, query, familyID, userID).Scan(
		&req.ID, &req.FamilyID, &req.UserID, &req.UserName, &req.UserEmail,
		&req.Status, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заявки: %w", err)
	}
	return req, nil
}

func (r *familyRepo) ListPendingRequests(ctx context.Context, familyID string) ([]*model.JoinRequest, error) {
	query := `
		SELECT jr.id, jr.family_id, jr.user_id, u.name, u.email, jr.status, jr.created_at
		FROM family_join_requests jr
		JOIN users u ON u.id = jr.user_id
		WHERE jr.family_id = $1 AND jr.status = 'pending'
		ORDER BY jr.created_at`

	rows, err := r.db.Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок: %w", err)
	}
	defer rows.Close()

	var requests []*model.JoinRequest
	for rows.Next() {
		req := &model.JoinRequest{}
		if err := rows.Scan(
			&req.ID, &req.FamilyID, &req.UserID, &req.UserName, &req.UserEmail,
			&req.Status, &req.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка чтения заявки: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *familyRepo) SetJoinRequestStatus(ctx context.Context, id, status string) error {
	query := `UPDATE family_join_requests SET status = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления заявки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
