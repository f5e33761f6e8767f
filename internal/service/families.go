// families.go — сервис семейных групп: создание, заявки на вступление,
// управление составом.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/repository"
)

// FamilyDetails — семья с составом для ответа API.
type FamilyDetails struct {
	// Family — сама семья
	Family *model.Family
	// Members — участники
	Members []*model.FamilyMember
	// IsAdmin — является ли запрашивающий администратором
	IsAdmin bool
}

// FamilyService — сервис семейных групп.
type FamilyService struct {
	families repository.FamilyRepository
	tx       *repository.TxRunner
	logger   *slog.Logger
}

// NewFamilyService создаёт сервис семей.
func NewFamilyService(families repository.FamilyRepository, tx *repository.TxRunner, logger *slog.Logger) *FamilyService {
	return &FamilyService{
		families: families,
		tx:       tx,
		logger:   logger.With(slog.String("component", "family_service")),
	}
}

// Create создаёт семью; создатель становится администратором и участником.
// Пользователь, уже состоящий в семье, создать новую не может.
func (s *FamilyService) Create(ctx context.Context, userID, name string) (*model.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: название семьи не задано", ErrValidation)
	}

	if _, err := s.families.GetByMemberID(ctx, userID); err == nil {
		return nil, fmt.Errorf("%w: пользователь уже состоит в семье", ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка членства: %w", err)
	}

	family := &model.Family{Name: name, AdminID: userID}
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := repository.NewFamilyRepository(tx)
		if err := repo.Create(ctx, family); err != nil {
			return err
		}
		return repo.AddMember(ctx, family.ID, userID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: семья с таким названием уже существует", ErrConflict)
		}
		return nil, fmt.Errorf("создание семьи: %w", err)
	}

	s.logger.Info("Семья создана",
		slog.String("family_id", family.ID), slog.String("admin_id", userID))
	return family, nil
}

// Get возвращает семью пользователя с составом.
func (s *FamilyService) Get(ctx context.Context, userID string) (*FamilyDetails, error) {
	family, err := s.families.GetByMemberID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь не состоит в семье", ErrNotFound)
		}
		return nil, fmt.Errorf("получение семьи: %w", err)
	}

	members, err := s.families.ListMembers(ctx, family.ID)
	if err != nil {
		return nil, fmt.Errorf("получение участников: %w", err)
	}

	return &FamilyDetails{
		Family:  family,
		Members: members,
		IsAdmin: family.AdminID == userID,
	}, nil
}

// Search ищет семьи по подстроке названия, исключая семью самого
// пользователя. Возвращает не более 10 результатов.
func (s *FamilyService) Search(ctx context.Context, userID, query string) ([]*model.Family, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: поисковый запрос не задан", ErrValidation)
	}

	families, err := s.families.Search(ctx, query, userID, 10)
	if err != nil {
		return nil, fmt.Errorf("поиск семей: %w", err)
	}
	return families, nil
}

// RequestJoin подаёт заявку на вступление в семью. Повторная подача
// при необработанной заявке не считается ошибкой: возвращается
// существующая заявка и created=false.
func (s *FamilyService) RequestJoin(ctx context.Context, userID, familyID string) (*model.JoinRequest, bool, error) {
	if _, err := s.families.GetByMemberID(ctx, userID); err == nil {
		return nil, false, fmt.Errorf("%w: пользователь уже состоит в семье", ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("проверка членства: %w", err)
	}

	family, err := s.families.GetByID(ctx, familyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: семья не найдена", ErrNotFound)
		}
		return nil, false, fmt.Errorf("поиск семьи: %w", err)
	}

	req, err := s.families.CreateJoinRequest(ctx, family.ID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			existing, getErr := s.families.GetPendingRequestByUser(ctx, family.ID, userID)
			if getErr != nil {
				return nil, false, fmt.Errorf("получение заявки: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("создание заявки: %w", err)
	}

	s.logger.Info("Подана заявка на вступление",
		slog.String("family_id", family.ID), slog.String("user_id", userID))
	return req, true, nil
}

// ListJoinRequests возвращает необработанные заявки семьи.
// Доступно только администратору.
func (s *FamilyService) ListJoinRequests(ctx context.Context, adminID, familyID string) ([]*model.JoinRequest, error) {
	family, err := s.requireAdmin(ctx, adminID, familyID)
	if err != nil {
		return nil, err
	}
	requests, err := s.families.ListPendingRequests(ctx, family.ID)
	if err != nil {
		return nil, fmt.Errorf("получение заявок: %w", err)
	}
	return requests, nil
}

// ApproveJoinRequest одобряет заявку пользователя: статус меняется и
// заявитель становится участником в одной транзакции.
func (s *FamilyService) ApproveJoinRequest(ctx context.Context, adminID, familyID, applicantID string) error {
	family, req, err := s.pendingRequestForAdmin(ctx, adminID, familyID, applicantID)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := repository.NewFamilyRepository(tx)
		if err := repo.SetJoinRequestStatus(ctx, req.ID, model.JoinRequestApproved); err != nil {
			return err
		}
		if err := repo.AddMember(ctx, family.ID, req.UserID); err != nil {
			return err
		}
		return repo.Touch(ctx, family.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: заявитель уже состоит в семье", ErrConflict)
		}
		return fmt.Errorf("одобрение заявки: %w", err)
	}

	s.logger.Info("Заявка одобрена",
		slog.String("family_id", family.ID), slog.String("user_id", req.UserID))
	return nil
}

// RejectJoinRequest отклоняет заявку пользователя.
func (s *FamilyService) RejectJoinRequest(ctx context.Context, adminID, familyID, applicantID string) error {
	_, req, err := s.pendingRequestForAdmin(ctx, adminID, familyID, applicantID)
	if err != nil {
		return err
	}

	if err := s.families.SetJoinRequestStatus(ctx, req.ID, model.JoinRequestRejected); err != nil {
		return fmt.Errorf("отклонение заявки: %w", err)
	}

	s.logger.Info("Заявка отклонена", slog.String("request_id", req.ID))
	return nil
}

// RemoveMember исключает участника из семьи. Доступно администратору;
// администратора исключить нельзя.
func (s *FamilyService) RemoveMember(ctx context.Context, adminID, familyID, memberID string) error {
	family, err := s.requireAdmin(ctx, adminID, familyID)
	if err != nil {
		return err
	}
	if memberID == family.AdminID {
		return fmt.Errorf("%w: администратора нельзя исключить из семьи", ErrValidation)
	}

	if err := s.families.RemoveMember(ctx, family.ID, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: пользователь не состоит в семье", ErrNotFound)
		}
		return fmt.Errorf("исключение участника: %w", err)
	}
	if err := s.families.Touch(ctx, family.ID); err != nil {
		return err
	}

	s.logger.Info("Участник исключён",
		slog.String("family_id", family.ID), slog.String("user_id", memberID))
	return nil
}

// Leave выводит пользователя из семьи. Администратор покинуть семью
// не может.
func (s *FamilyService) Leave(ctx context.Context, userID string) error {
	family, err := s.families.GetByMemberID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: пользователь не состоит в семье", ErrNotFound)
		}
		return fmt.Errorf("получение семьи: %w", err)
	}
	if family.AdminID == userID {
		return fmt.Errorf("%w: администратор не может покинуть семью", ErrValidation)
	}

	if err := s.families.RemoveMember(ctx, family.ID, userID); err != nil {
		return fmt.Errorf("выход из семьи: %w", err)
	}

	s.logger.Info("Участник покинул семью",
		slog.String("family_id", family.ID), slog.String("user_id", userID))
	return nil
}

// MemberIDs возвращает идентификаторы всех участников семьи пользователя.
// Используется для выборки расшаренных медицинских данных.
func (s *FamilyService) MemberIDs(ctx context.Context, userID string) ([]string, error) {
	family, err := s.families.GetByMemberID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь не состоит в семье", ErrNotFound)
		}
		return nil, fmt.Errorf("получение семьи: %w", err)
	}
	members, err := s.families.ListMembers(ctx, family.ID)
	if err != nil {
		return nil, fmt.Errorf("получение участников: %w", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// requireAdmin возвращает семью, если пользователь — её администратор.
func (s *FamilyService) requireAdmin(ctx context.Context, userID, familyID string) (*model.Family, error) {
	family, err := s.families.GetByID(ctx, familyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: семья не найдена", ErrNotFound)
		}
		return nil, fmt.Errorf("получение семьи: %w", err)
	}
	if family.AdminID != userID {
		return nil, fmt.Errorf("%w: операция доступна только администратору семьи", ErrForbidden)
	}
	return family, nil
}

// pendingRequestForAdmin возвращает необработанную заявку пользователя
// в семью администратора.
func (s *FamilyService) pendingRequestForAdmin(ctx context.Context, adminID, familyID, applicantID string) (*model.Family, *model.JoinRequest, error) {
	family, err := s.requireAdmin(ctx, adminID, familyID)
	if err != nil {
		return nil, nil, err
	}

	req, err := s.families.GetPendingRequestByUser(ctx, family.ID, applicantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: заявка не найдена", ErrNotFound)
		}
		return nil, nil, fmt.Errorf("получение заявки: %w", err)
	}
	return family, req, nil
}
