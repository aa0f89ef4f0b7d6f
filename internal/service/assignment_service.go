package service

import (
	"context"
	"errors"
	"fmt"

	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentService - координатор назначений: связь задача-пользователь
// с ролью и статусом. Назначение владельца создаётся автоматически при
// создании задачи (TaskService), здесь живут явные операции.
type AssignmentService struct {
	repo  TaskRepository
	users UserRepository
}

func NewAssignmentService(taskRepo TaskRepository, userRepo UserRepository) *AssignmentService {
	return &AssignmentService{
		repo:  taskRepo,
		users: userRepo,
	}
}

// Assign назначает пользователя на задачу. Запрещено: назначать самого
// себя, назначать неактивного пользователя, назначать повторно.
// Назначение и запись истории фиксируются в одной транзакции.
func (s *AssignmentService) Assign(ctx context.Context, actor *task.User, taskID, targetUserID uuid.UUID, role task.Role, notes string) (*task.Assignment, error) {
	t, err := getAccessibleTask(ctx, s.repo, actor, taskID)
	if err != nil {
		return nil, err
	}
	if t.IsDeleted() {
		return nil, NewNotFound("Задача", taskID.String())
	}

	if targetUserID == actor.UUID {
		return nil, NewSelfAssignment()
	}

	target, err := s.users.GetUserByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("Пользователь", targetUserID.String())
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	if !target.IsActive {
		return nil, NewInactiveUser(target.Username)
	}

	if role == "" {
		role = task.RoleAssignee
	}
	if !task.ValidRole(role) {
		return nil, NewValidationError("role", fmt.Sprintf("неверная роль: %s", role))
	}

	a := &task.Assignment{
		UUID:       uuid.New(),
		TaskID:     taskID,
		UserID:     targetUserID,
		AssignedBy: actor.UUID,
		Role:       role,
		Status:     task.AssignmentPending,
		Notes:      notes,
	}
	entry := task.AssignmentCreated(a, target.Username)

	if err := s.repo.CreateAssignment(ctx, a, entry); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewDuplicateAssignment(target.Username)
		}
		return nil, fmt.Errorf("создание назначения: %w", err)
	}

	logger.Info("Service: Пользователь назначен на задачу",
		zap.String("task_id", taskID.String()),
		zap.String("user", target.Username),
		zap.String("role", string(role)),
		zap.String("assigned_by", actor.Username))
	return a, nil
}

// Unassign снимает назначение пользователя с задачи
func (s *AssignmentService) Unassign(ctx context.Context, actor *task.User, taskID, targetUserID uuid.UUID) error {
	if _, err := getAccessibleTask(ctx, s.repo, actor, taskID); err != nil {
		return err
	}

	if err := s.repo.DeleteAssignment(ctx, taskID, targetUserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("Назначение", targetUserID.String())
		}
		return fmt.Errorf("удаление назначения: %w", err)
	}

	logger.Info("Service: Назначение снято",
		zap.String("task_id", taskID.String()),
		zap.String("user_id", targetUserID.String()))
	return nil
}

// setStatus меняет статус назначения; принять или отклонить может только
// сам назначенный пользователь, чужое назначение для него не существует
func (s *AssignmentService) setStatus(ctx context.Context, actor *task.User, assignmentID uuid.UUID, status task.AssignmentStatus) (*task.Assignment, error) {
	a, err := s.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("Назначение", assignmentID.String())
		}
		return nil, fmt.Errorf("получение назначения: %w", err)
	}

	if a.UserID != actor.UUID {
		logger.Warn("Service: Попытка изменить чужое назначение",
			zap.String("assignment_id", assignmentID.String()),
			zap.String("user_id", actor.UUID.String()))
		return nil, NewNotFound("Назначение", assignmentID.String())
	}

	if a.Status == status {
		return a, nil
	}

	oldStatus := a.Status
	a.Status = status
	entry := task.AssignmentStatusChanged(a, oldStatus)

	if err := s.repo.UpdateAssignmentStatus(ctx, a, entry); err != nil {
		return nil, fmt.Errorf("обновление назначения: %w", err)
	}

	logger.Info("Service: Статус назначения изменён",
		zap.String("assignment_id", assignmentID.String()),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(status)))
	return a, nil
}

func (s *AssignmentService) Accept(ctx context.Context, actor *task.User, assignmentID uuid.UUID) (*task.Assignment, error) {
	return s.setStatus(ctx, actor, assignmentID, task.AssignmentAccepted)
}

func (s *AssignmentService) Reject(ctx context.Context, actor *task.User, assignmentID uuid.UUID) (*task.Assignment, error) {
	return s.setStatus(ctx, actor, assignmentID, task.AssignmentRejected)
}

func (s *AssignmentService) ListTaskAssignments(ctx context.Context, actor *task.User, taskID uuid.UUID) ([]*task.Assignment, error) {
	if _, err := getAccessibleTask(ctx, s.repo, actor, taskID); err != nil {
		return nil, err
	}

	assignments, err := s.repo.GetTaskAssignments(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение назначений: %w", err)
	}
	return assignments, nil
}

func (s *AssignmentService) ListVisibleAssignments(ctx context.Context, actor *task.User, page, limit int) ([]*task.Assignment, error) {
	assignments, err := s.repo.GetVisibleAssignments(ctx, actor.UUID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение назначений: %w", err)
	}
	return assignments, nil
}
