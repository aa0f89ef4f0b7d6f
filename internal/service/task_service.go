package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService - движок жизненного цикла задач: правила переходов
// статусов, мягкое удаление, валидация и запись истории изменений.
// Каждая мутация принимает явного действующего пользователя - именно
// он попадает в changed_by истории.
type TaskService struct {
	repo TaskRepository
}

func NewTaskService(taskRepo TaskRepository) *TaskService {
	return &TaskService{
		repo: taskRepo,
	}
}

// TaskDetail - задача с вложенными назначениями, комментариями и историей
type TaskDetail struct {
	Task        *task.Task         `json:"task"`
	Assignments []*task.Assignment `json:"assignments"`
	Comments    []*task.Comment    `json:"comments"`
	History     []*task.History    `json:"history"`
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// доступ к задаче: создатель или любой назначенный; флаг удаления
// здесь не учитывается - им управляет вызывающая операция
func canAccessTask(ctx context.Context, r TaskRepository, t *task.Task, userID uuid.UUID) (bool, error) {
	if t.CreatedBy == userID {
		return true, nil
	}
	_, err := r.GetAssignment(ctx, t.UUID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("проверка доступа: %w", err)
	}
	return true, nil
}

// getAccessibleTask загружает задачу и применяет предикат видимости до
// того, как с ней что-то можно сделать; невидимая задача для
// пользователя не существует
func getAccessibleTask(ctx context.Context, r TaskRepository, actor *task.User, id uuid.UUID) (*task.Task, error) {
	t, err := r.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("Задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	ok, err := canAccessTask(ctx, r, t, actor.UUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Info("Service: Задача недоступна пользователю",
			zap.String("task_id", id.String()),
			zap.String("user_id", actor.UUID.String()))
		return nil, NewNotFound("Задача", id.String())
	}
	return t, nil
}

func validateTaskFields(t *task.Task) error {
	if t.Title == "" {
		return NewValidationError("title", "заголовок не может быть пустым")
	}
	if !task.ValidStatus(t.Status) {
		return NewValidationError("status", fmt.Sprintf("неверный статус: %s", t.Status))
	}
	if !task.ValidPriority(t.Priority) {
		return NewValidationError("priority", fmt.Sprintf("неверный приоритет: %s", t.Priority))
	}
	if t.DueDate != nil && t.DueDate.Before(t.CreatedAt) {
		return NewValidationError("due_date", "дедлайн не может быть раньше даты создания")
	}
	return nil
}

// CreateTask создаёт задачу; создатель автоматически получает
// назначение владельца со статусом accepted, о чём пишется история
func (s *TaskService) CreateTask(ctx context.Context, actor *task.User, title, description string, status task.Status, priority task.Priority, dueDate *time.Time) (*task.Task, error) {
	if status == "" {
		status = task.StatusPending
	}
	if priority == "" {
		priority = task.PriorityMedium
	}

	t := &task.Task{
		UUID:        uuid.New(),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		CreatedBy:   actor.UUID,
		DueDate:     dueDate,
		CreatedAt:   time.Now(),
		Version:     1,
	}

	if err := validateTaskFields(t); err != nil {
		return nil, err
	}

	owner := task.NewOwnerAssignment(t)
	entry := task.AssignmentCreated(owner, actor.Username)

	if err := s.repo.CreateTask(ctx, t, owner, entry); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", t.UUID.String()),
		zap.String("created_by", actor.Username))
	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, actor *task.User, id uuid.UUID) (*task.Task, error) {
	t, err := getAccessibleTask(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if t.IsDeleted() {
		return nil, NewNotFound("Задача", id.String())
	}
	return t, nil
}

// GetTaskDetail - задача с вложенными назначениями, комментариями
// и историей (новые записи истории первыми)
func (s *TaskService) GetTaskDetail(ctx context.Context, actor *task.User, id uuid.UUID) (*TaskDetail, error) {
	t, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	assignments, err := s.repo.GetTaskAssignments(ctx, t.UUID)
	if err != nil {
		return nil, fmt.Errorf("получение назначений: %w", err)
	}
	comments, err := s.repo.GetTaskComments(ctx, t.UUID)
	if err != nil {
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	history, err := s.repo.GetTaskHistory(ctx, t.UUID)
	if err != nil {
		return nil, fmt.Errorf("получение истории: %w", err)
	}

	return &TaskDetail{
		Task:        t,
		Assignments: assignments,
		Comments:    comments,
		History:     history,
	}, nil
}

// UpdateTask применяет изменения целиком или не применяет вовсе:
// переход статуса проверяется по списку запрещённых рёбер, записи
// истории собираются по реально изменившимся полям и фиксируются
// в одной транзакции с самим обновлением
func (s *TaskService) UpdateTask(ctx context.Context, actor *task.User, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	current, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	for _, opt := range options {
		opt(updated)
	}

	if updated.Status != current.Status {
		if !task.ValidStatus(updated.Status) {
			return nil, NewValidationError("status", fmt.Sprintf("неверный статус: %s", updated.Status))
		}
		if !current.IsValidStatusTransition(updated.Status) {
			logger.Warn("Service: Недопустимый переход статуса",
				zap.String("task_id", id.String()),
				zap.String("old_status", string(current.Status)),
				zap.String("new_status", string(updated.Status)))
			return nil, NewInvalidTransition(string(current.Status), string(updated.Status))
		}
	}

	if err := validateTaskFields(updated); err != nil {
		return nil, err
	}

	entries := task.TrackChanges(current, updated, actor.UUID)
	if len(entries) == 0 {
		return current, nil
	}

	if err := s.repo.UpdateTask(ctx, updated, entries); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return nil, NewBusinessError("VERSION_CONFLICT", "Задача была изменена параллельно, повторите запрос")
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	logger.Info("Service: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Int("changes", len(entries)),
		zap.String("changed_by", actor.Username))
	return updated, nil
}

// SoftDeleteTask помечает задачу удалённой; физически запись остаётся
func (s *TaskService) SoftDeleteTask(ctx context.Context, actor *task.User, id uuid.UUID) error {
	t, err := getAccessibleTask(ctx, s.repo, actor, id)
	if err != nil {
		return err
	}
	if t.IsDeleted() {
		return NewInvalidState("TASK_DELETED", "Задача уже удалена")
	}

	deleted := t.Clone()
	now := time.Now()
	deleted.DeletedAt = &now

	if err := s.repo.UpdateTask(ctx, deleted, nil); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return NewBusinessError("VERSION_CONFLICT", "Задача была изменена параллельно, повторите запрос")
		}
		return fmt.Errorf("мягкое удаление: %w", err)
	}

	logger.Info("Service: Задача удалена (мягко)", zap.String("task_id", id.String()))
	return nil
}

// RestoreTask восстанавливает мягко удалённую задачу
func (s *TaskService) RestoreTask(ctx context.Context, actor *task.User, id uuid.UUID) (*task.Task, error) {
	t, err := getAccessibleTask(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if !t.IsDeleted() {
		return nil, NewInvalidState("NOT_DELETED", "Задача не удалена")
	}

	restored := t.Clone()
	restored.DeletedAt = nil

	if err := s.repo.UpdateTask(ctx, restored, nil); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return nil, NewBusinessError("VERSION_CONFLICT", "Задача была изменена параллельно, повторите запрос")
		}
		return nil, fmt.Errorf("восстановление задачи: %w", err)
	}

	logger.Info("Service: Задача восстановлена", zap.String("task_id", id.String()))
	return restored, nil
}

func (s *TaskService) ListVisibleTasks(ctx context.Context, actor *task.User, page, limit int) ([]*task.Task, error) {
	tasks, err := s.repo.GetVisibleTasks(ctx, actor.UUID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) ListCreatedTasks(ctx context.Context, actor *task.User, page, limit int) ([]*task.Task, error) {
	tasks, err := s.repo.GetCreatedTasks(ctx, actor.UUID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) ListAssignedTasks(ctx context.Context, actor *task.User, page, limit int) ([]*task.Task, error) {
	tasks, err := s.repo.GetAssignedTasks(ctx, actor.UUID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// GetTaskHistory - история изменений задачи, новые записи первыми
func (s *TaskService) GetTaskHistory(ctx context.Context, actor *task.User, taskID uuid.UUID) ([]*task.History, error) {
	if _, err := s.GetTask(ctx, actor, taskID); err != nil {
		return nil, err
	}

	history, err := s.repo.GetTaskHistory(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение истории: %w", err)
	}
	return history, nil
}
