package service

import (
	"context"

	"taskhub/internal/models/task"

	"github.com/google/uuid"
)

// TaskRepository - контракт хранилища. Составные методы (создание задачи
// с назначением владельца, обновление с историей) выполняются хранилищем
// в одной транзакции.
type TaskRepository interface {
	CreateTask(ctx context.Context, t *task.Task, owner *task.Assignment, entry *task.History) error
	GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task, entries []*task.History) error
	GetVisibleTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error)
	GetCreatedTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error)
	GetAssignedTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error)
	IsTaskVisible(ctx context.Context, taskID, userID uuid.UUID) (bool, error)

	CreateAssignment(ctx context.Context, a *task.Assignment, entry *task.History) error
	GetAssignmentByID(ctx context.Context, id uuid.UUID) (*task.Assignment, error)
	GetAssignment(ctx context.Context, taskID, userID uuid.UUID) (*task.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, a *task.Assignment, entry *task.History) error
	DeleteAssignment(ctx context.Context, taskID, userID uuid.UUID) error
	GetTaskAssignments(ctx context.Context, taskID uuid.UUID) ([]*task.Assignment, error)
	GetVisibleAssignments(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Assignment, error)

	CreateComment(ctx context.Context, c *task.Comment) error
	GetCommentByID(ctx context.Context, id uuid.UUID) (*task.Comment, error)
	UpdateComment(ctx context.Context, c *task.Comment) error
	GetTaskComments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error)
	GetVisibleComments(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Comment, error)

	GetTaskHistory(ctx context.Context, taskID uuid.UUID) ([]*task.History, error)

	HealthCheck(ctx context.Context) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *task.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*task.User, error)
	GetUserByUsername(ctx context.Context, username string) (*task.User, error)
	UpdateUser(ctx context.Context, u *task.User) error
	GetActiveUsers(ctx context.Context, page, limit int) ([]*task.User, error)
}
