package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const taskColumns = `uuid, title, description, status, priority, created_by,
	due_date, created_at, updated_at, deleted_at, version`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.CreatedBy,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.DeletedAt,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) collectTasks(rows pgx.Rows) ([]*task.Task, error) {
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

// CreateTask вставляет задачу, назначение владельца и запись истории
// о назначении в одной транзакции. Назначение владельца идемпотентно
// за счёт ON CONFLICT DO NOTHING по паре (task_id, user_id).
func (s *Storage) CreateTask(ctx context.Context, t *task.Task, owner *task.Assignment, entry *task.History) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO tasks
				(uuid, title, description, status, priority, created_by, due_date, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
				RETURNING created_at`

	err = tx.QueryRow(ctx, query,
		t.UUID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.CreatedBy,
		t.DueDate,
		time.Now(),
	).Scan(&t.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	ownerQuery := `INSERT INTO task_assignments
				(uuid, task_id, user_id, assigned_by, role, status, notes, assigned_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (task_id, user_id) DO NOTHING`

	tag, err := tx.Exec(ctx, ownerQuery,
		owner.UUID,
		owner.TaskID,
		owner.UserID,
		owner.AssignedBy,
		owner.Role,
		owner.Status,
		owner.Notes,
		owner.AssignedAt,
	)
	if err != nil {
		logger.Error("Repository: Не удалось создать назначение владельца", err)
		return fmt.Errorf("назначение владельца: %w", err)
	}

	if tag.RowsAffected() > 0 {
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

// UpdateTask обновляет задачу и вставляет записи истории в одной
// транзакции: если история не записалась, откатывается и само изменение
func (s *Storage) UpdateTask(ctx context.Context, t *task.Task, entries []*task.History) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				due_date = $5,
				deleted_at = $6,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $7 AND version = $8
			RETURNING updated_at, version`

	err = tx.QueryRow(ctx, query,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.DueDate,
		t.DeletedAt,
		t.UUID,
		t.Version,
	).Scan(&t.UpdatedAt, &t.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Конфликт версий при обновлении задачи",
				zap.String("task_id", t.UUID.String()),
				zap.Int("expected_version", t.Version))
			return repo.ErrVersionConflict
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	for _, entry := range entries {
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// GetVisibleTasks - задачи, видимые пользователю: он создатель или имеет
// назначение; удалённые задачи не возвращаются
func (s *Storage) GetVisibleTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error) {
	start := time.Now()
	offset := (page - 1) * limit

	query := `SELECT DISTINCT t.uuid, t.title, t.description, t.status, t.priority, t.created_by,
				t.due_date, t.created_at, t.updated_at, t.deleted_at, t.version
			FROM tasks t
			LEFT JOIN task_assignments a ON a.task_id = t.uuid
			WHERE t.deleted_at IS NULL
				AND (t.created_by = $1 OR a.user_id = $1)
			ORDER BY t.created_at DESC
			LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	return s.collectTasks(rows)
}

// GetCreatedTasks - задачи, созданные пользователем
func (s *Storage) GetCreatedTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error) {
	offset := (page - 1) * limit

	query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE deleted_at IS NULL AND created_by = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	return s.collectTasks(rows)
}

// GetAssignedTasks - задачи с принятым назначением на пользователя
func (s *Storage) GetAssignedTasks(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Task, error) {
	offset := (page - 1) * limit

	query := `SELECT DISTINCT t.uuid, t.title, t.description, t.status, t.priority, t.created_by,
				t.due_date, t.created_at, t.updated_at, t.deleted_at, t.version
			FROM tasks t
			JOIN task_assignments a ON a.task_id = t.uuid
			WHERE t.deleted_at IS NULL
				AND a.user_id = $1
				AND a.status = $2
			ORDER BY t.created_at DESC
			LIMIT $3 OFFSET $4`

	rows, err := s.pool.Query(ctx, query, userID, task.AssignmentAccepted, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	return s.collectTasks(rows)
}

// IsTaskVisible проверяет предикат видимости до детального чтения
func (s *Storage) IsTaskVisible(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
			SELECT 1 FROM tasks t
			LEFT JOIN task_assignments a ON a.task_id = t.uuid
			WHERE t.uuid = $1
				AND t.deleted_at IS NULL
				AND (t.created_by = $2 OR a.user_id = $2)
		)`

	var visible bool
	if err := s.pool.QueryRow(ctx, query, taskID, userID).Scan(&visible); err != nil {
		logger.Error("Repository: Не удалось проверить видимость задачи", err)
		return false, fmt.Errorf("проверка видимости: %w", err)
	}
	return visible, nil
}
