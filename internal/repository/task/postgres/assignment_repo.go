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
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const assignmentColumns = `uuid, task_id, user_id, assigned_by, role, status,
	notes, assigned_at, updated_at`

func scanAssignment(row pgx.Row) (*task.Assignment, error) {
	a := &task.Assignment{}
	err := row.Scan(
		&a.UUID,
		&a.TaskID,
		&a.UserID,
		&a.AssignedBy,
		&a.Role,
		&a.Status,
		&a.Notes,
		&a.AssignedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Storage) collectAssignments(rows pgx.Rows) ([]*task.Assignment, error) {
	defer rows.Close()

	assignments := []*task.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования назначения", zap.Error(err))
			continue
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return assignments, nil
}

// CreateAssignment вставляет назначение и запись истории в одной
// транзакции. Дубликат по (task_id, user_id) ловится уникальным
// ограничением и превращается в ErrDuplicate.
func (s *Storage) CreateAssignment(ctx context.Context, a *task.Assignment, entry *task.History) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO task_assignments
				(uuid, task_id, user_id, assigned_by, role, status, notes, assigned_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING assigned_at`

	err = tx.QueryRow(ctx, query,
		a.UUID,
		a.TaskID,
		a.UserID,
		a.AssignedBy,
		a.Role,
		a.Status,
		a.Notes,
		time.Now(),
	).Scan(&a.AssignedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			logger.Warn("Repository: Повторное назначение",
				zap.String("task_id", a.TaskID.String()),
				zap.String("user_id", a.UserID.String()))
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось создать назначение", err)
		return fmt.Errorf("создание назначения: %w", err)
	}

	if err := insertHistory(ctx, tx, entry); err != nil {
		return err
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

func (s *Storage) GetAssignmentByID(ctx context.Context, id uuid.UUID) (*task.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM task_assignments WHERE uuid = $1`

	a, err := scanAssignment(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить назначение", err)
		return nil, fmt.Errorf("получение назначения: %w", err)
	}
	return a, nil
}

func (s *Storage) GetAssignment(ctx context.Context, taskID, userID uuid.UUID) (*task.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM task_assignments
			WHERE task_id = $1 AND user_id = $2`

	a, err := scanAssignment(s.pool.QueryRow(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить назначение", err)
		return nil, fmt.Errorf("получение назначения: %w", err)
	}
	return a, nil
}

// UpdateAssignmentStatus меняет статус назначения и пишет историю
// в одной транзакции
func (s *Storage) UpdateAssignmentStatus(ctx context.Context, a *task.Assignment, entry *task.History) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE task_assignments
			SET status = $1, updated_at = NOW()
			WHERE uuid = $2
			RETURNING updated_at`

	err = tx.QueryRow(ctx, query, a.Status, a.UUID).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить назначение", err)
		return fmt.Errorf("обновление назначения: %w", err)
	}

	if entry != nil {
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	return nil
}

func (s *Storage) DeleteAssignment(ctx context.Context, taskID, userID uuid.UUID) error {
	query := `DELETE FROM task_assignments WHERE task_id = $1 AND user_id = $2`

	tag, err := s.pool.Exec(ctx, query, taskID, userID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить назначение", err)
		return fmt.Errorf("удаление назначения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) GetTaskAssignments(ctx context.Context, taskID uuid.UUID) ([]*task.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM task_assignments
			WHERE task_id = $1
			ORDER BY assigned_at`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить назначения", err)
		return nil, fmt.Errorf("получение назначений: %w", err)
	}
	return s.collectAssignments(rows)
}

// GetVisibleAssignments - назначения задач, видимых пользователю
func (s *Storage) GetVisibleAssignments(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Assignment, error) {
	offset := (page - 1) * limit

	query := `SELECT DISTINCT a.uuid, a.task_id, a.user_id, a.assigned_by, a.role, a.status,
				a.notes, a.assigned_at, a.updated_at
			FROM task_assignments a
			JOIN tasks t ON t.uuid = a.task_id
			LEFT JOIN task_assignments mine ON mine.task_id = t.uuid AND mine.user_id = $1
			WHERE t.deleted_at IS NULL
				AND (t.created_by = $1 OR mine.user_id = $1)
			ORDER BY a.assigned_at DESC
			LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить назначения", err)
		return nil, fmt.Errorf("получение назначений: %w", err)
	}
	return s.collectAssignments(rows)
}
