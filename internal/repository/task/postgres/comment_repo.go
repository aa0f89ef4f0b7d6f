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

const commentColumns = `uuid, task_id, author_id, content, is_edited, created_at, updated_at`

func scanComment(row pgx.Row) (*task.Comment, error) {
	c := &task.Comment{}
	err := row.Scan(
		&c.UUID,
		&c.TaskID,
		&c.AuthorID,
		&c.Content,
		&c.IsEdited,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Storage) collectComments(rows pgx.Rows) ([]*task.Comment, error) {
	defer rows.Close()

	comments := []*task.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования комментария", zap.Error(err))
			continue
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return comments, nil
}

func (s *Storage) CreateComment(ctx context.Context, c *task.Comment) error {
	query := `INSERT INTO task_comments
				(uuid, task_id, author_id, content, is_edited, created_at)
				VALUES ($1, $2, $3, $4, FALSE, $5)
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		c.UUID,
		c.TaskID,
		c.AuthorID,
		c.Content,
		time.Now(),
	).Scan(&c.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось добавить комментарий", err)
		return fmt.Errorf("добавление комментария: %w", err)
	}
	return nil
}

func (s *Storage) GetCommentByID(ctx context.Context, id uuid.UUID) (*task.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM task_comments WHERE uuid = $1`

	c, err := scanComment(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить комментарий", err)
		return nil, fmt.Errorf("получение комментария: %w", err)
	}
	return c, nil
}

func (s *Storage) UpdateComment(ctx context.Context, c *task.Comment) error {
	query := `UPDATE task_comments
				SET content = $2, is_edited = TRUE, updated_at = $3
				WHERE uuid = $1
				RETURNING is_edited, updated_at`

	err := s.pool.QueryRow(ctx, query,
		c.UUID,
		c.Content,
		time.Now(),
	).Scan(&c.IsEdited, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить комментарий", err)
		return fmt.Errorf("обновление комментария: %w", err)
	}
	return nil
}

func (s *Storage) GetTaskComments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM task_comments
			WHERE task_id = $1
			ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить комментарии", err)
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return s.collectComments(rows)
}

// GetVisibleComments - комментарии задач, видимых пользователю
func (s *Storage) GetVisibleComments(ctx context.Context, userID uuid.UUID, page, limit int) ([]*task.Comment, error) {
	offset := (page - 1) * limit

	query := `SELECT DISTINCT c.uuid, c.task_id, c.author_id, c.content, c.is_edited,
				c.created_at, c.updated_at
			FROM task_comments c
			JOIN tasks t ON t.uuid = c.task_id
			LEFT JOIN task_assignments a ON a.task_id = t.uuid AND a.user_id = $1
			WHERE t.deleted_at IS NULL
				AND (t.created_by = $1 OR a.user_id = $1)
			ORDER BY c.created_at DESC
			LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить комментарии", err)
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return s.collectComments(rows)
}
