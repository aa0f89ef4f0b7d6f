package postgres

import (
	"context"
	"fmt"
	"time"

	"taskhub/internal/logger"
	"taskhub/internal/models/task"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// insertHistory пишет запись аудита внутри транзакции вызывающей
// операции: изменение и его история фиксируются атомарно
func insertHistory(ctx context.Context, tx pgx.Tx, entry *task.History) error {
	query := `INSERT INTO task_history
				(uuid, task_id, changed_by, field_name, old_value, new_value, changed_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		entry.UUID,
		entry.TaskID,
		entry.ChangedBy,
		entry.FieldName,
		entry.OldValue,
		entry.NewValue,
		time.Now(),
	)
	if err != nil {
		logger.Error("Repository: Не удалось записать историю", err)
		return fmt.Errorf("запись истории: %w", err)
	}
	return nil
}

// GetTaskHistory - история задачи, новые записи первыми
func (s *Storage) GetTaskHistory(ctx context.Context, taskID uuid.UUID) ([]*task.History, error) {
	start := time.Now()

	query := `SELECT uuid, task_id, changed_by, field_name, old_value, new_value, changed_at
			FROM task_history
			WHERE task_id = $1
			ORDER BY changed_at DESC`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить историю", err)
		return nil, fmt.Errorf("получение истории: %w", err)
	}
	defer rows.Close()

	entries := []*task.History{}
	for rows.Next() {
		entry := &task.History{}
		err := rows.Scan(
			&entry.UUID,
			&entry.TaskID,
			&entry.ChangedBy,
			&entry.FieldName,
			&entry.OldValue,
			&entry.NewValue,
			&entry.ChangedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования истории", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return entries, nil
}
