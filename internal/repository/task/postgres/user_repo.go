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

const userColumns = `uuid, username, email, first_name, last_name, password_hash,
	is_active, is_staff, date_joined`

func scanUser(row pgx.Row) (*task.User, error) {
	u := &task.User{}
	err := row.Scan(
		&u.UUID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.IsActive,
		&u.IsStaff,
		&u.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Storage) CreateUser(ctx context.Context, u *task.User) error {
	query := `INSERT INTO users
				(uuid, username, email, first_name, last_name, password_hash, is_active, is_staff, date_joined)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING date_joined`

	err := s.pool.QueryRow(ctx, query,
		u.UUID,
		u.Username,
		u.Email,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
		u.IsActive,
		u.IsStaff,
		time.Now(),
	).Scan(&u.DateJoined)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			logger.Warn("Repository: Пользователь уже существует", zap.String("username", u.Username))
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось создать пользователя", err)
		return fmt.Errorf("создание пользователя: %w", err)
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*task.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*task.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *Storage) UpdateUser(ctx context.Context, u *task.User) error {
	query := `UPDATE users
			SET email = $1,
				first_name = $2,
				last_name = $3,
				password_hash = $4,
				is_active = $5,
				is_staff = $6
			WHERE uuid = $7`

	tag, err := s.pool.Exec(ctx, query,
		u.Email,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
		u.IsActive,
		u.IsStaff,
		u.UUID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить пользователя", err)
		return fmt.Errorf("обновление пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) GetActiveUsers(ctx context.Context, page, limit int) ([]*task.User, error) {
	offset := (page - 1) * limit

	query := `SELECT ` + userColumns + ` FROM users
			WHERE is_active = TRUE
			ORDER BY date_joined DESC
			LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*task.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя", zap.Error(err))
			continue
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}
