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
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserService - хранилище учётных записей: регистрация, аутентификация
// по паре логин/пароль, активация и деактивация
type UserService struct {
	repo UserRepository
}

func NewUserService(userRepo UserRepository) *UserService {
	return &UserService{
		repo: userRepo,
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("хеширование пароля: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) Register(ctx context.Context, username, email, firstName, lastName, password string) (*task.User, error) {
	if username == "" {
		return nil, NewValidationError("username", "имя пользователя не может быть пустым")
	}
	if len(password) < minPasswordLength {
		return nil, NewValidationError("password", fmt.Sprintf("пароль должен быть не короче %d символов", minPasswordLength))
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &task.User{
		UUID:         uuid.New(),
		Username:     username,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewValidationError("username", "пользователь с таким именем уже существует")
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован", zap.String("username", username))
	return u, nil
}

// Authenticate - проверка пары логин/пароль; неактивные пользователи
// не аутентифицируются. Причина отказа наружу не раскрывается.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*task.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewBusinessError("INVALID_CREDENTIALS", "Неверное имя пользователя или пароль")
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Service: Неудачная попытка входа", zap.String("username", username))
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Неверное имя пользователя или пароль")
	}

	if !u.IsActive {
		logger.Warn("Service: Вход неактивного пользователя отклонён", zap.String("username", username))
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Неверное имя пользователя или пароль")
	}

	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*task.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("Пользователь", id.String())
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *UserService) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return false, err
	}
	return u.IsActive, nil
}

func (s *UserService) setActive(ctx context.Context, id uuid.UUID, active bool) (*task.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	u.IsActive = active
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("обновление пользователя: %w", err)
	}

	logger.Info("Service: Статус активности изменён",
		zap.String("username", u.Username),
		zap.Bool("is_active", active))
	return u, nil
}

func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (*task.User, error) {
	return s.setActive(ctx, id, true)
}

func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) (*task.User, error) {
	return s.setActive(ctx, id, false)
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return NewValidationError("password", fmt.Sprintf("пароль должен быть не короче %d символов", minPasswordLength))
	}

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("обновление пользователя: %w", err)
	}

	logger.Info("Service: Пароль изменён", zap.String("username", u.Username))
	return nil
}

func (s *UserService) ListActiveUsers(ctx context.Context, page, limit int) ([]*task.User, error) {
	users, err := s.repo.GetActiveUsers(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	return users, nil
}
