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

type CommentService struct {
	repo TaskRepository
}

func NewCommentService(taskRepo TaskRepository) *CommentService {
	return &CommentService{
		repo: taskRepo,
	}
}

// CreateComment - комментарий может оставить любой пользователь,
// которому видна задача; автор неизменяем
func (s *CommentService) CreateComment(ctx context.Context, actor *task.User, taskID uuid.UUID, content string) (*task.Comment, error) {
	if content == "" {
		return nil, NewValidationError("content", "комментарий не может быть пустым")
	}

	t, err := getAccessibleTask(ctx, s.repo, actor, taskID)
	if err != nil {
		return nil, err
	}
	if t.IsDeleted() {
		return nil, NewNotFound("Задача", taskID.String())
	}

	c := &task.Comment{
		UUID:     uuid.New(),
		TaskID:   taskID,
		AuthorID: actor.UUID,
		Content:  content,
	}

	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("создание комментария: %w", err)
	}

	logger.Info("Service: Комментарий добавлен",
		zap.String("task_id", taskID.String()),
		zap.String("author", actor.Username))
	return c, nil
}

// UpdateComment - редактировать комментарий может только его автор;
// чужой комментарий для актора не существует
func (s *CommentService) UpdateComment(ctx context.Context, actor *task.User, commentID uuid.UUID, content string) (*task.Comment, error) {
	if content == "" {
		return nil, NewValidationError("content", "комментарий не может быть пустым")
	}

	c, err := s.repo.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("Комментарий", commentID.String())
		}
		return nil, fmt.Errorf("получение комментария: %w", err)
	}
	if c.AuthorID != actor.UUID {
		return nil, NewNotFound("Комментарий", commentID.String())
	}

	t, err := getAccessibleTask(ctx, s.repo, actor, c.TaskID)
	if err != nil {
		return nil, err
	}
	if t.IsDeleted() {
		return nil, NewNotFound("Задача", c.TaskID.String())
	}

	c.Content = content
	if err := s.repo.UpdateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("обновление комментария: %w", err)
	}

	logger.Info("Service: Комментарий отредактирован",
		zap.String("comment_id", commentID.String()),
		zap.String("author", actor.Username))
	return c, nil
}

func (s *CommentService) ListTaskComments(ctx context.Context, actor *task.User, taskID uuid.UUID) ([]*task.Comment, error) {
	t, err := getAccessibleTask(ctx, s.repo, actor, taskID)
	if err != nil {
		return nil, err
	}
	if t.IsDeleted() {
		return nil, NewNotFound("Задача", taskID.String())
	}

	comments, err := s.repo.GetTaskComments(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return comments, nil
}

func (s *CommentService) ListVisibleComments(ctx context.Context, actor *task.User, page, limit int) ([]*task.Comment, error) {
	comments, err := s.repo.GetVisibleComments(ctx, actor.UUID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return comments, nil
}
