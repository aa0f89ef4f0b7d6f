package dto

import (
	"time"

	"taskhub/internal/models/task"
	"taskhub/internal/service"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      task.Status   `json:"status,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
}

// UpdateTaskRequest - частичное обновление: применяются только поля,
// присутствующие в запросе
type UpdateTaskRequest struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *task.Status   `json:"status,omitempty"`
	Priority    *task.Priority `json:"priority,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
}

// Options собирает набор точечных изменений из непустых полей запроса
func (r *UpdateTaskRequest) Options() []task.TaskOption {
	var opts []task.TaskOption
	if r.Title != nil {
		opts = append(opts, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		opts = append(opts, task.WithDescription(*r.Description))
	}
	if r.Status != nil {
		opts = append(opts, task.WithStatus(*r.Status))
	}
	if r.Priority != nil {
		opts = append(opts, task.WithPriority(*r.Priority))
	}
	if r.DueDate != nil {
		opts = append(opts, task.WithDueDate(r.DueDate))
	}
	return opts
}

type AssignRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   task.Role `json:"role,omitempty"`
	Notes  string    `json:"notes,omitempty"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Password  string `json:"password"`
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
}

type TaskResponse struct {
	UUID        uuid.UUID  `json:"uuid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Version     int        `json:"version"`
	IsOverdue   bool       `json:"is_overdue"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		UUID:        t.UUID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedBy:   t.CreatedBy,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Version:     t.Version,
		IsOverdue: t.DueDate != nil && t.DueDate.Before(time.Now()) &&
			t.Status != task.StatusCompleted && t.Status != task.StatusCancelled,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type AssignmentResponse struct {
	UUID       uuid.UUID  `json:"uuid"`
	TaskID     uuid.UUID  `json:"task_id"`
	UserID     uuid.UUID  `json:"user_id"`
	AssignedBy uuid.UUID  `json:"assigned_by"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	AssignedAt time.Time  `json:"assigned_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func FromAssignment(a *task.Assignment) AssignmentResponse {
	return AssignmentResponse{
		UUID:       a.UUID,
		TaskID:     a.TaskID,
		UserID:     a.UserID,
		AssignedBy: a.AssignedBy,
		Role:       string(a.Role),
		Status:     string(a.Status),
		Notes:      a.Notes,
		AssignedAt: a.AssignedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func FromAssignmentList(assignments []*task.Assignment) []AssignmentResponse {
	result := make([]AssignmentResponse, len(assignments))
	for i, a := range assignments {
		result[i] = FromAssignment(a)
	}
	return result
}

type CommentResponse struct {
	UUID      uuid.UUID  `json:"uuid"`
	TaskID    uuid.UUID  `json:"task_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Content   string     `json:"content"`
	IsEdited  bool       `json:"is_edited"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func FromComment(c *task.Comment) CommentResponse {
	return CommentResponse{
		UUID:      c.UUID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		IsEdited:  c.IsEdited,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromCommentList(comments []*task.Comment) []CommentResponse {
	result := make([]CommentResponse, len(comments))
	for i, c := range comments {
		result[i] = FromComment(c)
	}
	return result
}

type HistoryResponse struct {
	UUID      uuid.UUID `json:"uuid"`
	TaskID    uuid.UUID `json:"task_id"`
	ChangedBy uuid.UUID `json:"changed_by"`
	FieldName string    `json:"field_name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedAt time.Time `json:"changed_at"`
}

func FromHistory(h *task.History) HistoryResponse {
	return HistoryResponse{
		UUID:      h.UUID,
		TaskID:    h.TaskID,
		ChangedBy: h.ChangedBy,
		FieldName: string(h.FieldName),
		OldValue:  h.OldValue,
		NewValue:  h.NewValue,
		ChangedAt: h.ChangedAt,
	}
}

func FromHistoryList(history []*task.History) []HistoryResponse {
	result := make([]HistoryResponse, len(history))
	for i, h := range history {
		result[i] = FromHistory(h)
	}
	return result
}

type UserResponse struct {
	UUID       uuid.UUID `json:"uuid"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

func FromUser(u *task.User) UserResponse {
	return UserResponse{
		UUID:       u.UUID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
	}
}

func FromUserList(users []*task.User) []UserResponse {
	result := make([]UserResponse, len(users))
	for i, u := range users {
		result[i] = FromUser(u)
	}
	return result
}

// TaskDetailResponse - задача с вложенными назначениями, комментариями
// и историей (новые записи истории первыми)
type TaskDetailResponse struct {
	Task        TaskResponse         `json:"task"`
	Assignments []AssignmentResponse `json:"assignments"`
	Comments    []CommentResponse    `json:"comments"`
	History     []HistoryResponse    `json:"history"`
}

func FromTaskDetail(d *service.TaskDetail) TaskDetailResponse {
	return TaskDetailResponse{
		Task:        FromTask(d.Task),
		Assignments: FromAssignmentList(d.Assignments),
		Comments:    FromCommentList(d.Comments),
		History:     FromHistoryList(d.History),
	}
}
