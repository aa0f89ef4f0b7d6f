package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskhub/internal/handlers"
	"taskhub/internal/handlers/dto"
	"taskhub/internal/logger"
	"taskhub/internal/middleware"
	"taskhub/internal/repository/task/inmemory"
	"taskhub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if logger.Logger == nil {
		logger.Init(true)
	}
}

// testServer - полный HTTP-стек на inmemory-хранилище
func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	storage := inmemory.New()
	userService := service.NewUserService(storage)
	taskService := service.NewTaskService(storage)
	assignmentService := service.NewAssignmentService(storage, storage)
	commentService := service.NewCommentService(storage)

	taskHandler := handlers.NewTaskHandler(taskService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	commentHandler := handlers.NewCommentHandler(commentService)
	userHandler := handlers.NewUserHandler(userService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/health", taskHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth(userService))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.GetActiveUsers)
				r.Get("/me", userHandler.GetMe)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.GetTasks)
				r.Post("/", taskHandler.CreateTask)
				r.Get("/my", taskHandler.GetMyTasks)
				r.Get("/assigned", taskHandler.GetAssignedTasks)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.GetTaskByID)
					r.Put("/", taskHandler.UpdateTaskByID)
					r.Delete("/", taskHandler.DeleteTaskByID)
					r.Get("/detail", taskHandler.GetTaskDetail)
					r.Post("/restore", taskHandler.RestoreTaskByID)
					r.Get("/history", taskHandler.GetTaskHistory)

					r.Get("/assignments", assignmentHandler.GetTaskAssignments)
					r.Post("/assignments", assignmentHandler.AssignUser)
					r.Delete("/assignments/{userID}", assignmentHandler.UnassignUser)

					r.Get("/comments", commentHandler.GetTaskComments)
					r.Post("/comments", commentHandler.CreateComment)
				})
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", assignmentHandler.GetAssignments)
				r.Post("/{id}/accept", assignmentHandler.AcceptAssignment)
				r.Post("/{id}/reject", assignmentHandler.RejectAssignment)
			})

			r.Put("/comments/{id}", commentHandler.UpdateComment)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t        *testing.T
	base     string
	username string
	password string
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func register(t *testing.T, srv *httptest.Server, username string) *client {
	t.Helper()

	c := &client{t: t, base: srv.URL}
	resp := c.do(http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	return &client{t: t, base: srv.URL, username: username, password: "secret123"}
}

func TestHealthCheck(t *testing.T) {
	srv := testServer(t)
	c := &client{t: t, base: srv.URL}

	resp := c.do(http.MethodGet, "/health", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	srv := testServer(t)
	c := &client{t: t, base: srv.URL}

	resp := c.do(http.MethodGet, "/api/tasks", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_WrongPassword(t *testing.T) {
	srv := testServer(t)
	register(t, srv, "ivan")

	c := &client{t: t, base: srv.URL, username: "ivan", password: "wrong"}
	resp := c.do(http.MethodGet, "/api/tasks", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestTaskLifecycle - сквозной сценарий: создание, назначение, принятие,
// смена статусов, история, мягкое удаление и восстановление
func TestTaskLifecycle(t *testing.T) {
	srv := testServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	// bob нужен alice по id - узнаём его из списка пользователей
	resp := alice.do(http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decodeBody[[]dto.UserResponse](t, resp)
	require.Len(t, users, 2)

	var bobID uuid.UUID
	for _, u := range users {
		if u.Username == "bob" {
			bobID = u.UUID
		}
	}
	require.NotEqual(t, uuid.Nil, bobID)

	// alice создаёт задачу
	resp = alice.do(http.MethodPost, "/api/tasks", map[string]any{
		"title":       "Подготовить отчёт",
		"description": "К концу недели",
		"priority":    "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[dto.TaskResponse](t, resp)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "high", created.Priority)

	taskPath := "/api/tasks/" + created.UUID.String()

	// bob задачу не видит
	resp = bob.do(http.MethodGet, taskPath, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// alice назначает bob
	resp = alice.do(http.MethodPost, taskPath+"/assignments", map[string]any{
		"user_id": bobID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assignment := decodeBody[dto.AssignmentResponse](t, resp)
	assert.Equal(t, "assignee", assignment.Role)
	assert.Equal(t, "pending", assignment.Status)

	// теперь bob видит задачу
	resp = bob.do(http.MethodGet, taskPath, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// alice не может принять назначение bob
	resp = alice.do(http.MethodPost, "/api/assignments/"+assignment.UUID.String()+"/accept", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// bob принимает
	resp = bob.do(http.MethodPost, "/api/assignments/"+assignment.UUID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accepted := decodeBody[dto.AssignmentResponse](t, resp)
	assert.Equal(t, "accepted", accepted.Status)

	// задача появляется в списке назначенных bob
	resp = bob.do(http.MethodGet, "/api/tasks/assigned", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assigned := decodeBody[[]dto.TaskResponse](t, resp)
	require.Len(t, assigned, 1)

	// bob переводит задачу в работу и завершает
	resp = bob.do(http.MethodPut, taskPath, map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = bob.do(http.MethodPut, taskPath, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// completed -> in_progress запрещён
	resp = bob.do(http.MethodPut, taskPath, map[string]any{"status": "in_progress"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "INVALID_TRANSITION", body["error"])

	// completed -> pending разрешён
	resp = bob.do(http.MethodPut, taskPath, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// история содержит записи о назначениях и каждой смене статуса
	resp = alice.do(http.MethodGet, taskPath+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeBody[[]dto.HistoryResponse](t, resp)

	statusChanges := 0
	assignmentEntries := 0
	for _, h := range history {
		switch h.FieldName {
		case "status":
			statusChanges++
		case "assignment":
			assignmentEntries++
		}
	}
	assert.Equal(t, 3, statusChanges)
	// владелец + назначение bob + принятие bob
	assert.Equal(t, 3, assignmentEntries)

	// комментарии
	resp = bob.do(http.MethodPost, taskPath+"/comments", map[string]any{"content": "готово"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = alice.do(http.MethodGet, taskPath+"/comments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := decodeBody[[]dto.CommentResponse](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "готово", comments[0].Content)

	// мягкое удаление: задача исчезает из выдачи
	resp = alice.do(http.MethodDelete, taskPath, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = alice.do(http.MethodGet, taskPath, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// повторное удаление - 410
	resp = alice.do(http.MethodDelete, taskPath, nil)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	resp.Body.Close()

	// восстановление возвращает задачу
	resp = alice.do(http.MethodPost, taskPath+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = alice.do(http.MethodGet, taskPath, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// восстановление живой задачи - 400 NOT_DELETED
	resp = alice.do(http.MethodPost, taskPath+"/restore", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody[map[string]any](t, resp)
	assert.Equal(t, "NOT_DELETED", body["error"])
}

func TestCommentEditing(t *testing.T) {
	srv := testServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	resp := alice.do(http.MethodPost, "/api/tasks", map[string]any{"title": "задача"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[dto.TaskResponse](t, resp)
	taskPath := "/api/tasks/" + created.UUID.String()

	resp = alice.do(http.MethodPost, taskPath+"/comments", map[string]any{"content": "черновик"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decodeBody[dto.CommentResponse](t, resp)
	assert.False(t, comment.IsEdited)

	commentPath := "/api/comments/" + comment.UUID.String()

	// автор редактирует - флаг is_edited ставится
	resp = alice.do(http.MethodPut, commentPath, map[string]any{"content": "исправлено"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decodeBody[dto.CommentResponse](t, resp)
	assert.Equal(t, "исправлено", edited.Content)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.UpdatedAt)

	// чужой комментарий редактировать нельзя
	resp = bob.do(http.MethodPut, commentPath, map[string]any{"content": "взлом"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// пустое содержимое
	resp = alice.do(http.MethodPut, commentPath, map[string]any{"content": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = alice.do(http.MethodGet, taskPath+"/comments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := decodeBody[[]dto.CommentResponse](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "исправлено", comments[0].Content)
}

func TestAssignmentRules(t *testing.T) {
	srv := testServer(t)
	alice := register(t, srv, "alice")
	register(t, srv, "bob")

	resp := alice.do(http.MethodPost, "/api/tasks", map[string]any{"title": "задача"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[dto.TaskResponse](t, resp)
	taskPath := "/api/tasks/" + created.UUID.String()

	// самоназначение запрещено
	resp = alice.do(http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[dto.UserResponse](t, resp)

	resp = alice.do(http.MethodPost, taskPath+"/assignments", map[string]any{"user_id": me.UUID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "SELF_ASSIGNMENT", body["error"])

	// назначение несуществующего пользователя - 404
	resp = alice.do(http.MethodPost, taskPath+"/assignments", map[string]any{"user_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// повторное назначение - 400 DUPLICATE_ASSIGNMENT
	resp = alice.do(http.MethodGet, "/api/users", nil)
	users := decodeBody[[]dto.UserResponse](t, resp)
	var bobID uuid.UUID
	for _, u := range users {
		if u.Username == "bob" {
			bobID = u.UUID
		}
	}

	resp = alice.do(http.MethodPost, taskPath+"/assignments", map[string]any{"user_id": bobID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = alice.do(http.MethodPost, taskPath+"/assignments", map[string]any{"user_id": bobID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody[map[string]any](t, resp)
	assert.Equal(t, "DUPLICATE_ASSIGNMENT", body["error"])
}

func TestTaskDetail(t *testing.T) {
	srv := testServer(t)
	alice := register(t, srv, "alice")

	resp := alice.do(http.MethodPost, "/api/tasks", map[string]any{"title": "задача"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[dto.TaskResponse](t, resp)

	resp = alice.do(http.MethodGet, fmt.Sprintf("/api/tasks/%s/detail", created.UUID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeBody[dto.TaskDetailResponse](t, resp)

	assert.Equal(t, created.UUID, detail.Task.UUID)
	require.Len(t, detail.Assignments, 1)
	assert.Equal(t, "owner", detail.Assignments[0].Role)
	assert.Len(t, detail.History, 1)
	assert.Empty(t, detail.Comments)
}

func TestValidationAndBadInput(t *testing.T) {
	srv := testServer(t)
	alice := register(t, srv, "alice")

	// пустой заголовок
	resp := alice.do(http.MethodPost, "/api/tasks", map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "VALIDATION_ERROR", body["error"])

	// кривой uuid в пути
	resp = alice.do(http.MethodGet, "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// регистрация с коротким паролем
	c := &client{t: t, base: srv.URL}
	resp = c.do(http.MethodPost, "/api/register", map[string]string{
		"username": "short",
		"password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// дубликат имени пользователя
	resp = c.do(http.MethodPost, "/api/register", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
