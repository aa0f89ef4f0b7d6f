package handlers

import (
	"context"
	"net/http"
	"time"

	"taskhub/internal/handlers/dto"
	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	"taskhub/internal/service"

	"go.uber.org/zap"
)

type taskListFunc func(ctx context.Context, actor *task.User, page, limit int) ([]*task.Task, error)

type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		tasks: taskService,
	}
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.tasks.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Ошибка health check", err)
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "unavailable"))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	t, err := h.tasks.CreateTask(r.Context(), actor,
		request.Title, request.Description, request.Status, request.Priority, request.DueDate)
	if err != nil {
		if handleBusinessError(w, err, "не удалось создать задачу") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_task"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, "не удалось создать задачу")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, dto.FromTask(t))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.tasks.GetTask(r.Context(), actor, id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить задачу") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_task"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить задачу")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithData(w, http.StatusOK, dto.FromTask(t))
}

// GetTaskDetail - задача с вложенными назначениями, комментариями и историей
func (h *TaskHandler) GetTaskDetail(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.tasks.GetTaskDetail(r.Context(), actor, id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить задачу") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_task_detail"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить задачу")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromTaskDetail(detail))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: Вызов сервиса обновления задачи")
	t, err := h.tasks.UpdateTask(r.Context(), actor, id, request.Options()...)
	if err != nil {
		if handleBusinessError(w, err, "не удалось обновить задачу") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "update_task"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось обновить задачу")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithData(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	logger.Info("HTTP: Вызов сервиса удаления задачи")
	if err := h.tasks.SoftDeleteTask(r.Context(), actor, id); err != nil {
		if handleBusinessError(w, err, "не удалось удалить задачу") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "delete_task"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось удалить задачу")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) RestoreTaskByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.tasks.RestoreTask(r.Context(), actor, id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось восстановить задачу") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "restore_task"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось восстановить задачу")
		return
	}

	logger.Info("HTTP_OUT: Задача восстановлена", zap.String("task_id", id.String()))
	responseWithData(w, http.StatusOK, dto.FromTask(t))
}

// GetTasks - все задачи, видимые пользователю: созданные им или те,
// на которые он назначен
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, "list_tasks", h.tasks.ListVisibleTasks)
}

func (h *TaskHandler) GetMyTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, "list_my_tasks", h.tasks.ListCreatedTasks)
}

func (h *TaskHandler) GetAssignedTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, "list_assigned_tasks", h.tasks.ListAssignedTasks)
}

func (h *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request, operation string, list taskListFunc) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	page, limit := parsePagination(r)

	tasks, err := list(r.Context(), actor, page, limit)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить задачи") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", operation),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить задачи")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithData(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) GetTaskHistory(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	history, err := h.tasks.GetTaskHistory(r.Context(), actor, id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить историю") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_task_history"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить историю")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromHistoryList(history))
}
