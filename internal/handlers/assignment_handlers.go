package handlers

import (
	"context"
	"net/http"
	"time"

	"taskhub/internal/handlers/dto"
	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	"taskhub/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type assignmentStatusFunc func(ctx context.Context, actor *task.User, id uuid.UUID) (*task.Assignment, error)

type AssignmentHandler struct {
	assignments *service.AssignmentService
}

func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignmentService,
	}
}

func (h *AssignmentHandler) AssignUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	taskID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.AssignRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if request.UserID == uuid.Nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "user_id"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "user_id не может быть пустым")
		return
	}

	logger.Info("HTTP: Вызов сервиса назначения")
	a, err := h.assignments.Assign(r.Context(), actor, taskID, request.UserID, request.Role, request.Notes)
	if err != nil {
		if handleBusinessError(w, err, "не удалось назначить пользователя") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "assign_user"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось назначить пользователя")
		return
	}

	logger.Info("HTTP_OUT: Пользователь назначен",
		zap.String("assignment_id", a.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, dto.FromAssignment(a))
}

func (h *AssignmentHandler) UnassignUser(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	taskID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.assignments.Unassign(r.Context(), actor, taskID, userID); err != nil {
		if handleBusinessError(w, err, "не удалось снять назначение") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "unassign_user"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось снять назначение")
		return
	}

	logger.Info("HTTP_OUT: Назначение снято",
		zap.String("task_id", taskID.String()),
		zap.String("user_id", userID.String()))

	w.WriteHeader(http.StatusNoContent)
}

func (h *AssignmentHandler) AcceptAssignment(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, "accept_assignment", h.assignments.Accept)
}

func (h *AssignmentHandler) RejectAssignment(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, "reject_assignment", h.assignments.Reject)
}

func (h *AssignmentHandler) setStatus(w http.ResponseWriter, r *http.Request, operation string, apply assignmentStatusFunc) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	a, err := apply(r.Context(), actor, id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось изменить статус назначения") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", operation),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось изменить статус назначения")
		return
	}

	logger.Info("HTTP_OUT: Статус назначения изменён",
		zap.String("assignment_id", a.UUID.String()),
		zap.String("status", string(a.Status)))

	responseWithData(w, http.StatusOK, dto.FromAssignment(a))
}

func (h *AssignmentHandler) GetTaskAssignments(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	taskID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	assignments, err := h.assignments.ListTaskAssignments(r.Context(), actor, taskID)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить назначения") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_task_assignments"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить назначения")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromAssignmentList(assignments))
}

func (h *AssignmentHandler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	page, limit := parsePagination(r)

	assignments, err := h.assignments.ListVisibleAssignments(r.Context(), actor, page, limit)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить назначения") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_assignments"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить назначения")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromAssignmentList(assignments))
}
