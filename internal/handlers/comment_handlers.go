package handlers

import (
	"net/http"
	"time"

	"taskhub/internal/handlers/dto"
	"taskhub/internal/logger"
	"taskhub/internal/service"

	"go.uber.org/zap"
)

type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		comments: commentService,
	}
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
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

	var request dto.CommentRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	c, err := h.comments.CreateComment(r.Context(), actor, taskID, request.Content)
	if err != nil {
		if handleBusinessError(w, err, "не удалось добавить комментарий") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_comment"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось добавить комментарий")
		return
	}

	logger.Info("HTTP_OUT: Комментарий добавлен",
		zap.String("comment_id", c.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, dto.FromComment(c))
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	commentID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.CommentRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	c, err := h.comments.UpdateComment(r.Context(), actor, commentID, request.Content)
	if err != nil {
		if handleBusinessError(w, err, "не удалось отредактировать комментарий") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "update_comment"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось отредактировать комментарий")
		return
	}

	logger.Info("HTTP_OUT: Комментарий отредактирован",
		zap.String("comment_id", c.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithData(w, http.StatusOK, dto.FromComment(c))
}

func (h *CommentHandler) GetTaskComments(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	taskID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	comments, err := h.comments.ListTaskComments(r.Context(), actor, taskID)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить комментарии") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_task_comments"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить комментарии")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromCommentList(comments))
}

func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	page, limit := parsePagination(r)

	comments, err := h.comments.ListVisibleComments(r.Context(), actor, page, limit)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить комментарии") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_comments"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить комментарии")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromCommentList(comments))
}
