package handlers

import (
	"net/http"
	"time"

	"taskhub/internal/handlers/dto"
	"taskhub/internal/logger"
	"taskhub/internal/service"

	"go.uber.org/zap"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		users: userService,
	}
}

// Register - единственная открытая операция, аутентификации не требует
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RegisterRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := h.users.Register(r.Context(),
		request.Username, request.Email, request.FirstName, request.LastName, request.Password)
	if err != nil {
		if handleBusinessError(w, err, "не удалось зарегистрировать пользователя") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "register"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось зарегистрировать пользователя")
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.String("username", u.Username),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, dto.FromUser(u))
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	responseWithData(w, http.StatusOK, dto.FromUser(actor))
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	var request dto.ChangePasswordRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), actor.UUID, request.Password); err != nil {
		if handleBusinessError(w, err, "не удалось изменить пароль") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "change_password"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось изменить пароль")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) GetActiveUsers(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	page, limit := parsePagination(r)

	users, err := h.users.ListActiveUsers(r.Context(), page, limit)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить пользователей") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_users"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось получить пользователей")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromUserList(users))
}

// ActivateUser / DeactivateUser доступны только staff-пользователям
func (h *UserHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *UserHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	actor := currentUser(w, r)
	if actor == nil {
		return
	}

	if !actor.IsStaff {
		logger.Warn("HTTP: Недостаточно прав",
			zap.String("username", actor.Username),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusForbidden, "недостаточно прав")
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	apply := h.users.Deactivate
	operation := "deactivate_user"
	if active {
		apply = h.users.Activate
		operation = "activate_user"
	}

	u, err := apply(r.Context(), id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось изменить статус пользователя") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", operation),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, "не удалось изменить статус пользователя")
		return
	}

	responseWithData(w, http.StatusOK, dto.FromUser(u))
}
