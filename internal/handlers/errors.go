package handlers

import (
	"errors"
	"net/http"

	"taskhub/internal/logger"
	"taskhub/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error, defaultMessage string) bool {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return true
	}
	return false
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "VALIDATION_ERROR", "INVALID_TRANSITION",
		"DUPLICATE_ASSIGNMENT", "SELF_ASSIGNMENT", "INACTIVE_USER",
		"NOT_DELETED":
		return http.StatusBadRequest
	case "VERSION_CONFLICT":
		return http.StatusConflict
	case "TASK_DELETED":
		return http.StatusGone
	case "INVALID_CREDENTIALS":
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
