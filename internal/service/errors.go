package service

import "fmt"

// BusinessError - типизированная ошибка бизнес-логики; код попадает
// в ответ API и маппится на HTTP статус на уровне хендлеров
type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource string, id string) *BusinessError {
	return NewBusinessError("NOT_FOUND",
		fmt.Sprintf("%s %s не найден(а)", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError("VALIDATION_ERROR",
		fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewInvalidTransition(oldStatus, newStatus string) *BusinessError {
	return NewBusinessError("INVALID_TRANSITION",
		fmt.Sprintf("Недопустимый переход статуса: %s -> %s", oldStatus, newStatus),
		ToDetail("field", "status"),
		ToDetail("old_status", oldStatus),
		ToDetail("new_status", newStatus),
	)
}

func NewDuplicateAssignment(username string) *BusinessError {
	return NewBusinessError("DUPLICATE_ASSIGNMENT",
		"Пользователь уже назначен на эту задачу",
		ToDetail("field", "user_id"),
		ToDetail("username", username),
	)
}

func NewSelfAssignment() *BusinessError {
	return NewBusinessError("SELF_ASSIGNMENT",
		"Нельзя назначить задачу самому себе",
		ToDetail("field", "user_id"),
	)
}

func NewInactiveUser(username string) *BusinessError {
	return NewBusinessError("INACTIVE_USER",
		"Нельзя назначить задачу неактивному пользователю",
		ToDetail("field", "user_id"),
		ToDetail("username", username),
	)
}

func NewInvalidState(code, message string) *BusinessError {
	return NewBusinessError(code, message)
}
