package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Базовые классы ошибок публичных операций. Все ошибки хранилища и блоб-стора
// оборачиваются в один из них на границе сервиса, наружу сырые не уходят.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrUpload     = errors.New("upload failed")
	ErrInternal   = errors.New("internal error")
)

func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func ForbiddenError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

func ConflictError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func UploadError(err error) error {
	return fmt.Errorf("%w: %v", ErrUpload, err)
}

func InternalError(err error) error {
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

// HTTPStatus отображает класс ошибки на HTTP статус
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage возвращает текст ошибки для клиента.
// Для 500 наружу уходит общий текст, детали остаются в логах.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
