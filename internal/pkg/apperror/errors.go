package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeMalformedSelection ErrorCode = "MALFORMED_SELECTION"
	ErrCodeNoPendingRequest   ErrorCode = "NO_MATCHING_PENDING_REQUEST"
	ErrCodeInvalidProof       ErrorCode = "INVALID_PROOF_INPUT"
	ErrCodePersistence        ErrorCode = "PERSISTENCE_FAILURE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду: обёрнутая через Wrap ошибка
// совпадает со своим сентинелом в errors.Is.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !errors.As(target, &appErr) {
		return false
	}
	return e.Code == appErr.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound, ErrCodeNoPendingRequest:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeMalformedSelection, ErrCodeInvalidProof:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func IsUnauthorized(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeUnauthorized
}

func IsMalformedSelection(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeMalformedSelection
}

func IsNoPendingRequest(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNoPendingRequest
}

func IsInvalidProof(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeInvalidProof
}

func IsPersistence(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodePersistence
}

var (
	ErrMalformedSelection       = New(ErrCodeMalformedSelection, "некорректный параметр кнопки")
	ErrNoMatchingPendingRequest = New(ErrCodeNoPendingRequest, "нет подходящей заявки на модерацию")
	ErrUnauthorized             = New(ErrCodeUnauthorized, "операция доступна только модераторам")
	ErrInvalidProof             = New(ErrCodeInvalidProof, "отправьте видео или текст с доказательствами")
	ErrPersistence              = New(ErrCodePersistence, "не удалось сохранить изменения")
)
