package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gorm.io/gorm"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrNotSubscribed     = errors.New("not subscribed")
	ErrInvalidTarget     = errors.New("invalid subscription target")
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("invalid credentials")

	// ErrDeliveryUnconfirmed 请求已发出但超时，对方可能已经收到
	ErrDeliveryUnconfirmed = errors.New("delivery unconfirmed")
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

// GetResponseCode 把业务错误映射为 HTTP 状态码
func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}

	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotSubscribed), errors.Is(err, ErrInvalidTarget):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadySubscribed):
		return http.StatusConflict
	}

	slog.Error("unclassified error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFoundOr 把 gorm 的记录不存在转成 ErrNotFound，其他错误原样包装
func notFoundOr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	slog.Error("database error", "entity", what, "id", id, "error", err)
	return CodedError(fmt.Errorf("error loading %s %d: %w", what, id, err), http.StatusInternalServerError)
}
