package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid            ErrorCode = "invalid"
	ErrorUnauthorized       ErrorCode = "unauthorized"
	ErrorNotFound           ErrorCode = "not_found"
	ErrorTooManyRequests    ErrorCode = "too_many_requests"
	ErrorStorageUnavailable ErrorCode = "storage_unavailable"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error { return &ServiceError{Code: ErrorInvalid, Message: msg} }

func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }

func NewTooManyRequestsError(msg string) error {
	return &ServiceError{Code: ErrorTooManyRequests, Message: msg}
}

func NewStorageError(msg string) error {
	return &ServiceError{Code: ErrorStorageUnavailable, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
