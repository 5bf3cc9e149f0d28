// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorUnauthorized(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    messageOrDefault(msg, "Unauthorized"),
	}
}

func HTTPErrorForbidden(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    messageOrDefault(msg, "Forbidden"),
	}
}

func HTTPErrorUnprocessable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE_ENTITY",
		Message:    messageOrDefault(msg, "Unprocessable entity"),
	}
}

func HTTPErrorBadGateway(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadGateway,
		Code:       "BAD_GATEWAY",
		Message:    messageOrDefault(msg, "Bad gateway"),
	}
}

func HTTPErrorServiceUnavailable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    messageOrDefault(msg, "Service unavailable"),
	}
}

func HTTPErrorResourceConflict(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusConflict,
		Code:       "RESOURCE_CONFLICT",
		Message:    messageOrDefault(msg, "Resource conflict"),
	}
}

// HTTPErrorFrom classifies a service error into the HTTP error returned to
// callers.
func HTTPErrorFrom(err error) *HttpError {
	var httpErr *HttpError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, domain.ErrRoundNotFound), errors.Is(err, domain.ErrUnknownAsset):
		return HTTPErrorNotFound(err.Error())
	case errors.Is(err, domain.ErrRoundExists):
		return HTTPErrorResourceConflict(err.Error())
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidRecipient):
		return HTTPErrorBadRequest(err.Error())
	case errors.Is(err, domain.ErrStaleQuote), errors.Is(err, domain.ErrInvalidQuote):
		return HTTPErrorServiceUnavailable(err.Error())
	case errors.Is(err, domain.ErrArithmeticOverflow), errors.Is(err, domain.ErrDistributionMismatch):
		return HTTPErrorUnprocessable(err.Error())
	case errors.Is(err, domain.ErrTransferFailed):
		return HTTPErrorBadGateway(err.Error())
	default:
		return HTTPErrorInternalError("")
	}
}
