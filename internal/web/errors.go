// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package web provides the JSON response envelope, request binding,
// pagination helpers, and the API error taxonomy shared by all handlers.
package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Unauthorized reason codes, surfaced in the error code so API clients can
// distinguish a missing token from an expired one. Login failures always
// use ReasonInvalidCredentials regardless of which check failed.
const (
	ReasonMissingToken       = "missing_token"
	ReasonInvalidToken       = "invalid_token"
	ReasonExpiredToken       = "expired_token"
	ReasonInvalidCredentials = "invalid_credentials"
)

// FieldError carries a per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an API error with an HTTP status and optional field details.
// Handlers translate every store/library failure into one of these; nothing
// propagates untyped to the transport layer.
type Error struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`

	// RetryAfter, in seconds, is set on rate-limit errors.
	RetryAfter int `json:"-"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// ValidationError returns a 400 with per-field messages.
func ValidationError(fields ...FieldError) *Error {
	msg := "Validation failed."
	if len(fields) == 1 {
		msg = fields[0].Message
	}
	return &Error{Status: http.StatusBadRequest, Code: "validation_error", Message: msg, Fields: fields}
}

// ValidationMsg returns a 400 with a single message and no field details.
func ValidationMsg(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation_error", Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a 404 for a missing entity.
func NotFound(entity string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Message: entity + " not found."}
}

// Unauthorized returns a 401 with a reason code.
func Unauthorized(reason, message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: reason, Message: message}
}

// Forbidden returns a 403 for a role mismatch.
func Forbidden() *Error {
	return &Error{Status: http.StatusForbidden, Code: "forbidden", Message: "You do not have permission to perform this action."}
}

// Conflict returns a 409, e.g. duplicate slug or blocked deletion.
func Conflict(format string, args ...any) *Error {
	return &Error{Status: http.StatusConflict, Code: "conflict", Message: fmt.Sprintf(format, args...)}
}

// RateLimited returns a 429 with a retry-after hint in seconds.
func RateLimited(retryAfter int) *Error {
	return &Error{
		Status:     http.StatusTooManyRequests,
		Code:       "rate_limited",
		Message:    fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
		RetryAfter: retryAfter,
	}
}

// Internal wraps an unexpected failure as a 500. The original error is kept
// for logging but never serialized outside development.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "internal", Message: "An unexpected error occurred.", cause: err}
}

// Postgres error codes pattern-matched in FromStore.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FromStore translates a store error into an API error. Duplicate-key
// violations become Conflict, foreign-key violations become ValidationError,
// and anything already typed passes through; the rest is Internal.
func FromStore(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return Conflict("A record with the same unique value already exists.")
		case pgForeignKeyViolation:
			return ValidationMsg("Referenced record does not exist or is still referenced.")
		}
	}

	return Internal(err)
}
