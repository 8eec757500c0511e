// Package http serves the budgeting JSON API.
//
// This file implements the builder used for every JSON response and the
// mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetai/internal/auth"
	"budgetai/internal/cart"
	"budgetai/internal/core"
	"budgetai/internal/log"
)

// retryAfterSeconds is suggested to clients when a save failed.
const retryAfterSeconds = "5"

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes no
// content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"response encoding failed"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).Header("WWW-Authenticate", `Bearer realm="budgetai"`)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// writeJSON writes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

// writeError maps err to a status code. Unexpected errors are logged and
// hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(r, err).Write(w)
}

func errorResponse(r *http.Request, err error) *JSONResponseBuilder {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return NewJSONResponse().Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, errBadRequest):
		return BadRequestError(err.Error())
	case errors.Is(err, cart.ErrConfirmationRequired):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrEmailExists):
		return ErrorResponse(http.StatusConflict, "email already registered")
	case errors.Is(err, core.ErrAuth):
		return UnauthorizedError(authMessage(err))
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrPersistence):
		log.FromContext(r.Context()).WarnContext(r.Context(), "Save failed, client may retry", "error", err)
		return ErrorResponse(http.StatusServiceUnavailable, "changes could not be saved, please retry").
			Header("Retry-After", retryAfterSeconds)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", "error", err)
		return InternalServerError()
	}
}

// authMessage keeps token parser details out of responses.
func authMessage(err error) string {
	for _, known := range []error{
		auth.ErrInvalidCredentials, auth.ErrMissingToken,
		auth.ErrResetTokenInvalid, auth.ErrInvalidToken,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return core.ErrAuth.Error()
}
