package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/km-arc/go-inject/framework/auth"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Created sends 201 JSON: {"data": v}
func (res *Response) Created(v any) {
	res.JSON(http.StatusCreated, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// Unauthorized sends 401 with the given WWW-Authenticate challenge.
func (res *Response) Unauthorized(challenge string) {
	if challenge != "" {
		res.w.Header().Set("WWW-Authenticate", challenge)
	}
	res.JSON(http.StatusUnauthorized, envelope{"message": "Unauthenticated."})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	res.JSON(http.StatusNotFound, envelope{"message": first(message, "Not found.")})
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	res.JSON(http.StatusInternalServerError, envelope{"message": first(message, "Server Error.")})
}

// ValidationError sends 422 with one message list per field:
//
//	{"message": "The given data was invalid.", "errors": {"title": ["required"]}}
func (res *Response) ValidationError(verrs validator.ValidationErrors) {
	bag := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		bag[field] = append(bag[field], fe.Tag())
	}
	res.JSON(http.StatusUnprocessableEntity, envelope{
		"message": "The given data was invalid.",
		"errors":  bag,
	})
}

// WriteError maps err onto a status and writes it. See StatusFor.
func (res *Response) WriteError(err error) {
	var (
		challenge *auth.ChallengeError
		verrs     validator.ValidationErrors
		herr      *HTTPError
	)
	switch {
	case errors.As(err, &challenge):
		res.Unauthorized(challenge.Challenge)
	case errors.As(err, &verrs):
		res.ValidationError(verrs)
	case errors.As(err, &herr):
		res.Error(herr.Status, herr.Message)
	default:
		res.ServerError()
	}
}

// ── Errors ───────────────────────────────────────────────────────────────────

// HTTPError carries an explicit status from a controller.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

// NewError returns an *HTTPError for status with message.
func NewError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// StatusFor returns the status WriteError uses for err. A failed
// authentication is 401. A missing binding is a server fault and is 500.
func StatusFor(err error) int {
	var (
		challenge *auth.ChallengeError
		verrs     validator.ValidationErrors
		herr      *HTTPError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &challenge):
		return http.StatusUnauthorized
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.As(err, &herr):
		return herr.Status
	}
	return http.StatusInternalServerError
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
