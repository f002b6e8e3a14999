package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const maxBody = 1 << 20 // 1 MB

var validate = validator.New()

// Request wraps *http.Request with controller helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes a JSON body into v and validates it with `validate` tags.
// A validation failure is returned as validator.ValidationErrors.
func (req *Request) Bind(v any) error {
	if req.raw.Body == nil {
		return ErrEmptyBody
	}
	defer req.raw.Body.Close()
	body, err := io.ReadAll(io.LimitReader(req.raw.Body, maxBody))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &HTTPError{Status: http.StatusBadRequest, Message: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if err := validate.Struct(v); err != nil {
		var inv *validator.InvalidValidationError
		if errors.As(err, &inv) {
			return nil // not a struct
		}
		return err
	}
	return nil
}

// ErrEmptyBody is returned by Bind when the request has no body.
var ErrEmptyBody = &HTTPError{Status: http.StatusBadRequest, Message: "empty request body"}

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (req *Request) BearerToken() string {
	auth := req.raw.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// RequestID returns the id set by chi's RequestID middleware, if any.
func (req *Request) RequestID() string {
	return middleware.GetReqID(req.raw.Context())
}

// Method returns the HTTP method.
func (req *Request) Method() string { return req.raw.Method }

// Path returns the URL path.
func (req *Request) Path() string { return req.raw.URL.Path }

// IsJSON returns true when the request sends or expects JSON.
func (req *Request) IsJSON() bool {
	return strings.Contains(req.raw.Header.Get("Accept"), "application/json") ||
		strings.Contains(req.raw.Header.Get("Content-Type"), "application/json")
}

// IsValidation reports whether err came from struct validation.
func IsValidation(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
