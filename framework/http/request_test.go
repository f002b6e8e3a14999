package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gohttp "github.com/km-arc/go-inject/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

type notePayload struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body"`
}

// ── Bind ─────────────────────────────────────────────────────────────────────

func TestRequest_Bind(t *testing.T) {
	req := newJSONRequest(t, `{"title":"Groceries","body":"milk"}`)

	var p notePayload
	if err := req.Bind(&p); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if p.Title != "Groceries" || p.Body != "milk" {
		t.Errorf("got %+v", p)
	}
}

func TestRequest_Bind_EmptyBody(t *testing.T) {
	var p notePayload
	err := newJSONRequest(t, "").Bind(&p)
	if !errors.Is(err, gohttp.ErrEmptyBody) {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
	if gohttp.StatusFor(err) != http.StatusBadRequest {
		t.Errorf("status: got %d want 400", gohttp.StatusFor(err))
	}
}

func TestRequest_Bind_InvalidJSON(t *testing.T) {
	var p notePayload
	err := newJSONRequest(t, `{not json`).Bind(&p)
	if gohttp.StatusFor(err) != http.StatusBadRequest {
		t.Errorf("expected 400 error, got %v", err)
	}
}

func TestRequest_Bind_Validation(t *testing.T) {
	var p notePayload
	err := newJSONRequest(t, `{"body":"no title"}`).Bind(&p)
	if !gohttp.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gohttp.StatusFor(err) != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d want 422", gohttp.StatusFor(err))
	}
}

func TestRequest_Bind_Map(t *testing.T) {
	var m map[string]any
	if err := newJSONRequest(t, `{"a":1}`).Bind(&m); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if m["a"] != float64(1) {
		t.Errorf("got %v", m)
	}
}

// ── Input helpers ────────────────────────────────────────────────────────────

func TestRequest_Query(t *testing.T) {
	req := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/?page=2", nil))
	if got := req.Query("page"); got != "2" {
		t.Errorf("got %q want 2", got)
	}
	if got := req.Query("size", "10"); got != "10" {
		t.Errorf("fallback: got %q want 10", got)
	}
}

func TestRequest_RouteParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/notes/42", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	if got := gohttp.NewRequest(r).RouteParam("id"); got != "42" {
		t.Errorf("got %q want 42", got)
	}
}

func TestRequest_Headers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def")
	r.Header.Set("Accept", "application/json")
	r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, "req-1"))
	req := gohttp.NewRequest(r)

	if got := req.BearerToken(); got != "abc.def" {
		t.Errorf("BearerToken: got %q", got)
	}
	if got := req.Header("Accept"); got != "application/json" {
		t.Errorf("Header: got %q", got)
	}
	if !req.IsJSON() {
		t.Error("expected IsJSON")
	}
	if got := req.RequestID(); got != "req-1" {
		t.Errorf("RequestID: got %q", got)
	}
	if req.Method() != http.MethodGet || req.Path() != "/" {
		t.Errorf("Method/Path: got %s %s", req.Method(), req.Path())
	}
}

func TestRequest_BearerToken_Missing(t *testing.T) {
	req := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	if got := req.BearerToken(); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
}
