// Package rest runs controller routes through the container.
//
// For every request the Sequence:
//
//  1. finds the route with the FindRouteFunc bound at keys.FindRoute
//  2. creates a child Context of the application Context and binds the
//     request, response writer, request id and route into it
//  3. resolves keys.AuthProvider and binds keys.CurrentUser when the route
//     names a strategy
//  4. instantiates the route's controller in the child Context and invokes
//     its handler method
//  5. writes the result as JSON, or maps the error onto a status
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/auth"
	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/keys"
	"github.com/km-arc/go-inject/framework/metrics"
	"github.com/km-arc/go-inject/framework/routing"
)

// Result lets a handler choose the status code.
type Result struct {
	Status int
	Body   any
}

// Sequence is the http.Handler that dispatches to controllers.
type Sequence struct {
	root    *container.Context
	logger  *zap.Logger
	metrics *metrics.Collector
	timeout time.Duration
}

// Option configures a Sequence.
type Option func(*Sequence)

// WithLogger sets the logger used for failed requests.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sequence) { s.logger = l }
}

// WithMetrics records requests, authentication and controllers on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Sequence) { s.metrics = c }
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Sequence) { s.timeout = d }
}

// NewSequence creates a Sequence resolving against root.
func NewSequence(root *container.Context, opts ...Option) *Sequence {
	s := &Sequence{root: root, logger: zap.NewNop(), timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Sequence) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	route, result, err := s.Handle(ctx, ww, r.WithContext(ctx))
	switch {
	case err != nil:
		s.writeError(ww, r, route, err)
	case ww.Status() != 0:
		// the controller wrote the response itself
	default:
		writeResult(gohttp.NewResponse(ww), result)
	}

	if s.metrics != nil {
		pattern := "unmatched"
		if route != nil {
			pattern = route.Pattern
		}
		s.metrics.ObserveRequest(r.Method, pattern, ww.Status(), time.Since(start))
	}
}

// Handle runs the sequence for r without writing the result. It returns the
// matched route, or nil when no route matched.
func (s *Sequence) Handle(ctx context.Context, w http.ResponseWriter, r *http.Request) (*routing.ResolvedRoute, any, error) {
	findRoute, err := container.Resolve[routing.FindRouteFunc](ctx, s.root, keys.FindRoute)
	if err != nil {
		return nil, nil, err
	}
	route, err := findRoute(r)
	if err != nil {
		return nil, nil, err
	}
	r = routing.WithParams(r, route)

	id := uuid.NewString()
	reqCtx := s.root.NewChild(container.WithName("request-" + id))
	reqCtx.Bind(keys.Request).ToValue(r)
	reqCtx.Bind(keys.Response).ToValue(w)
	reqCtx.Bind(keys.RequestID).ToValue(id)
	reqCtx.Bind(keys.Route).ToValue(route)

	if route.Authenticate != "" {
		user, err := s.authenticate(ctx, reqCtx, route, r)
		if err != nil {
			return route, nil, err
		}
		reqCtx.Bind(keys.CurrentUser).ToValue(user)
	}

	ctrl, err := reqCtx.Instantiate(ctx, route.Controller)
	if err != nil {
		return route, nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveController(route.Controller.Name())
	}
	result, err := reqCtx.InvokeMethod(ctx, ctrl, route.Controller, route.Handler)
	return route, result, err
}

func (s *Sequence) authenticate(ctx context.Context, reqCtx *container.Context, route *routing.ResolvedRoute, r *http.Request) (*auth.UserProfile, error) {
	authenticate, err := container.Resolve[auth.AuthenticateFunc](ctx, reqCtx, keys.AuthProvider)
	if err != nil {
		return nil, err
	}
	user, err := authenticate(ctx, r)
	if s.metrics != nil {
		s.metrics.ObserveAuth(route.Authenticate, authOutcome(err))
	}
	return user, err
}

func authOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, auth.ErrUnauthenticated):
		return "challenge"
	}
	return "error"
}

func (s *Sequence) writeError(w http.ResponseWriter, r *http.Request, route *routing.ResolvedRoute, err error) {
	res := gohttp.NewResponse(w)
	if errors.Is(err, routing.ErrRouteNotFound) {
		res.NotFound()
		return
	}

	status := gohttp.StatusFor(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if route != nil {
		fields = append(fields, zap.String("route", route.Pattern))
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Debug("request rejected", fields...)
	}
	res.WriteError(err)
}

func writeResult(res *gohttp.Response, result any) {
	switch v := result.(type) {
	case nil:
		res.NoContent()
	case *Result:
		if v.Body == nil {
			res.Raw().WriteHeader(v.Status)
			return
		}
		res.JSON(v.Status, v.Body)
	default:
		res.JSON(http.StatusOK, v)
	}
}
