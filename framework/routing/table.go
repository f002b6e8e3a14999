package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-inject/framework/auth"
	"github.com/km-arc/go-inject/framework/container"
)

// ErrRouteNotFound is returned by Table.Find when nothing matches.
var ErrRouteNotFound = errors.New("routing: route not found")

// Route maps an endpoint onto a controller method.
type Route struct {
	Method  string
	Pattern string

	// Controller is instantiated per request through the container and
	// Handler names the method invoked on it.
	Controller *container.Class
	Handler    string

	// Authenticate names the strategy protecting the route. Empty means
	// the route is public.
	Authenticate string
	AuthOptions  map[string]any
}

// ResolvedRoute is a Route matched against a request.
type ResolvedRoute struct {
	Route
	Params map[string]string
}

// AuthenticationMetadata implements auth.MetadataSource.
func (r *ResolvedRoute) AuthenticationMetadata() (*auth.Metadata, bool) {
	if r.Authenticate == "" {
		return nil, false
	}
	return &auth.Metadata{Strategy: r.Authenticate, Options: r.AuthOptions}, true
}

var methods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true,
}

// FindRouteFunc resolves the route for a request.
type FindRouteFunc func(r *http.Request) (*ResolvedRoute, error)

// Table holds controller routes and matches requests against them with a
// chi routing tree.
type Table struct {
	mu     sync.RWMutex
	mux    *chi.Mux
	routes map[string]Route
	order  []string
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{mux: chi.NewMux(), routes: make(map[string]Route)}
}

// Add registers rt. Registering the same method and pattern twice fails.
func (t *Table) Add(rt Route) error {
	if rt.Controller == nil || rt.Handler == "" {
		return fmt.Errorf("routing: %s %s needs a controller and a handler", rt.Method, rt.Pattern)
	}
	if !methods[rt.Method] {
		return fmt.Errorf("routing: unsupported method %q", rt.Method)
	}
	if !strings.HasPrefix(rt.Pattern, "/") {
		return fmt.Errorf("routing: pattern %q must begin with '/'", rt.Pattern)
	}
	id := rt.Method + " " + rt.Pattern

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.routes[id]; exists {
		return fmt.Errorf("routing: duplicate route %s", id)
	}
	t.mux.MethodFunc(rt.Method, rt.Pattern, func(http.ResponseWriter, *http.Request) {})
	t.routes[id] = rt
	t.order = append(t.order, id)
	return nil
}

// Resource registers the conventional CRUD routes for controller:
//
//	GET    /notes        Index
//	POST   /notes        Store
//	GET    /notes/{id}   Show
//	PUT    /notes/{id}   Update
//	DELETE /notes/{id}   Destroy
func (t *Table) Resource(pattern string, controller *container.Class, strategy string) error {
	for _, rt := range []Route{
		{Method: http.MethodGet, Pattern: pattern, Handler: "Index"},
		{Method: http.MethodPost, Pattern: pattern, Handler: "Store"},
		{Method: http.MethodGet, Pattern: pattern + "/{id}", Handler: "Show"},
		{Method: http.MethodPut, Pattern: pattern + "/{id}", Handler: "Update"},
		{Method: http.MethodDelete, Pattern: pattern + "/{id}", Handler: "Destroy"},
	} {
		rt.Controller = controller
		rt.Authenticate = strategy
		if err := t.Add(rt); err != nil {
			return err
		}
	}
	return nil
}

// Routes returns the registered routes in registration order.
func (t *Table) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Route, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.routes[id])
	}
	return out
}

// Find matches r against the table.
func (t *Table) Find(r *http.Request) (*ResolvedRoute, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rctx := chi.NewRouteContext()
	pattern := t.mux.Find(rctx, r.Method, r.URL.Path)
	rt, ok := t.routes[r.Method+" "+pattern]
	if pattern == "" || !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrRouteNotFound, r.Method, r.URL.Path)
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}
	return &ResolvedRoute{Route: rt, Params: params}, nil
}

// WithParams returns r carrying route's URL params so chi.URLParam works
// inside controllers.
func WithParams(r *http.Request, route *ResolvedRoute) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range route.Params {
		rctx.URLParams.Add(k, v)
	}
	rctx.RoutePatterns = []string{route.Pattern}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
