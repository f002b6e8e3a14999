package container

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context is a hierarchical container of Bindings. Keys resolve against the
// Context itself first and then against each parent in turn.
//
// A Context never owns its parent: discarding a child has no effect on the
// parent, and the parent never sees the child's bindings.
type Context struct {
	name   string
	parent *Context

	mu       sync.RWMutex
	bindings map[string]*Binding

	registrar *Registrar
	logger    *zap.Logger
	strict    bool
}

// Option configures a Context.
type Option func(*Context)

// WithName sets the Context name used in logs and errors.
func WithName(name string) Option {
	return func(c *Context) { c.name = name }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStrict makes Bind refuse to replace an existing key at the same level.
func WithStrict(strict bool) Option {
	return func(c *Context) { c.strict = strict }
}

// WithRegistrar sets where injection descriptors are read from.
func WithRegistrar(r *Registrar) Option {
	return func(c *Context) {
		if r != nil {
			c.registrar = r
		}
	}
}

// New creates a root Context.
func New(opts ...Option) *Context {
	c := &Context{
		name:      uuid.NewString(),
		bindings:  make(map[string]*Binding),
		registrar: DefaultRegistrar,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewChild creates a Context whose lookups fall back to c. The child inherits
// c's registrar, logger and strictness unless overridden.
func (c *Context) NewChild(opts ...Option) *Context {
	child := &Context{
		name:      uuid.NewString(),
		parent:    c,
		bindings:  make(map[string]*Binding),
		registrar: c.registrar,
		logger:    c.logger,
		strict:    c.strict,
	}
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// Name returns the Context name.
func (c *Context) Name() string { return c.name }

// Parent returns the parent Context, or nil for a root.
func (c *Context) Parent() *Context { return c.parent }

// Registrar returns the registrar descriptors are read from.
func (c *Context) Registrar() *Registrar { return c.registrar }

// Logger returns the Context logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// ── Registration ─────────────────────────────────────────────────────────────

// Bind creates the local Binding for key, replacing any previous one. On a
// strict Context binding an existing key panics with *DuplicateBindingError;
// use TryBind to get the error instead.
//
//	ctx.Bind("greeting").ToValue("hi")
//	ctx.Bind("controllers.Greeter").ToClass(greeterClass).InScope(container.Singleton)
func (c *Context) Bind(key string) *Binding {
	b, err := c.TryBind(key)
	if err != nil {
		panic(err)
	}
	return b
}

// TryBind is like Bind but returns *DuplicateBindingError on a strict Context.
func (c *Context) TryBind(key string) (*Binding, error) {
	if key == "" {
		return nil, fmt.Errorf("container: binding key must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.bindings[key]
	if exists && c.strict {
		return nil, &DuplicateBindingError{Key: key, Context: c.name}
	}
	b := newBinding(key)
	c.bindings[key] = b
	c.logger.Debug("binding registered",
		zap.String("context", c.name),
		zap.String("key", key),
		zap.Bool("replaced", exists),
	)
	return b, nil
}

// Unbind removes the local binding for key and reports whether it existed.
// Parent bindings are never touched.
func (c *Context) Unbind(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.bindings[key]
	delete(c.bindings, key)
	return ok
}

// Contains reports whether key is bound at this level.
func (c *Context) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[key]
	return ok
}

// IsBound reports whether key is bound here or in any parent.
func (c *Context) IsBound(key string) bool {
	_, _, err := c.lookup(key)
	return err == nil
}

// GetBinding returns the Binding key resolves to, walking parents.
func (c *Context) GetBinding(key string) (*Binding, error) {
	b, _, err := c.lookup(key)
	return b, err
}

// Find returns the visible bindings whose key matches a path.Match pattern,
// sorted by key. Child bindings shadow same-keyed parent bindings.
//
//	ctx.Find("controllers.*")
func (c *Context) Find(pattern string) []*Binding {
	return c.collect(func(b *Binding) bool {
		ok, err := path.Match(pattern, b.key)
		return err == nil && ok
	})
}

// FindByTag returns the visible bindings carrying tag, sorted by key.
func (c *Context) FindByTag(tag string) []*Binding {
	return c.collect(func(b *Binding) bool { return b.HasTag(tag) })
}

// Keys returns every visible key, sorted.
func (c *Context) Keys() []string {
	bs := c.collect(func(*Binding) bool { return true })
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.key
	}
	return out
}

func (c *Context) collect(match func(*Binding) bool) []*Binding {
	seen := make(map[string]bool)
	var out []*Binding
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		for k, b := range cur.bindings {
			if seen[k] {
				continue
			}
			seen[k] = true
			if match(b) {
				out = append(out, b)
			}
		}
		cur.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// lookup finds the binding for key and the Context level that owns it.
func (c *Context) lookup(key string) (*Binding, *Context, error) {
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		b, ok := cur.bindings[key]
		cur.mu.RUnlock()
		if ok {
			return b, cur, nil
		}
	}
	return nil, nil, &BindingNotFoundError{Key: key, Context: c.name}
}

// ── Resolution ───────────────────────────────────────────────────────────────

// Get resolves key, blocking until any providers or custom resolvers it
// depends on have produced their values. Cancel ctx to stop waiting.
//
//	v, err := ctx.Get(reqCtx, "authentication.user")
func (c *Context) Get(ctx context.Context, key string) (any, error) {
	return c.resolveKey(ctx, key)
}

// GetAsync starts resolving key and returns immediately. Value bindings
// return an already settled Future.
func (c *Context) GetAsync(ctx context.Context, key string) *Future {
	b, _, err := c.lookup(key)
	if err != nil {
		return Rejected(err)
	}
	if b.Kind() == KindValue {
		v, err := c.resolveKey(ctx, key)
		if err != nil {
			return Rejected(err)
		}
		return Resolved(v)
	}
	return Go(func() (any, error) { return c.resolveKey(ctx, key) })
}

// MustGet is like Get but panics on error.
func (c *Context) MustGet(ctx context.Context, key string) any {
	v, err := c.Get(ctx, key)
	if err != nil {
		panic(err)
	}
	return v
}

// Instantiate builds class with injected dependencies. args supplies the
// unmanaged constructor slots by position; injected slots take precedence.
//
//	ctrl, err := reqCtx.Instantiate(ctx, controllerClass, pathID)
func (c *Context) Instantiate(ctx context.Context, class *Class, args ...any) (any, error) {
	return c.instantiate(ctx, class, args)
}

// ── Generics helper ──────────────────────────────────────────────────────────

// Resolve calls Get and type-asserts the result.
//
//	name, err := container.Resolve[string](ctx, appCtx, "application.name")
func Resolve[T any](ctx context.Context, c *Context, key string) (T, error) {
	var zero T
	v, err := c.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%T]: [%s] resolved to %T", zero, key, v)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](ctx context.Context, c *Context, key string) T {
	v, err := Resolve[T](ctx, c, key)
	if err != nil {
		panic(err)
	}
	return v
}
