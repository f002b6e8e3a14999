package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ── Resolution session ───────────────────────────────────────────────────────

type sessionKey struct{}

// node identifies a binding together with the Context its dependencies are
// looked up from.
type node struct {
	binding *Binding
	ctx     *Context
}

// depGraph records which nodes each node has started resolving. It is shared
// by every branch of one top-level resolution.
type depGraph struct {
	mu    sync.Mutex
	edges map[node][]node
}

func (g *depGraph) add(from, to node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[from] = append(g.edges[from], to)
}

// reachesAny reports whether a node in targets is reachable from start's
// dependencies.
func (g *depGraph) reachesAny(start node, targets []node) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	want := make(map[node]bool, len(targets))
	for _, n := range targets {
		want[n] = true
	}
	seen := make(map[node]bool)
	stack := append([]node(nil), g.edges[start]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if want[n] {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.edges[n]...)
	}
	return false
}

// session is the immutable chain of keys being resolved on one call path.
// Concurrent branches each extend their own copy and share the graph.
type session struct {
	path  []string
	nodes []node
	graph *depGraph
}

func newSession() *session {
	return &session{graph: &depGraph{edges: make(map[node][]node)}}
}

func sessionFrom(ctx context.Context) *session {
	if s, ok := ctx.Value(sessionKey{}).(*session); ok {
		return s
	}
	return newSession()
}

// withSession makes sure ctx carries a session before it fans out.
func withSession(ctx context.Context) context.Context {
	if _, ok := ctx.Value(sessionKey{}).(*session); ok {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, newSession())
}

func (s *session) enter(key string, n node) (*session, error) {
	next := make([]string, len(s.path)+1)
	copy(next, s.path)
	next[len(s.path)] = key
	if slices.Contains(s.path, key) {
		return nil, &CircularDependencyError{Path: next}
	}
	if len(s.nodes) > 0 {
		s.graph.add(s.nodes[len(s.nodes)-1], n)
	}
	nodes := make([]node, len(s.nodes)+1)
	copy(nodes, s.nodes)
	nodes[len(s.nodes)] = n
	return &session{path: next, nodes: nodes, graph: s.graph}, nil
}

// ResolutionPath returns the keys currently being resolved on ctx's call
// path, outermost first. Custom resolvers can use it for diagnostics.
func ResolutionPath(ctx context.Context) []string {
	return append([]string(nil), sessionFrom(ctx).path...)
}

// ── Key resolution ───────────────────────────────────────────────────────────

func (c *Context) resolveKey(ctx context.Context, key string) (any, error) {
	b, owner, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	src := b.snapshot()
	singleton := src.scope == Singleton && src.kind != KindValue

	// Singletons resolve against the Context that owns the binding so a
	// child's bindings never leak into a value cached for every child.
	n := node{binding: b, ctx: c}
	if singleton {
		n.ctx = owner
	}
	s, err := sessionFrom(ctx).enter(key, n)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, sessionKey{}, s)

	if !singleton {
		return c.resolveSource(ctx, key, src)
	}

	f, first := b.singleton()
	if first {
		v, err := owner.resolveSource(ctx, key, src)
		if err != nil {
			b.evict(f)
		}
		f.settle(v, err)
	} else if !f.Settled() && s.graph.reachesAny(n, s.nodes) {
		// another branch of this resolution is building the singleton and
		// already depends on something on this path
		return nil, &CircularDependencyError{Path: s.path}
	}
	return f.Await(ctx)
}

// resolveSource dispatches on the binding kind.
func (c *Context) resolveSource(ctx context.Context, key string, src bindingSource) (any, error) {
	c.logger.Debug("resolving binding",
		zap.String("context", c.name),
		zap.String("key", key),
		zap.Stringer("kind", src.kind),
		zap.Stringer("scope", src.scope),
	)
	switch src.kind {
	case KindValue:
		return src.value, nil
	case KindClass:
		return c.instantiate(ctx, src.class, nil)
	case KindProvider:
		inst, err := c.instantiate(ctx, src.class, nil)
		if err != nil {
			return nil, err
		}
		p, ok := inst.(Provider)
		if !ok {
			return nil, fmt.Errorf("container: class [%s] bound at [%s] does not implement Provider", src.class.Name(), key)
		}
		return p.Value(ctx)
	case KindDynamic:
		return src.dynamic(ctx, c)
	}
	return nil, fmt.Errorf("%w: [%s]", ErrUnconfiguredBinding, key)
}

// resolveInjection resolves one injection point.
func (c *Context) resolveInjection(ctx context.Context, inj Injection) (any, error) {
	if inj.Resolve == nil {
		if inj.Optional && !c.IsBound(inj.BindingKey) {
			return nil, nil
		}
		return c.resolveKey(ctx, inj.BindingKey)
	}
	v, err := inj.Resolve(ctx, c, inj)
	var missing *BindingNotFoundError
	if inj.Optional && errors.As(err, &missing) && missing.Key == inj.BindingKey {
		return nil, nil
	}
	return v, err
}

// ── Class instantiation ──────────────────────────────────────────────────────

func (c *Context) instantiate(ctx context.Context, class *Class, args []any) (any, error) {
	if class == nil {
		return nil, fmt.Errorf("%w: no class", ErrUnconfiguredBinding)
	}
	params := c.registrar.DescribeInjectedArguments(class.Static(), "")
	if len(params) > class.arity {
		return nil, fmt.Errorf("container: class [%s] has %d injected parameters but takes %d", class.name, len(params), class.arity)
	}
	if len(args) > class.arity {
		return nil, fmt.Errorf("container: class [%s] takes %d arguments, got %d", class.name, class.arity, len(args))
	}
	props := c.registrar.DescribeInjectedProperties(class)
	names := props.Names()

	argv := make([]any, class.arity)
	copy(argv, args)
	propv := make([]any, len(names))

	g, gctx := errgroup.WithContext(withSession(ctx))
	for i, inj := range params {
		if inj == nil {
			continue
		}
		g.Go(func() error {
			v, err := c.resolveInjection(gctx, *inj)
			argv[i] = v
			return err
		})
	}
	for i, name := range names {
		inj, _ := props.Get(name)
		g.Go(func() error {
			v, err := c.resolveInjection(gctx, *inj)
			propv[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inst, err := class.ctor(argv)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		if err := setProperty(inst, name, propv[i]); err != nil {
			return nil, fmt.Errorf("container: injecting %s.%s: %w", class.name, name, err)
		}
	}
	return inst, nil
}

func setProperty(inst any, name string, value any) error {
	if s, ok := inst.(PropertySetter); ok {
		return s.SetInjectedProperty(name, value)
	}
	rv := reflect.ValueOf(inst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%T is not a pointer to a struct", inst)
	}
	field := rv.Elem().FieldByName(name)
	if !field.IsValid() {
		return fmt.Errorf("%T has no field %q", inst, name)
	}
	if !field.CanSet() {
		return fmt.Errorf("field %q of %T is not settable", name, inst)
	}
	v, err := valueFor(value, field.Type())
	if err != nil {
		return err
	}
	field.Set(v)
	return nil
}
