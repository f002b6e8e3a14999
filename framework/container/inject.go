package container

import (
	"context"
	"sync"

	"github.com/km-arc/go-inject/framework/metadata"
)

// Metadata keys under which injection descriptors are stored.
const (
	ParametersKey = "inject:parameters"
	PropertiesKey = "inject:properties"
)

// NoIndex marks a registration that targets a property rather than a parameter.
const NoIndex = -1

// ResolverFunc overrides the default key lookup for one injection point.
type ResolverFunc func(ctx context.Context, c *Context, inj Injection) (any, error)

// Injection describes what an injection point requires and how to resolve it.
type Injection struct {
	BindingKey string
	Metadata   map[string]any
	Resolve    ResolverFunc
	Optional   bool
}

// InjectOption customises an Injection at registration time.
type InjectOption func(*Injection)

// WithMetadata attaches metadata passed through to custom resolvers. Entries
// are merged into metadata set by earlier options.
func WithMetadata(m map[string]any) InjectOption {
	return func(inj *Injection) {
		merged := make(map[string]any, len(inj.Metadata)+len(m))
		for k, v := range inj.Metadata {
			merged[k] = v
		}
		for k, v := range m {
			merged[k] = v
		}
		inj.Metadata = merged
	}
}

// WithResolver replaces the default Get(BindingKey) lookup.
func WithResolver(fn ResolverFunc) InjectOption {
	return func(inj *Injection) { inj.Resolve = fn }
}

// Optional resolves to nil instead of failing when the key is bound nowhere
// in the chain. Errors from the binding itself still propagate. Combined with
// WithResolver, in either order, the resolver runs and a
// *BindingNotFoundError it returns for BindingKey yields nil.
func Optional() InjectOption {
	return func(inj *Injection) {
		inj.Optional = true
		WithMetadata(map[string]any{"optional": true})(inj)
	}
}

// ── Property descriptor map ──────────────────────────────────────────────────

// PropertyInjections maps property names to injections, remembering insertion
// order. Values stored in the metadata store are never mutated in place.
type PropertyInjections struct {
	names  []string
	byName map[string]*Injection
}

func newPropertyInjections() *PropertyInjections {
	return &PropertyInjections{byName: make(map[string]*Injection)}
}

// Names returns property names in insertion order.
func (p *PropertyInjections) Names() []string { return append([]string(nil), p.names...) }

// Get returns the injection recorded for name.
func (p *PropertyInjections) Get(name string) (*Injection, bool) {
	inj, ok := p.byName[name]
	return inj, ok
}

// Len returns the number of properties.
func (p *PropertyInjections) Len() int { return len(p.names) }

func (p *PropertyInjections) clone() *PropertyInjections {
	out := &PropertyInjections{
		names:  append([]string(nil), p.names...),
		byName: make(map[string]*Injection, len(p.byName)),
	}
	for k, v := range p.byName {
		out.byName[k] = v
	}
	return out
}

func (p *PropertyInjections) set(name string, inj *Injection) {
	if _, ok := p.byName[name]; !ok {
		p.names = append(p.names, name)
	}
	p.byName[name] = inj
}

// ── Registrar ────────────────────────────────────────────────────────────────

// Registrar records injection descriptors into a metadata store.
type Registrar struct {
	mu    sync.Mutex
	store *metadata.Store
}

// NewRegistrar creates a registrar writing to store.
func NewRegistrar(store *metadata.Store) *Registrar {
	return &Registrar{store: store}
}

// DefaultRegistrar writes to metadata.Default.
var DefaultRegistrar = NewRegistrar(metadata.Default)

// Store returns the underlying metadata store.
func (r *Registrar) Store() *metadata.Store { return r.store }

// RegisterInjection marks a parameter (index >= 0) or a property
// (index == NoIndex, member != "") of target as requiring key. For parameters
// an empty member denotes the constructor.
func (r *Registrar) RegisterInjection(target Target, member string, index int, key string, opts ...InjectOption) error {
	if target.Class == nil {
		return ErrInvalidInjectionTarget
	}
	inj := &Injection{BindingKey: key}
	for _, opt := range opts {
		opt(inj)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case index >= 0:
		var args []*Injection
		if v, ok := r.store.GetOwnMetadata(ParametersKey, target, member); ok {
			args = v.([]*Injection)
		}
		next := make([]*Injection, max(len(args), index+1))
		copy(next, args)
		next[index] = inj
		r.store.DefineMetadata(ParametersKey, next, target, member)
		return nil

	case index == NoIndex && member != "":
		if target.Static {
			return &StaticInjectionError{Class: target.Class.Name(), Property: member}
		}
		props := newPropertyInjections()
		if v, ok := r.store.GetOwnMetadata(PropertiesKey, target, ""); ok {
			props = v.(*PropertyInjections).clone()
		}
		props.set(member, inj)
		r.store.DefineMetadata(PropertiesKey, props, target, "")
		return nil
	}
	return ErrInvalidInjectionTarget
}

// InjectParam marks constructor parameter index of class as requiring key.
func (r *Registrar) InjectParam(class *Class, index int, key string, opts ...InjectOption) error {
	if index < 0 {
		return ErrInvalidInjectionTarget
	}
	return r.RegisterInjection(class.Static(), "", index, key, opts...)
}

// InjectMethodParam marks parameter index of an instance method as requiring key.
func (r *Registrar) InjectMethodParam(class *Class, method string, index int, key string, opts ...InjectOption) error {
	if index < 0 || method == "" {
		return ErrInvalidInjectionTarget
	}
	return r.RegisterInjection(class.Instance(), method, index, key, opts...)
}

// InjectProperty marks instance property name of class as requiring key.
func (r *Registrar) InjectProperty(class *Class, name string, key string, opts ...InjectOption) error {
	return r.RegisterInjection(class.Instance(), name, NoIndex, key, opts...)
}

// DescribeInjectedArguments returns the parameter descriptors of member on
// target. Slots without a descriptor are nil. No inheritance is applied.
func (r *Registrar) DescribeInjectedArguments(target Target, member string) []*Injection {
	v, ok := r.store.GetMetadata(ParametersKey, target, member)
	if !ok {
		return []*Injection{}
	}
	return append([]*Injection(nil), v.([]*Injection)...)
}

// DescribeInjectedProperties merges the property descriptors of class and all
// of its bases. A name found on a more derived class is never overwritten by
// an ancestor.
func (r *Registrar) DescribeInjectedProperties(class *Class) *PropertyInjections {
	merged := newPropertyInjections()
	seen := make(map[*Class]bool)
	var walk func(c *Class)
	walk = func(c *Class) {
		if c == nil || seen[c] {
			return
		}
		seen[c] = true
		if v, ok := r.store.GetOwnMetadata(PropertiesKey, c.Instance(), ""); ok {
			own := v.(*PropertyInjections)
			for _, name := range own.names {
				if _, exists := merged.byName[name]; !exists {
					merged.set(name, own.byName[name])
				}
			}
		}
		for _, base := range c.bases {
			walk(base)
		}
	}
	walk(class)
	return merged
}

// ── package-level helpers on DefaultRegistrar ────────────────────────────────

// RegisterInjection records an injection on DefaultRegistrar.
func RegisterInjection(target Target, member string, index int, key string, opts ...InjectOption) error {
	return DefaultRegistrar.RegisterInjection(target, member, index, key, opts...)
}

// InjectParam records a constructor parameter injection on DefaultRegistrar.
func InjectParam(class *Class, index int, key string, opts ...InjectOption) error {
	return DefaultRegistrar.InjectParam(class, index, key, opts...)
}

// InjectMethodParam records a method parameter injection on DefaultRegistrar.
func InjectMethodParam(class *Class, method string, index int, key string, opts ...InjectOption) error {
	return DefaultRegistrar.InjectMethodParam(class, method, index, key, opts...)
}

// InjectProperty records a property injection on DefaultRegistrar.
func InjectProperty(class *Class, name string, key string, opts ...InjectOption) error {
	return DefaultRegistrar.InjectProperty(class, name, key, opts...)
}

// DescribeInjectedArguments reads from DefaultRegistrar.
func DescribeInjectedArguments(target Target, member string) []*Injection {
	return DefaultRegistrar.DescribeInjectedArguments(target, member)
}

// DescribeInjectedProperties reads from DefaultRegistrar.
func DescribeInjectedProperties(class *Class) *PropertyInjections {
	return DefaultRegistrar.DescribeInjectedProperties(class)
}
