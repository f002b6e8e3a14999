package container

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// BindingKind selects how a Binding produces its value.
type BindingKind int

const (
	KindUnset BindingKind = iota
	KindValue
	KindClass
	KindProvider
	KindDynamic
)

func (k BindingKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindClass:
		return "class"
	case KindProvider:
		return "provider"
	case KindDynamic:
		return "dynamic"
	}
	return "unset"
}

// Scope is the caching policy of a Binding.
type Scope int

const (
	// Transient bindings are re-resolved on every lookup.
	Transient Scope = iota
	// Singleton bindings are resolved once per owning Context.
	Singleton
)

func (s Scope) String() string {
	if s == Singleton {
		return "singleton"
	}
	return "transient"
}

// DynamicFunc produces a value on every resolution of a KindDynamic binding.
type DynamicFunc func(ctx context.Context, c *Context) (any, error)

// Binding is a named resolution rule inside a Context. It is a mutable
// builder until first resolved; to change a resolved binding, bind the key again.
type Binding struct {
	key string

	mu       sync.Mutex
	kind     BindingKind
	scope    Scope
	value    any
	class    *Class
	dynamic  DynamicFunc
	tags     map[string]struct{}
	resolved bool
	cache    *Future
}

func newBinding(key string) *Binding {
	return &Binding{key: key, tags: make(map[string]struct{})}
}

// Key returns the binding key.
func (b *Binding) Key() string { return b.key }

// Kind returns the value source kind.
func (b *Binding) Kind() BindingKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kind
}

// Scope returns the caching scope.
func (b *Binding) Scope() Scope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scope
}

// ToValue binds a fixed instance.
//
//	ctx.Bind("application.name").ToValue("SequenceApp")
func (b *Binding) ToValue(v any) *Binding {
	return b.retarget(KindValue, func() { b.value = v })
}

// ToClass binds a class instantiated with injected dependencies.
func (b *Binding) ToClass(class *Class) *Binding {
	return b.retarget(KindClass, func() { b.class = class })
}

// ToProvider binds a class implementing Provider. The provider is
// instantiated with injected dependencies and its Value becomes the bound value.
func (b *Binding) ToProvider(class *Class) *Binding {
	return b.retarget(KindProvider, func() { b.class = class })
}

// ToDynamic binds a factory function called on every resolution.
func (b *Binding) ToDynamic(fn DynamicFunc) *Binding {
	return b.retarget(KindDynamic, func() { b.dynamic = fn })
}

// InScope sets the caching scope.
func (b *Binding) InScope(scope Scope) *Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeUnresolved()
	b.scope = scope
	return b
}

// Tag adds tags used by Context.FindByTag.
func (b *Binding) Tag(tags ...string) *Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range tags {
		b.tags[t] = struct{}{}
	}
	return b
}

// HasTag reports whether the binding carries tag.
func (b *Binding) HasTag(tag string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tags[tag]
	return ok
}

// Tags returns the sorted tags.
func (b *Binding) Tags() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.tags))
	for t := range b.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (b *Binding) String() string {
	return fmt.Sprintf("Binding(%s, %s, %s)", b.key, b.Kind(), b.Scope())
}

func (b *Binding) retarget(kind BindingKind, set func()) *Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeUnresolved()
	b.kind = kind
	b.value, b.class, b.dynamic = nil, nil, nil
	b.cache = nil
	set()
	return b
}

// must hold b.mu
func (b *Binding) mustBeUnresolved() {
	if b.resolved {
		panic(fmt.Sprintf("container: binding [%s] has already been resolved; bind the key again instead", b.key))
	}
}

type bindingSource struct {
	kind    BindingKind
	scope   Scope
	value   any
	class   *Class
	dynamic DynamicFunc
}

// snapshot freezes the builder and returns what it resolves from.
func (b *Binding) snapshot() bindingSource {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolved = true
	return bindingSource{kind: b.kind, scope: b.scope, value: b.value, class: b.class, dynamic: b.dynamic}
}

// singleton returns the cached Future, creating it when absent. owner is true
// for the caller that must compute and settle it.
func (b *Binding) singleton() (f *Future, owner bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cache != nil {
		return b.cache, false
	}
	b.cache = newFuture()
	return b.cache, true
}

func (b *Binding) evict(f *Future) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cache == f {
		b.cache = nil
	}
}
