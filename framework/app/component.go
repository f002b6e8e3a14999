package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/km-arc/go-inject/framework/container"
)

// Component contributes bindings to the application Context.
//
// Register is called as soon as the component is added. It must only bind;
// other components may not have registered yet. Boot is called once every
// component is registered and may resolve anything.
//
//	type NotesComponent struct{ app.BaseComponent }
//
//	func (NotesComponent) Register(c *container.Context) error {
//	    repository.Bind(c, "notes", repository.NewMemory[Note]("notes", setNoteID))
//	    return nil
//	}
type Component interface {
	Register(c *container.Context) error
	Boot(ctx context.Context, c *container.Context) error
}

// BaseComponent provides a no-op Boot.
type BaseComponent struct{}

func (BaseComponent) Boot(context.Context, *container.Context) error { return nil }

// Registry registers and boots components against one Context.
type Registry struct {
	ctx *container.Context

	mu         sync.Mutex
	components []Component
	registered map[Component]bool
	booted     bool
}

// NewRegistry creates a registry bound to c.
func NewRegistry(c *container.Context) *Registry {
	return &Registry{ctx: c, registered: make(map[Component]bool)}
}

// Register adds comp and calls its Register method. Adding the same
// component twice is a no-op. A component added after Boot is booted
// immediately. On a strict Context, binding a key that is already bound
// fails with *container.DuplicateBindingError.
func (r *Registry) Register(comp Component) error {
	r.mu.Lock()
	if r.registered[comp] {
		r.mu.Unlock()
		return nil
	}
	r.registered[comp] = true
	booted := r.booted
	r.mu.Unlock()

	if err := register(comp, r.ctx); err != nil {
		return fmt.Errorf("app: registering %T: %w", comp, err)
	}

	r.mu.Lock()
	r.components = append(r.components, comp)
	r.mu.Unlock()

	if booted {
		if err := comp.Boot(context.Background(), r.ctx); err != nil {
			return fmt.Errorf("app: booting %T: %w", comp, err)
		}
	}
	return nil
}

// register calls comp.Register. A strict Context panics when a key is bound
// twice; that panic comes back as the *container.DuplicateBindingError.
func register(comp Component, c *container.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			dup, ok := rec.(*container.DuplicateBindingError)
			if !ok {
				panic(rec)
			}
			err = dup
		}
	}()
	return comp.Register(c)
}

// Boot calls Boot on every registered component in registration order.
// Later calls are no-ops.
func (r *Registry) Boot(ctx context.Context) error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	components := append([]Component(nil), r.components...)
	r.mu.Unlock()

	for _, comp := range components {
		if err := comp.Boot(ctx, r.ctx); err != nil {
			return fmt.Errorf("app: booting %T: %w", comp, err)
		}
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *Registry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Components returns the registered components in registration order.
func (r *Registry) Components() []Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Component(nil), r.components...)
}
