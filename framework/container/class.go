package container

import (
	"fmt"
	"reflect"
)

// Constructor builds an instance from positional arguments. len(args) always
// equals the Arity of the Class it belongs to.
type Constructor func(args []any) (any, error)

// Class describes something the container can instantiate. Go has no runtime
// constructor annotations, so a Class is declared explicitly: a stable name,
// a positional constructor, and the list of base classes whose property
// injections it inherits (most-derived first).
type Class struct {
	name  string
	arity int
	ctor  Constructor
	bases []*Class
}

// Target is a metadata owner: either the instance surface of a class (where
// property and method injections live) or its static surface (where the
// constructor's parameter injections live).
type Target struct {
	Class  *Class
	Static bool
}

func (t Target) String() string {
	if t.Class == nil {
		return "<nil>"
	}
	if t.Static {
		return t.Class.name
	}
	return t.Class.name + ".prototype"
}

// NewClass declares a class with an explicit constructor.
//
//	greeter := container.NewClass("Greeter", 1, func(args []any) (any, error) {
//	    msg, _ := args[0].(string)
//	    return &Greeter{Message: msg}, nil
//	})
func NewClass(name string, arity int, ctor Constructor, bases ...*Class) *Class {
	if arity < 0 {
		panic(fmt.Sprintf("container: class [%s] has negative arity", name))
	}
	if ctor == nil {
		panic(fmt.Sprintf("container: class [%s] has no constructor", name))
	}
	return &Class{name: name, arity: arity, ctor: ctor, bases: bases}
}

// ClassFromFunc declares a class from an ordinary Go constructor function,
// e.g. func(msg string, repo Repo) *Greeter or func(...) (*Greeter, error).
// Arguments are converted to the declared parameter types; nil becomes the
// zero value.
func ClassFromFunc(name string, fn any, bases ...*Class) (*Class, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("container: constructor for [%s] must be a function, got %s", name, ft)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("container: constructor for [%s] must not be variadic", name)
	}
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("container: constructor for [%s] must return (<type>[, error])", name)
	}
	ctor := func(args []any) (any, error) {
		in, err := convertArgs(ft, args)
		if err != nil {
			return nil, fmt.Errorf("container: constructing [%s]: %w", name, err)
		}
		return unpackResults(fv.Call(in))
	}
	return &Class{name: name, arity: ft.NumIn(), ctor: ctor, bases: bases}, nil
}

// MustClass is like ClassFromFunc but panics on error.
func MustClass(name string, fn any, bases ...*Class) *Class {
	c, err := ClassFromFunc(name, fn, bases...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the class's stable identifier.
func (c *Class) Name() string { return c.name }

// Arity returns the number of constructor parameters.
func (c *Class) Arity() int { return c.arity }

// Bases returns the declared base classes, most-derived first.
func (c *Class) Bases() []*Class { return append([]*Class(nil), c.bases...) }

// Instance returns the instance metadata target.
func (c *Class) Instance() Target { return Target{Class: c} }

// Static returns the static (constructor) metadata target.
func (c *Class) Static() Target { return Target{Class: c, Static: true} }

func (c *Class) String() string { return c.name }

// New calls the constructor directly, bypassing the container.
func (c *Class) New(args ...any) (any, error) {
	if len(args) != c.arity {
		return nil, fmt.Errorf("container: class [%s] expects %d arguments, got %d", c.name, c.arity, len(args))
	}
	return c.ctor(args)
}

// ── reflect helpers ──────────────────────────────────────────────────────────

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func convertArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	in := make([]reflect.Value, ft.NumIn())
	for i := range in {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		v, err := valueFor(arg, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

// valueFor converts v to a reflect.Value assignable to t.
func valueFor(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind():
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", rv.Type(), t)
}

func unpackResults(out []reflect.Value) (any, error) {
	if len(out) == 2 && out[1].Type() == errorType && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}
