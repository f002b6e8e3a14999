package container

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every typed error below matches its sentinel.
var (
	ErrBindingNotFound            = errors.New("container: binding not found")
	ErrCircularDependency         = errors.New("container: circular dependency")
	ErrInvalidInjectionTarget     = errors.New("container: injection can only be used on properties or method parameters")
	ErrStaticInjectionUnsupported = errors.New("container: injection is not supported for static properties")
	ErrDuplicateBinding           = errors.New("container: duplicate binding")
	ErrUnconfiguredBinding        = errors.New("container: binding has no value source")
)

// BindingNotFoundError is returned when no Context in the chain has the key.
type BindingNotFoundError struct {
	Key     string
	Context string
}

func (e *BindingNotFoundError) Error() string {
	return fmt.Sprintf("container: no binding registered for [%s] in context %q or its parents", e.Key, e.Context)
}

func (e *BindingNotFoundError) Is(target error) bool { return target == ErrBindingNotFound }

// CircularDependencyError names the chain of keys that re-entered itself.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency detected: " + strings.Join(e.Path, " --> ")
}

func (e *CircularDependencyError) Is(target error) bool { return target == ErrCircularDependency }

// StaticInjectionError is returned when a property injection targets the
// static surface of a class.
type StaticInjectionError struct {
	Class    string
	Property string
}

func (e *StaticInjectionError) Error() string {
	return fmt.Sprintf("container: injection is not supported for a static property: %s.%s", e.Class, e.Property)
}

func (e *StaticInjectionError) Is(target error) bool { return target == ErrStaticInjectionUnsupported }

// DuplicateBindingError is returned by strict Contexts when a key is bound twice
// at the same level.
type DuplicateBindingError struct {
	Key     string
	Context string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("container: [%s] is already bound in context %q", e.Key, e.Context)
}

func (e *DuplicateBindingError) Is(target error) bool { return target == ErrDuplicateBinding }
