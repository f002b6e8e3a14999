package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("repository: entity not found")

// NotFoundError reports a missing id.
type NotFoundError struct {
	Repository string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("repository: %s %q not found", e.Repository, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Memory is an in-process CRUD repository. Stored entities are deep copies:
// mutating a value passed in or returned never changes the stored one.
type Memory[T any] struct {
	name  string
	setID func(*T, string)

	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewMemory creates an empty repository. setID stores the generated id on
// a new entity.
func NewMemory[T any](name string, setID func(*T, string)) *Memory[T] {
	return &Memory[T]{name: name, setID: setID, items: make(map[string]T)}
}

// Name returns the repository name.
func (m *Memory[T]) Name() string { return m.name }

// Create stores a copy of v under a new id and returns it.
func (m *Memory[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	id := uuid.NewString()
	m.setID(&v, id)
	stored, err := clone(v)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	m.items[id] = stored
	m.order = append(m.order, id)
	m.mu.Unlock()
	return clone(stored)
}

// FindByID returns the entity stored under id.
func (m *Memory[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	m.mu.RLock()
	v, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return zero, &NotFoundError{Repository: m.name, ID: id}
	}
	return clone(v)
}

// Find returns the entities accepted by filter in creation order. A nil
// filter accepts everything.
func (m *Memory[T]) Find(ctx context.Context, filter func(T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		v := m.items[id]
		if filter != nil && !filter(v) {
			continue
		}
		c, err := clone(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Update replaces the entity stored under id.
func (m *Memory[T]) Update(ctx context.Context, id string, v T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	m.setID(&v, id)
	stored, err := clone(v)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return zero, &NotFoundError{Repository: m.name, ID: id}
	}
	m.items[id] = stored
	return clone(stored)
}

// Delete removes the entity stored under id.
func (m *Memory[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return &NotFoundError{Repository: m.name, ID: id}
	}
	delete(m.items, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Count returns the number of stored entities.
func (m *Memory[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

func clone[T any](v T) (T, error) {
	var out T
	if err := copier.CopyWithOption(&out, &v, copier.Option{DeepCopy: true}); err != nil {
		return out, fmt.Errorf("repository: copying entity: %w", err)
	}
	return out, nil
}
