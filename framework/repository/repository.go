// Package repository binds data repositories into a Context and lets classes
// declare them as dependencies by name.
//
//	repository.Bind(ctx, "notes", repository.NewMemory[Note]("notes", setNoteID))
//	repository.Inject(noteControllerClass, 0, "notes")
package repository

import (
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/keys"
)

// Key returns the binding key of the repository called name.
func Key(name string) string { return keys.RepositoryPrefix + name }

// Bind binds repo under Key(name) as a singleton value.
func Bind(c *container.Context, name string, repo any) *container.Binding {
	return c.Bind(Key(name)).ToValue(repo).Tag("repository")
}

// Inject marks constructor parameter index of class as requiring the
// repository called name.
func Inject(class *container.Class, index int, name string) error {
	return container.InjectParam(class, index, Key(name))
}

// InjectProperty marks property field of class as requiring the repository
// called name.
func InjectProperty(class *container.Class, field, name string) error {
	return container.InjectProperty(class, field, Key(name))
}
