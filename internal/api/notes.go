package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/km-arc/go-inject/framework/auth"
	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/keys"
	"github.com/km-arc/go-inject/framework/repository"
	"github.com/km-arc/go-inject/framework/rest"
)

// Note is owned by the user who created it.
type Note struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Owner string `json:"owner"`
}

// NoteInput is the request body of Store and Update.
type NoteInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=10000"`
}

// Notes is the notes repository.
type Notes = repository.Memory[Note]

// NewNotes returns an empty notes repository.
func NewNotes() *Notes {
	return repository.NewMemory[Note]("notes", func(n *Note, id string) { n.ID = id })
}

// NotesController serves /notes for the current user.
type NotesController struct {
	Notes *Notes
	User  *auth.UserProfile

	req *gohttp.Request
}

var NotesControllerClass = container.MustClass("api.NotesController", func(r *http.Request) *NotesController {
	return &NotesController{req: gohttp.NewRequest(r)}
})

func init() {
	must(container.InjectParam(NotesControllerClass, 0, keys.Request))
	must(repository.InjectProperty(NotesControllerClass, "Notes", "notes"))
	must(container.InjectProperty(NotesControllerClass, "User", keys.CurrentUser))
}

func (c *NotesController) Index(ctx context.Context) ([]Note, error) {
	notes, err := c.Notes.Find(ctx, func(n Note) bool { return n.Owner == c.User.ID })
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

func (c *NotesController) Store(ctx context.Context) (*rest.Result, error) {
	var in NoteInput
	if err := c.req.Bind(&in); err != nil {
		return nil, err
	}
	note, err := c.Notes.Create(ctx, Note{Title: in.Title, Body: in.Body, Owner: c.User.ID})
	if err != nil {
		return nil, err
	}
	return &rest.Result{Status: http.StatusCreated, Body: note}, nil
}

func (c *NotesController) Show(ctx context.Context) (Note, error) {
	return c.find(ctx)
}

func (c *NotesController) Update(ctx context.Context) (Note, error) {
	note, err := c.find(ctx)
	if err != nil {
		return Note{}, err
	}
	var in NoteInput
	if err := c.req.Bind(&in); err != nil {
		return Note{}, err
	}
	note.Title, note.Body = in.Title, in.Body
	note, err = c.Notes.Update(ctx, note.ID, note)
	return note, notFound(err)
}

func (c *NotesController) Destroy(ctx context.Context) error {
	note, err := c.find(ctx)
	if err != nil {
		return err
	}
	return notFound(c.Notes.Delete(ctx, note.ID))
}

// find loads the note named by the {id} route param. Notes of other users
// are reported as missing.
func (c *NotesController) find(ctx context.Context) (Note, error) {
	note, err := c.Notes.FindByID(ctx, c.req.RouteParam("id"))
	if err != nil {
		return Note{}, notFound(err)
	}
	if note.Owner != c.User.ID {
		return Note{}, notFound(repository.ErrNotFound)
	}
	return note, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return gohttp.NewError(http.StatusNotFound, "Note not found.")
	}
	return err
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
