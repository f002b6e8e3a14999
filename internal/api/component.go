// Package api is the demo notes service: basic or bearer protected CRUD
// over an in-memory repository.
package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/app"
	"github.com/km-arc/go-inject/framework/auth"
	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/repository"
	"github.com/km-arc/go-inject/framework/routing"
)

// Strategy names.
const (
	BasicStrategy  = "basic"
	BearerStrategy = "bearer"
)

// Component binds the notes repository.
type Component struct {
	app.BaseComponent
	Notes *Notes
}

func (p *Component) Register(c *container.Context) error {
	if p.Notes == nil {
		p.Notes = NewNotes()
	}
	repository.Bind(c, "notes", p.Notes)
	return nil
}

// Strategies builds the authentication strategies for cfg. Basic verifies
// against users behind a circuit breaker. Bearer is enabled when a JWT
// secret is configured.
func Strategies(cfg *config.Config, users Directory, logger *zap.Logger) (auth.Strategies, error) {
	verify := auth.GuardVerify(users.Verify, auth.BreakerSettings{Name: "user-directory", Logger: logger})
	strategies := auth.Strategies{
		BasicStrategy: auth.NewBasicStrategy(cfg.Auth.Realm, verify),
	}
	if cfg.Auth.JWTSecret != "" {
		bearer, err := auth.NewBearerStrategy(cfg.Auth.Realm, []byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer)
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		strategies[BearerStrategy] = bearer
	}
	return strategies, nil
}

// Install registers the components and routes of the notes service on a.
// Notes are protected by bearer tokens when enabled, by basic otherwise.
func Install(a *app.Application, users Directory) error {
	strategies, err := Strategies(a.Config(), users, a.Logger())
	if err != nil {
		return err
	}
	if err := a.Register(&auth.Component{Strategies: strategies}); err != nil {
		return err
	}
	if err := a.Register(&Component{}); err != nil {
		return err
	}

	notesStrategy := BasicStrategy
	if _, ok := strategies[BearerStrategy]; ok {
		notesStrategy = BearerStrategy
	}
	for _, rt := range []routing.Route{
		{Method: http.MethodGet, Pattern: "/whoAmI", Controller: AccountControllerClass, Handler: "WhoAmI", Authenticate: notesStrategy},
		{Method: http.MethodPost, Pattern: "/token", Controller: AccountControllerClass, Handler: "Token", Authenticate: BasicStrategy},
	} {
		if err := a.Route(rt); err != nil {
			return err
		}
	}
	return a.Routes.Resource("/notes", NotesControllerClass, notesStrategy)
}
