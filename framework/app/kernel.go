// Package app wires the container, components and HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/keys"
	"github.com/km-arc/go-inject/framework/routing"
)

// Application owns the root Context, the component registry and the route
// table.
type Application struct {
	ctx        *container.Context
	Components *Registry
	Routes     *routing.Table

	cfg    *config.Config
	logger *zap.Logger
}

// New creates an application and registers the framework components:
// configuration, metrics and routing.
func New(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	root := container.New(
		container.WithName(cfg.App.Name),
		container.WithLogger(logger),
		container.WithStrict(cfg.Container.Strict),
	)
	a := &Application{
		ctx:        root,
		Components: NewRegistry(root),
		Routes:     routing.NewTable(),
		cfg:        cfg,
		logger:     logger,
	}

	for _, comp := range []Component{
		&ConfigComponent{Config: cfg, Logger: logger},
		&MetricsComponent{Namespace: cfg.App.Name},
		&RoutingComponent{Table: a.Routes},
	} {
		if err := a.Components.Register(comp); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Context returns the application Context.
func (a *Application) Context() *container.Context { return a.ctx }

// Register adds a component.
func (a *Application) Register(comp Component) error {
	return a.Components.Register(comp)
}

// Boot boots every registered component.
func (a *Application) Boot(ctx context.Context) error {
	return a.Components.Boot(ctx)
}

// Route adds a controller route.
func (a *Application) Route(rt routing.Route) error {
	return a.Routes.Add(rt)
}

// Config returns the application configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger { return a.logger }

// Handler boots the application if needed and returns the router bound at
// keys.Router.
func (a *Application) Handler(ctx context.Context) (http.Handler, error) {
	if !a.Components.Booted() {
		if err := a.Boot(ctx); err != nil {
			return nil, err
		}
	}
	router, err := container.Resolve[*routing.Router](ctx, a.ctx, keys.Router)
	if err != nil {
		return nil, fmt.Errorf("app: resolving router: %w", err)
	}
	return router, nil
}

// Run serves HTTP on the configured port until ctx is cancelled, then shuts
// the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	handler, err := a.Handler(ctx)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + a.cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("server started",
			zap.String("addr", srv.Addr),
			zap.String("env", a.Environment()),
			zap.Int("routes", len(a.Routes.Routes())))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.cfg.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.cfg.IsProduction() }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.cfg.App.Debug }
func (a *Application) Version() string     { return "0.1.0" }
