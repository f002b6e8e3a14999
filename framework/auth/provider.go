package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/keys"
)

var validate = validator.New()

// Metadata names the strategy a route is protected by.
type Metadata struct {
	Strategy string         `validate:"required"`
	Options  map[string]any `validate:"-"`
}

// MetadataSource is implemented by whatever the host binds at keys.Route.
type MetadataSource interface {
	AuthenticationMetadata() (*Metadata, bool)
}

// Strategies maps strategy names to strategies.
type Strategies map[string]Strategy

// AuthenticateFunc authenticates a request. A nil profile with a nil error
// means the route requires no authentication.
type AuthenticateFunc func(ctx context.Context, r *http.Request) (*UserProfile, error)

// ── Providers ────────────────────────────────────────────────────────────────

// MetadataProvider yields the current route's *Metadata, or nil.
type MetadataProvider struct {
	Route MetadataSource
}

// Value implements container.Provider.
func (p *MetadataProvider) Value(context.Context) (any, error) {
	if p.Route == nil {
		return (*Metadata)(nil), nil
	}
	md, ok := p.Route.AuthenticationMetadata()
	if !ok || md == nil {
		return (*Metadata)(nil), nil
	}
	if err := validate.Struct(md); err != nil {
		return nil, fmt.Errorf("auth: invalid route metadata: %w", err)
	}
	return md, nil
}

// StrategyProvider picks the strategy named by the route metadata.
type StrategyProvider struct {
	Metadata   *Metadata
	Strategies Strategies
}

// Value implements container.Provider. It yields nil when the route names no
// strategy.
func (p *StrategyProvider) Value(context.Context) (any, error) {
	if p.Metadata == nil {
		return nil, nil
	}
	s, ok := p.Strategies[p.Metadata.Strategy]
	if !ok {
		return nil, fmt.Errorf("auth: configured strategy %q is not available", p.Metadata.Strategy)
	}
	return s, nil
}

// AuthenticationProvider yields an AuthenticateFunc wrapping the current
// strategy in a StrategyAdapter.
type AuthenticationProvider struct {
	Strategy Strategy
}

// Value implements container.Provider.
func (p *AuthenticationProvider) Value(context.Context) (any, error) {
	strategy := p.Strategy
	return AuthenticateFunc(func(ctx context.Context, r *http.Request) (*UserProfile, error) {
		if strategy == nil {
			return nil, nil
		}
		user, err := NewStrategyAdapter(strategy).Authenticate(ctx, r)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("auth: strategy reported success without a user")
		}
		if err := validate.Struct(user); err != nil {
			return nil, fmt.Errorf("auth: invalid user profile: %w", err)
		}
		return user, nil
	}), nil
}

// ── Classes ──────────────────────────────────────────────────────────────────

var (
	MetadataProviderClass = container.MustClass("auth.MetadataProvider",
		func() *MetadataProvider { return &MetadataProvider{} })
	StrategyProviderClass = container.MustClass("auth.StrategyProvider",
		func() *StrategyProvider { return &StrategyProvider{} })
	AuthenticationProviderClass = container.MustClass("auth.AuthenticationProvider",
		func() *AuthenticationProvider { return &AuthenticationProvider{} })
)

func init() {
	must(container.InjectProperty(MetadataProviderClass, "Route", keys.Route, container.Optional()))
	must(container.InjectProperty(StrategyProviderClass, "Metadata", keys.AuthMetadata))
	must(container.InjectProperty(StrategyProviderClass, "Strategies", keys.AuthStrategies, container.Optional()))
	must(container.InjectProperty(AuthenticationProviderClass, "Strategy", keys.AuthStrategy))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ── Component ────────────────────────────────────────────────────────────────

// Component binds the authentication providers into a Context.
//
// Bound keys:
//   - keys.AuthMetadata   → *Metadata (per route)
//   - keys.AuthStrategy   → Strategy (per route)
//   - keys.AuthProvider   → AuthenticateFunc
//   - keys.AuthStrategies → Strategies (when set)
type Component struct {
	Strategies Strategies
}

// Register implements app.Component.
func (c *Component) Register(ctx *container.Context) error {
	ctx.Bind(keys.AuthMetadata).ToProvider(MetadataProviderClass)
	ctx.Bind(keys.AuthStrategy).ToProvider(StrategyProviderClass)
	ctx.Bind(keys.AuthProvider).ToProvider(AuthenticationProviderClass)
	if c.Strategies != nil {
		ctx.Bind(keys.AuthStrategies).ToValue(c.Strategies)
	}
	return nil
}

// Boot implements app.Component.
func (c *Component) Boot(context.Context, *container.Context) error { return nil }
