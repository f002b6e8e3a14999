package container

import "context"

// Provider produces a bound value indirectly. Providers are bound with
// Binding.ToProvider, so they may declare their own injected constructor
// parameters and properties. Value may block; that is the point where a
// resolution waits on asynchronous work.
//
//	type StrategyProvider struct{ Metadata *auth.Metadata }
//
//	func (p *StrategyProvider) Value(ctx context.Context) (any, error) {
//	    return auth.NewBasicStrategy(p.Metadata.Realm, verify), nil
//	}
type Provider interface {
	Value(ctx context.Context) (any, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (any, error)

// Value calls f.
func (f ProviderFunc) Value(ctx context.Context) (any, error) { return f(ctx) }

// PropertySetter lets an instance receive injected properties without
// exposing exported struct fields.
type PropertySetter interface {
	SetInjectedProperty(name string, value any) error
}
