// Package container provides a hierarchical IoC (Inversion of Control)
// container that resolves values, classes and providers into fully
// constructed objects.
//
// # Overview
//
// A Context holds Bindings keyed by string. Lookups check the Context itself
// first, then each parent in turn. Because Go has no runtime constructor
// annotations, classes are declared explicitly (NewClass / ClassFromFunc) and
// their injection points are registered at startup with InjectParam,
// InjectProperty and InjectMethodParam.
//
// # Context Lifecycle
//
//  1. Create: app := container.New()
//  2. Declare classes and register injections (usually in init or a component)
//  3. Bind: app.Bind("greeting").ToValue("hi")
//  4. Per request: req := app.NewChild(); req.Bind("request").ToValue(r)
//  5. Resolve: req.Get(ctx, "controllers.Greeter")
//
// # Bindings
//
//	// Fixed value
//	app.Bind("application.name").ToValue("SequenceApp")
//
//	// Class: new instance every Get, dependencies injected
//	app.Bind("controllers.Greeter").ToClass(greeterClass)
//
//	// Singleton: resolved once per owning Context
//	app.Bind("services.clock").ToClass(clockClass).InScope(container.Singleton)
//
//	// Provider: a class whose Value() produces the bound value
//	app.Bind("authentication.strategy").ToProvider(strategyProviderClass)
//
//	// Dynamic: a plain factory called on every Get
//	app.Bind("now").ToDynamic(func(ctx context.Context, c *container.Context) (any, error) {
//	    return time.Now(), nil
//	})
//
// # Declaring injections
//
//	type Greeter struct{ Message string; Clock *Clock }
//
//	greeterClass := container.MustClass("Greeter", func(msg string) *Greeter {
//	    return &Greeter{Message: msg}
//	})
//	container.InjectParam(greeterClass, 0, "greeting")
//	container.InjectProperty(greeterClass, "Clock", "services.clock")
//
// Parameter slots without an injection are unmanaged: the caller supplies them
// through Instantiate. Property injections are inherited from base classes
// passed to NewClass / ClassFromFunc; the most derived declaration of a
// property wins.
//
// # Resolving
//
//	// Untyped, blocks until providers settle
//	v, err := app.Get(ctx, "controllers.Greeter")
//
//	// Generic
//	g, err := container.Resolve[*Greeter](ctx, app, "controllers.Greeter")
//
//	// Pending result
//	f := app.GetAsync(ctx, "authentication.strategy")
//	strategy, err := f.Await(ctx)
//
//	// Unbound class with caller-supplied unmanaged arguments
//	ctrl, err := req.Instantiate(ctx, controllerClass, id)
//
// Resolving a key that is already being resolved on the same call path fails
// with *CircularDependencyError. Errors from providers, custom resolvers and
// constructors are returned unchanged.
package container
