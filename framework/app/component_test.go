package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/km-arc/go-inject/framework/app"
	"github.com/km-arc/go-inject/framework/container"
)

// ── stub components ──────────────────────────────────────────────────────────

type eagerComponent struct {
	registerCalled int
	bootCalled     int
}

func (p *eagerComponent) Register(c *container.Context) error {
	p.registerCalled++
	c.Bind("eager-svc").ToValue("eager")
	return nil
}

func (p *eagerComponent) Boot(ctx context.Context, c *container.Context) error {
	p.bootCalled++
	return nil
}

// multiComponent registers multiple keys.
type multiComponent struct {
	app.BaseComponent
}

func (p *multiComponent) Register(c *container.Context) error {
	c.Bind("alpha").ToValue("α")
	c.Bind("beta").ToValue("β")
	return nil
}

type failingComponent struct {
	app.BaseComponent
	err error
}

func (p *failingComponent) Register(*container.Context) error { return p.err }

// bootResolver reads a key bound by another component during Boot.
type bootResolver struct {
	app.BaseComponent
	got any
}

func (p *bootResolver) Register(*container.Context) error { return nil }

func (p *bootResolver) Boot(ctx context.Context, c *container.Context) error {
	v, err := c.Get(ctx, "eager-svc")
	p.got = v
	return err
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_RegisterCalled(t *testing.T) {
	c := container.New()
	reg := app.NewRegistry(c)
	p := &eagerComponent{}
	if err := reg.Register(p); err != nil {
		t.Fatal(err)
	}

	if p.registerCalled != 1 {
		t.Errorf("Register() calls = %d, want 1", p.registerCalled)
	}
	if p.bootCalled != 0 {
		t.Error("Boot() should not be called before registry Boot()")
	}
	v, err := c.Get(context.Background(), "eager-svc")
	if err != nil || v != "eager" {
		t.Errorf("eager-svc = %v, %v", v, err)
	}
}

func TestRegistry_BootCalledAfterBoot(t *testing.T) {
	reg := app.NewRegistry(container.New())
	p := &eagerComponent{}
	_ = reg.Register(p)
	if err := reg.Boot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.bootCalled != 1 {
		t.Errorf("Boot() calls = %d, want 1", p.bootCalled)
	}
}

func TestRegistry_BootIsIdempotent(t *testing.T) {
	reg := app.NewRegistry(container.New())
	p := &eagerComponent{}
	_ = reg.Register(p)
	_ = reg.Boot(context.Background())
	_ = reg.Boot(context.Background())
	if p.bootCalled != 1 {
		t.Errorf("Boot() calls = %d, want 1", p.bootCalled)
	}
}

func TestRegistry_BootedFalseBeforeBoot(t *testing.T) {
	reg := app.NewRegistry(container.New())
	if reg.Booted() {
		t.Error("expected Booted() = false before Boot()")
	}
	_ = reg.Boot(context.Background())
	if !reg.Booted() {
		t.Error("expected Booted() = true after Boot()")
	}
}

func TestRegistry_DuplicateRegisterIgnored(t *testing.T) {
	reg := app.NewRegistry(container.New())
	p := &eagerComponent{}
	_ = reg.Register(p)
	_ = reg.Register(p)
	if p.registerCalled != 1 {
		t.Errorf("Register() calls = %d, want 1", p.registerCalled)
	}
	if n := len(reg.Components()); n != 1 {
		t.Errorf("Components() = %d, want 1", n)
	}
}

func TestRegistry_LateComponentBootsImmediately(t *testing.T) {
	reg := app.NewRegistry(container.New())
	_ = reg.Boot(context.Background())

	p := &eagerComponent{}
	if err := reg.Register(p); err != nil {
		t.Fatal(err)
	}
	if p.bootCalled != 1 {
		t.Errorf("late component Boot() calls = %d, want 1", p.bootCalled)
	}
}

func TestRegistry_MultipleKeys(t *testing.T) {
	c := container.New()
	_ = app.NewRegistry(c).Register(&multiComponent{})

	for key, want := range map[string]string{"alpha": "α", "beta": "β"} {
		got, err := c.Get(context.Background(), key)
		if err != nil || got != want {
			t.Errorf("%s = %v, %v; want %q", key, got, err, want)
		}
	}
}

func TestRegistry_RegisterErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	reg := app.NewRegistry(container.New())
	err := reg.Register(&failingComponent{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("Register() error = %v, want wrapping %v", err, boom)
	}
	if n := len(reg.Components()); n != 0 {
		t.Errorf("failed component should not be listed, got %d", n)
	}
}

func TestRegistry_BootSeesEveryRegistration(t *testing.T) {
	reg := app.NewRegistry(container.New())
	resolver := &bootResolver{}
	_ = reg.Register(resolver)
	_ = reg.Register(&eagerComponent{})

	if err := reg.Boot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if resolver.got != "eager" {
		t.Errorf("resolved during Boot = %v, want eager", resolver.got)
	}
}

func TestRegistry_StrictDuplicateBindingIsAnError(t *testing.T) {
	c := container.New(container.WithStrict(true))
	reg := app.NewRegistry(c)
	if err := reg.Register(&eagerComponent{}); err != nil {
		t.Fatal(err)
	}

	err := reg.Register(&eagerComponent{})
	if !errors.Is(err, container.ErrDuplicateBinding) {
		t.Fatalf("Register() error = %v, want %v", err, container.ErrDuplicateBinding)
	}
	var dup *container.DuplicateBindingError
	if !errors.As(err, &dup) || dup.Key != "eager-svc" {
		t.Errorf("duplicate key = %+v, want eager-svc", dup)
	}
	if n := len(reg.Components()); n != 1 {
		t.Errorf("Components() = %d, want 1", n)
	}
}

func TestRegistry_NonStrictRebindReplaces(t *testing.T) {
	c := container.New()
	reg := app.NewRegistry(c)
	if err := reg.Register(&eagerComponent{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&eagerComponent{}); err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}
}
