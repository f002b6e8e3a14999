package container_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/metadata"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newRegistrar() *container.Registrar {
	return container.NewRegistrar(metadata.NewStore())
}

func newContext(r *container.Registrar, opts ...container.Option) *container.Context {
	return container.New(append([]container.Option{container.WithRegistrar(r)}, opts...)...)
}

type pair struct {
	A, B any
}

func pairClass(name string, bases ...*container.Class) *container.Class {
	return container.NewClass(name, 2, func(args []any) (any, error) {
		return &pair{A: args[0], B: args[1]}, nil
	}, bases...)
}

// ── parameters ───────────────────────────────────────────────────────────────

func TestRegistrar_ParameterSlots(t *testing.T) {
	r := newRegistrar()
	cls := pairClass("Pair")

	require.NoError(t, r.InjectParam(cls, 1, "b"))

	args := r.DescribeInjectedArguments(cls.Static(), "")
	require.Len(t, args, 2)
	assert.Nil(t, args[0], "slot 0 is unmanaged")
	assert.Equal(t, "b", args[1].BindingKey)
}

func TestRegistrar_ReRegistrationOverwritesOnlyThatSlot(t *testing.T) {
	r := newRegistrar()
	cls := pairClass("Pair")

	require.NoError(t, r.InjectParam(cls, 0, "a"))
	require.NoError(t, r.InjectParam(cls, 1, "b"))
	require.NoError(t, r.InjectParam(cls, 1, "b2"))

	args := r.DescribeInjectedArguments(cls.Static(), "")
	assert.Equal(t, "a", args[0].BindingKey)
	assert.Equal(t, "b2", args[1].BindingKey)
}

func TestRegistrar_DescribeArgumentsEmptyWhenNone(t *testing.T) {
	r := newRegistrar()
	args := r.DescribeInjectedArguments(pairClass("Pair").Static(), "")
	assert.NotNil(t, args)
	assert.Empty(t, args)
}

func TestRegistrar_ArgumentsAreNotInherited(t *testing.T) {
	r := newRegistrar()
	base := pairClass("Base")
	derived := pairClass("Derived", base)
	require.NoError(t, r.InjectParam(base, 0, "a"))

	assert.Empty(t, r.DescribeInjectedArguments(derived.Static(), ""))
}

func TestRegistrar_MethodParameters(t *testing.T) {
	r := newRegistrar()
	cls := pairClass("Pair")
	require.NoError(t, r.InjectMethodParam(cls, "Run", 0, "x"))

	assert.Len(t, r.DescribeInjectedArguments(cls.Instance(), "Run"), 1)
	assert.Empty(t, r.DescribeInjectedArguments(cls.Static(), ""), "constructor slots are separate")
}

func TestRegistrar_MetadataAndResolverAreRecorded(t *testing.T) {
	r := newRegistrar()
	cls := pairClass("Pair")
	resolver := func(context.Context, *container.Context, container.Injection) (any, error) { return 1, nil }

	require.NoError(t, r.InjectParam(cls, 0, "a",
		container.WithMetadata(map[string]any{"optional": true}),
		container.WithResolver(resolver),
	))

	inj := r.DescribeInjectedArguments(cls.Static(), "")[0]
	assert.Equal(t, true, inj.Metadata["optional"])
	assert.NotNil(t, inj.Resolve)
}

// ── properties ───────────────────────────────────────────────────────────────

func TestRegistrar_PropertyInjection(t *testing.T) {
	r := newRegistrar()
	cls := pairClass("Pair")

	require.NoError(t, r.InjectProperty(cls, "A", "a"))
	require.NoError(t, r.InjectProperty(cls, "B", "b"))
	require.NoError(t, r.InjectProperty(cls, "A", "a2"))

	props := r.DescribeInjectedProperties(cls)
	assert.Equal(t, []string{"A", "B"}, props.Names())
	inj, ok := props.Get("A")
	require.True(t, ok)
	assert.Equal(t, "a2", inj.BindingKey)
}

func TestRegistrar_StaticPropertyIsRejected(t *testing.T) {
	r := newRegistrar()
	cls := pairClass("Pair")

	err := r.RegisterInjection(cls.Static(), "A", container.NoIndex, "a")

	var staticErr *container.StaticInjectionError
	require.ErrorAs(t, err, &staticErr)
	assert.Equal(t, "Pair", staticErr.Class)
	assert.True(t, errors.Is(err, container.ErrStaticInjectionUnsupported))
	assert.Equal(t, "container: injection is not supported for a static property: Pair.A", err.Error())
}

func TestRegistrar_InvalidTarget(t *testing.T) {
	r := newRegistrar()
	cls := pairClass("Pair")

	tests := []struct {
		name   string
		target container.Target
		member string
		index  int
	}{
		{"no member no index", cls.Instance(), "", container.NoIndex},
		{"negative index", cls.Instance(), "A", -2},
		{"nil class", container.Target{}, "A", container.NoIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.RegisterInjection(tt.target, tt.member, tt.index, "k")
			assert.ErrorIs(t, err, container.ErrInvalidInjectionTarget)
		})
	}
}

func TestRegistrar_DerivedPropertyWins(t *testing.T) {
	r := newRegistrar()
	root := pairClass("Root")
	base := pairClass("Base", root)
	derived := pairClass("Derived", base)

	require.NoError(t, r.InjectProperty(root, "A", "root.a"))
	require.NoError(t, r.InjectProperty(root, "C", "root.c"))
	require.NoError(t, r.InjectProperty(base, "A", "base.a"))
	require.NoError(t, r.InjectProperty(base, "B", "base.b"))
	require.NoError(t, r.InjectProperty(derived, "B", "derived.b"))

	props := r.DescribeInjectedProperties(derived)
	assert.Equal(t, []string{"B", "A", "C"}, props.Names())

	want := map[string]string{"A": "base.a", "B": "derived.b", "C": "root.c"}
	for name, key := range want {
		inj, ok := props.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, key, inj.BindingKey, name)
	}

	baseOnly := r.DescribeInjectedProperties(base)
	inj, _ := baseOnly.Get("B")
	assert.Equal(t, "base.b", inj.BindingKey, "ancestors never see derived entries")
}

func TestRegistrar_PackageHelpersUseDefaultStore(t *testing.T) {
	cls := pairClass("DefaultStorePair")
	require.NoError(t, container.InjectParam(cls, 0, "a"))
	require.NoError(t, container.InjectProperty(cls, "B", "b"))

	assert.Len(t, container.DescribeInjectedArguments(cls.Static(), ""), 1)
	assert.Equal(t, 1, container.DescribeInjectedProperties(cls).Len())
	assert.True(t, metadata.Default.HasOwnMetadata(container.PropertiesKey, cls.Instance(), ""))
}
