package container

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// InvokeMethod calls method on instance, resolving the parameters registered
// with InjectMethodParam on class and filling the remaining slots from args.
// A leading context.Context parameter receives ctx and is not counted as a
// slot. The method may return (), (v), (error) or (v, error).
//
//	result, err := reqCtx.InvokeMethod(ctx, ctrl, controllerClass, "WhoAmI")
func (c *Context) InvokeMethod(ctx context.Context, instance any, class *Class, method string, args ...any) (any, error) {
	m := reflect.ValueOf(instance).MethodByName(method)
	if !m.IsValid() {
		return nil, fmt.Errorf("container: %T has no method %q", instance, method)
	}
	mt := m.Type()
	if mt.IsVariadic() {
		return nil, fmt.Errorf("container: method %s.%s must not be variadic", class.Name(), method)
	}

	offset := 0
	if mt.NumIn() > 0 && mt.In(0) == contextType {
		offset = 1
	}
	slots := mt.NumIn() - offset

	params := c.registrar.DescribeInjectedArguments(class.Instance(), method)
	if len(params) > slots {
		return nil, fmt.Errorf("container: method %s.%s has %d injected parameters but takes %d", class.Name(), method, len(params), slots)
	}
	if len(args) > slots {
		return nil, fmt.Errorf("container: method %s.%s takes %d arguments, got %d", class.Name(), method, slots, len(args))
	}

	argv := make([]any, slots)
	copy(argv, args)
	g, gctx := errgroup.WithContext(withSession(ctx))
	for i, inj := range params {
		if inj == nil {
			continue
		}
		g.Go(func() error {
			v, err := c.resolveInjection(gctx, *inj)
			argv[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in := make([]reflect.Value, mt.NumIn())
	if offset == 1 {
		in[0] = reflect.ValueOf(ctx)
	}
	for i, a := range argv {
		v, err := valueFor(a, mt.In(i+offset))
		if err != nil {
			return nil, fmt.Errorf("container: %s.%s argument %d: %w", class.Name(), method, i, err)
		}
		in[i+offset] = v
	}
	return methodResults(m.Call(in))
}

func methodResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, out[0].Interface().(error)
		}
		return out[0].Interface(), nil
	}
	return unpackResults(out)
}
