package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/danpasecinic/stitch/internal/convert"
	"github.com/danpasecinic/stitch/internal/scope"
)

// Resolve produces the value requested through e.
func (c *Container) Resolve(ctx context.Context, e *Edge) (reflect.Value, error) {
	start := time.Now()
	v, _, err := c.value(ctx, e)
	for _, hook := range c.onResolve {
		hook(e.Key(), time.Since(start), err)
	}
	return v, err
}

// value resolves e. The returned allocation is non-nil when the value still
// holds an ownership claim that must be given back if the dependent is never
// built.
func (c *Container) value(ctx context.Context, e *Edge) (reflect.Value, *convert.Allocation, error) {
	if e.desc.Lazy {
		inner := *e
		inner.desc = e.target
		v := e.desc.Defer(func(ctx context.Context) (reflect.Value, error) {
			return c.Resolve(ctx, &inner)
		})
		return e.desc.Annotate(e.name, v), nil, nil
	}

	if e.node == nil {
		return e.desc.Annotate(e.name, reflect.Zero(e.target.Type)), nil, nil
	}

	a, err := c.instantiate(ctx, e.node)
	if err != nil {
		return reflect.Value{}, nil, err
	}

	v, err := convert.Convert(e.target, a)
	if err != nil {
		if a.Mode == convert.Transfer {
			a.Release()
		}
		return reflect.Value{}, nil, newError(e.Key(), nil, fmt.Errorf("%w: %w", ErrScopeMismatch, err))
	}

	var claim *convert.Allocation
	switch e.target.Form {
	case convert.FormOwned, convert.FormCounted, convert.FormCountedRef:
		if a.Mode != convert.Borrow {
			claim = a
		}
	}
	return e.desc.Annotate(e.name, v), claim, nil
}

func (c *Container) instantiate(ctx context.Context, n *node) (*convert.Allocation, error) {
	if c.closed() || n.home.closed() {
		return nil, newError(n.key.String(), nil, ErrClosed)
	}

	if n.forward != nil {
		a, err := c.instantiate(ctx, n.forward)
		if err != nil {
			return nil, err
		}
		return a.Retype(n.key.Type), nil
	}

	switch n.scope {
	case scope.External:
		return convert.NewBorrow(n.prov.external), nil

	case scope.Shared:
		if building(ctx, n.slot) {
			return nil, newError(n.key.String(), nil, fmt.Errorf("%w: %s requested while it is being built", ErrCycle, n.key))
		}
		return n.slot.get(func() (*convert.Allocation, error) {
			return n.home.construct(withBuilding(ctx, n.slot), n, true)
		})

	case scope.Session:
		token, ok := scope.SessionFrom(ctx)
		if !ok {
			return nil, newError(n.key.String(), nil, ErrSessionRequired)
		}
		s, err := n.home.session(token)
		if err != nil {
			return nil, newError(n.key.String(), nil, err)
		}
		sl := s.slot(n.slot)
		if building(ctx, sl) {
			return nil, newError(n.key.String(), nil, fmt.Errorf("%w: %s requested while it is being built", ErrCycle, n.key))
		}
		return sl.get(func() (*convert.Allocation, error) {
			return n.home.construct(withBuilding(ctx, sl), n, true)
		})

	default:
		return c.construct(ctx, n, false)
	}
}

func (c *Container) construct(ctx context.Context, n *node, counted bool) (*convert.Allocation, error) {
	values := make([]reflect.Value, len(n.edges))
	var claims []*convert.Allocation
	defer func() {
		for i := len(claims) - 1; i >= 0; i-- {
			claims[i].Release()
		}
	}()
	for i, e := range n.edges {
		v, claim, err := c.value(ctx, e)
		if err != nil {
			return nil, err
		}
		if claim != nil {
			claims = append(claims, claim)
		}
		values[i] = v
	}

	start := time.Now()
	out, err := n.prov.call(ctx, values)
	elapsed := time.Since(start)
	for _, hook := range c.onProvide {
		hook(n.key.String(), elapsed, err)
	}
	if err != nil {
		c.logger.Error("provider failed", "key", n.key.String(), "error", err)
		if errors.Is(err, ErrCycle) {
			return nil, err
		}
		return nil, newError(n.key.String(), nil, fmt.Errorf("%w: %w", ErrProvider, err))
	}

	claims = nil

	cell := reflect.New(n.key.Type)
	cell.Elem().Set(out)
	settle := c.settler(n, out)

	c.logger.Debug("constructed instance", "key", n.key.String(), "scope", n.scope.String(), "duration", elapsed)
	if counted {
		return convert.NewRefcount(cell, settle), nil
	}
	return convert.NewTransfer(cell, settle), nil
}

func (c *Container) settler(n *node, v reflect.Value) func(convert.Settlement) {
	return func(s convert.Settlement) {
		if s != convert.Disposed {
			return
		}
		err := dispose(v)
		if err != nil {
			c.logger.Warn("dispose failed", "key", n.key.String(), "error", err)
			c.disposeMu.Lock()
			c.disposeErrs = append(c.disposeErrs, newError(n.key.String(), nil, err))
			c.disposeMu.Unlock()
		}
		for _, hook := range c.onDispose {
			hook(n.key.String(), err)
		}
	}
}

func dispose(v reflect.Value) error {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice:
		if v.IsNil() {
			return nil
		}
	}
	if closer, ok := v.Interface().(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
