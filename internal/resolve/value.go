// Package resolve provides Value, a string that is either known now or
// completes later.
//
// Macro handlers return a Value so the evaluator composes synchronous and
// deferred results with one code path. Only the caller at the very top needs
// to ask whether the final Value is deferred.
//
// Thread-safety: a Value is immutable once constructed and may be awaited
// from any number of goroutines.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Value is a string result that may still be pending.
//
// The zero Value is a resolved empty string.
type Value struct {
	s string
	p *promise
}

// promise carries the outcome of a deferred computation.
// done is closed exactly once, after s and err are written.
type promise struct {
	done chan struct{}
	s    string
	err  error
}

// Now returns an already-resolved Value.
func Now(s string) Value {
	return Value{s: s}
}

// Later runs fn in its own goroutine and returns a deferred Value that
// completes with fn's result.
//
// There is no cancellation: dropping the Value does not stop fn.
// A panic in fn completes the Value with an error.
func Later(fn func() (string, error)) Value {
	p := &promise{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer func() {
			if r := recover(); r != nil {
				p.s, p.err = "", fmt.Errorf("panic: %v", r)
			}
		}()
		p.s, p.err = fn()
	}()
	return Value{p: p}
}

// Deferred reports whether the Value was produced asynchronously.
// A deferred Value stays deferred after it completes.
func (v Value) Deferred() bool {
	return v.p != nil
}

// Peek returns the resolved string without blocking.
// ok is false while a deferred Value is still pending.
func (v Value) Peek() (s string, ok bool) {
	if v.p == nil {
		return v.s, true
	}
	select {
	case <-v.p.done:
		return v.p.s, v.p.err == nil
	default:
		return "", false
	}
}

// Await blocks until the Value completes or ctx is done.
//
// The returned error is either ctx.Err() or the error produced by the
// deferred computation.
func (v Value) Await(ctx context.Context) (string, error) {
	if v.p == nil {
		return v.s, nil
	}
	select {
	case <-v.p.done:
		return v.p.s, v.p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Map applies fn to the resolved string. A deferred Value stays deferred;
// errors pass through untouched.
func (v Value) Map(fn func(string) string) Value {
	if v.p == nil {
		return Now(fn(v.s))
	}
	return Later(func() (string, error) {
		s, err := v.Await(context.Background())
		if err != nil {
			return "", err
		}
		return fn(s), nil
	})
}

// Recover converts a failed deferred Value into a successful one using fn.
// Resolved values are returned unchanged.
func (v Value) Recover(fn func(error) string) Value {
	if v.p == nil {
		return v
	}
	return Later(func() (string, error) {
		s, err := v.Await(context.Background())
		if err != nil {
			return fn(err), nil
		}
		return s, nil
	})
}

// AnyDeferred reports whether at least one of vs is deferred.
func AnyDeferred(vs []Value) bool {
	for _, v := range vs {
		if v.p != nil {
			return true
		}
	}
	return false
}

// All resolves every value and returns the strings in input order.
//
// Deferred values are awaited concurrently; the slice positions never depend
// on completion order. The first error wins.
func All(ctx context.Context, vs []Value) ([]string, error) {
	out := make([]string, len(vs))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range vs {
		if v.p == nil {
			out[i] = v.s
			continue
		}
		i, v := i, v
		g.Go(func() error {
			s, err := v.Await(gctx)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Join concatenates vs positionally.
// The result is deferred if and only if any input is deferred.
func Join(vs []Value) Value {
	return Combine(vs, func(parts []string) string {
		return strings.Join(parts, "")
	})
}

// Combine resolves vs and passes the strings to fn in input order.
// The result is deferred if and only if any input is deferred.
func Combine(vs []Value, fn func([]string) string) Value {
	if !AnyDeferred(vs) {
		parts := make([]string, len(vs))
		for i, v := range vs {
			parts[i] = v.s
		}
		return Now(fn(parts))
	}
	return Later(func() (string, error) {
		parts, err := All(context.Background(), vs)
		if err != nil {
			return "", err
		}
		return fn(parts), nil
	})
}

// Bind resolves vs and hands the strings to fn, which produces the next
// Value. Used when the continuation is itself possibly deferred.
func Bind(vs []Value, fn func([]string) Value) Value {
	if !AnyDeferred(vs) {
		parts := make([]string, len(vs))
		for i, v := range vs {
			parts[i] = v.s
		}
		return fn(parts)
	}
	return Later(func() (string, error) {
		parts, err := All(context.Background(), vs)
		if err != nil {
			return "", err
		}
		return fn(parts).Await(context.Background())
	})
}
