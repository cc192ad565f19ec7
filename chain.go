package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Invoker is the type-erased entry point of a compiled chain.
type Invoker func(ctx context.Context, req any) (any, error)

// Chain is the compiled invocation chain of one request type.
type Chain struct {
	request   RequestDescriptor
	handler   Identity
	behaviors []Identity
	invoke    Invoker
}

// Request returns the descriptor of the served request type.
func (c *Chain) Request() RequestDescriptor {
	return c.request.clone()
}

// Handler returns the identity of the terminal handler.
func (c *Chain) Handler() Identity {
	return c.handler
}

// Behaviors returns the bound behavior templates, outermost first.
func (c *Chain) Behaviors() []Identity {
	return slices.Clone(c.behaviors)
}

// Links returns the behavior templates followed by the handler, outermost first.
func (c *Chain) Links() []Identity {
	return append(c.Behaviors(), c.handler)
}

// Invoke runs the chain for req.
// req must be of the chain's request type.
func (c *Chain) Invoke(ctx context.Context, req any) (any, error) {
	return c.invoke(ctx, req)
}

// binder carries the static request and result types of a handler
// registration into compilation.
type binder interface {
	fitsHandler(inst any) bool
	fitsBehavior(inst any) bool
	compile(req RequestDescriptor, handler Identity, behaviors []Identity, p InstanceProvider) Invoker
}

type handleFunc[Req, Res any] func(ctx context.Context, req Req) (Res, error)

type typedBinder[Req, Res any] struct {
	adapt func(inst any) (handleFunc[Req, Res], bool)
}

func commandBinder[C any]() binder {
	return typedBinder[C, Void]{adapt: func(inst any) (handleFunc[C, Void], bool) {
		h, ok := inst.(CommandHandler[C])
		if !ok {
			return nil, false
		}
		return func(ctx context.Context, cmd C) (Void, error) {
			return Void{}, h.Handle(ctx, cmd)
		}, true
	}}
}

func commandResultBinder[C, R any]() binder {
	return typedBinder[C, R]{adapt: func(inst any) (handleFunc[C, R], bool) {
		h, ok := inst.(CommandResultHandler[C, R])
		if !ok {
			return nil, false
		}
		return h.Handle, true
	}}
}

func queryBinder[Q, R any]() binder {
	return typedBinder[Q, R]{adapt: func(inst any) (handleFunc[Q, R], bool) {
		h, ok := inst.(QueryHandler[Q, R])
		if !ok {
			return nil, false
		}
		return h.Handle, true
	}}
}

func (b typedBinder[Req, Res]) fitsHandler(inst any) bool {
	_, ok := b.adapt(inst)
	return ok
}

func (b typedBinder[Req, Res]) fitsBehavior(inst any) bool {
	switch inst.(type) {
	case TypedBehavior[Req, Res], Behavior:
		return true
	default:
		return false
	}
}

func (b typedBinder[Req, Res]) compile(req RequestDescriptor, handler Identity, behaviors []Identity, p InstanceProvider) Invoker {
	args := req.Args()

	// A nil result is a legitimate value only for interface results and Void.
	rt := reflect.TypeFor[Res]()
	nilResult := rt.Kind() == reflect.Interface || rt == reflect.TypeFor[Void]()

	// Right fold over the outer-to-inner list: behaviors[0] ends up outermost.
	chain := b.terminal(handler, args, p)
	for _, id := range slices.Backward(behaviors) {
		chain = b.wrap(id, args, nilResult, p, chain)
	}

	return func(ctx context.Context, r any) (any, error) {
		typed, ok := r.(Req)
		if !ok {
			return nil, fmt.Errorf("%w: chain for %s invoked with %T", ErrKindMismatch, args.Request, r)
		}
		res, err := chain(ctx, typed)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

func (b typedBinder[Req, Res]) terminal(id Identity, args TypeArgs, p InstanceProvider) handleFunc[Req, Res] {
	return func(ctx context.Context, req Req) (Res, error) {
		var zero Res
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		inst, err := p.Resolve(ctx, id, args)
		if err != nil {
			return zero, resolutionError(id, args, err)
		}
		h, ok := b.adapt(inst)
		if !ok {
			return zero, fmt.Errorf("%w: %s%s resolved to %T, not a handler", ErrInstanceResolution, id, args, inst)
		}
		return h(ctx, req)
	}
}

func (b typedBinder[Req, Res]) wrap(id Identity, args TypeArgs, nilResult bool, p InstanceProvider, inner handleFunc[Req, Res]) handleFunc[Req, Res] {
	return func(ctx context.Context, req Req) (Res, error) {
		var zero Res
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		inst, err := p.Resolve(ctx, id, args)
		if err != nil {
			return zero, resolutionError(id, args, err)
		}

		g := &guard[Req, Res]{inner: inner, req: req}
		var res Res
		switch bh := inst.(type) {
		case TypedBehavior[Req, Res]:
			res, err = bh.Handle(ctx, req, g.next)
		case Behavior:
			var out any
			out, err = bh.Handle(ctx, req, g.nextAny)
			if err == nil {
				var ok bool
				if res, ok = out.(Res); !ok && (out != nil || !nilResult) {
					return zero, contractViolation(id, fmt.Sprintf("returned %T, want %s", out, args.Result))
				}
			}
		default:
			return zero, fmt.Errorf("%w: %s%s resolved to %T, not a behavior", ErrInstanceResolution, id, args, inst)
		}
		if err != nil {
			return zero, err
		}
		if err := g.check(id); err != nil {
			return zero, err
		}
		return res, nil
	}
}

// guard records how a behavior used its continuation.
type guard[Req, Res any] struct {
	inner handleFunc[Req, Res]
	req   Req

	mu     sync.Mutex
	called bool
	err    error
}

func (g *guard[Req, Res]) next(ctx context.Context) (Res, error) {
	var res Res
	err := ctx.Err()
	if err == nil {
		res, err = g.inner(ctx, g.req)
	}
	g.mu.Lock()
	g.called = true
	g.err = err
	g.mu.Unlock()
	return res, err
}

func (g *guard[Req, Res]) nextAny(ctx context.Context) (any, error) {
	res, err := g.next(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (g *guard[Req, Res]) check(id Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.called {
		return contractViolation(id, "returned success without calling next")
	}
	if g.err != nil {
		return fmt.Errorf("%w: %s discarded the failure of next: %w", ErrBehaviorContract, id, g.err)
	}
	return nil
}

func resolutionError(id Identity, args TypeArgs, err error) error {
	if errors.Is(err, ErrInstanceResolution) {
		return err
	}
	return fmt.Errorf("%w: %s%s: %w", ErrInstanceResolution, id, args, err)
}
