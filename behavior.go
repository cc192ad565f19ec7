package mediator

import "context"

// Next invokes everything inward of the current behavior.
type Next func(ctx context.Context) (any, error)

// Behavior is an open behavior template: it binds to any request and result type.
//
// A behavior must either call next and return (or propagate the failure of)
// its outcome, or fail without calling it. Returning success without calling
// next, or swallowing the failure of next, is reported as ErrBehaviorContract.
type Behavior interface {
	Handle(ctx context.Context, req any, next Next) (any, error)
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(ctx context.Context, req any, next Next) (any, error)

func (f BehaviorFunc) Handle(ctx context.Context, req any, next Next) (any, error) {
	return f(ctx, req, next)
}

// NextFunc is the typed continuation of a closed behavior.
type NextFunc[Res any] func(ctx context.Context) (Res, error)

// TypedBehavior is a behavior bound to exactly one request and result type.
// Void commands bind Res to Void.
type TypedBehavior[Req, Res any] interface {
	Handle(ctx context.Context, req Req, next NextFunc[Res]) (Res, error)
}

// TypedBehaviorFunc adapts a function to TypedBehavior.
type TypedBehaviorFunc[Req, Res any] func(ctx context.Context, req Req, next NextFunc[Res]) (Res, error)

func (f TypedBehaviorFunc[Req, Res]) Handle(ctx context.Context, req Req, next NextFunc[Res]) (Res, error) {
	return f(ctx, req, next)
}

// CommandHandler handles a command without result.
type CommandHandler[C any] interface {
	Handle(ctx context.Context, cmd C) error
}

// CommandResultHandler handles a command returning a result.
type CommandResultHandler[C, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// QueryHandler handles a query.
type QueryHandler[Q, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc[C any] func(ctx context.Context, cmd C) error

func (f CommandHandlerFunc[C]) Handle(ctx context.Context, cmd C) error {
	return f(ctx, cmd)
}

// CommandResultHandlerFunc adapts a function to CommandResultHandler.
type CommandResultHandlerFunc[C, R any] func(ctx context.Context, cmd C) (R, error)

func (f CommandResultHandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// QueryHandlerFunc adapts a function to QueryHandler.
type QueryHandlerFunc[Q, R any] func(ctx context.Context, query Q) (R, error)

func (f QueryHandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

var (
	_ Behavior                       = BehaviorFunc(nil)
	_ TypedBehavior[any, any]        = TypedBehaviorFunc[any, any](nil)
	_ CommandHandler[any]            = CommandHandlerFunc[any](nil)
	_ CommandResultHandler[any, any] = CommandResultHandlerFunc[any, any](nil)
	_ QueryHandler[any, any]         = QueryHandlerFunc[any, any](nil)
)
