package mediator

import (
	"context"
	"fmt"
	"sync"
)

// InstanceProvider resolves handler and behavior instances by identity.
//
// Resolve is called once per link and call. Whether it returns fresh or
// shared instances is the provider's policy; shared instances must be safe
// for concurrent use.
type InstanceProvider interface {
	Resolve(ctx context.Context, id Identity, args TypeArgs) (any, error)
}

// ProviderFunc adapts a function to InstanceProvider.
type ProviderFunc func(ctx context.Context, id Identity, args TypeArgs) (any, error)

func (f ProviderFunc) Resolve(ctx context.Context, id Identity, args TypeArgs) (any, error) {
	return f(ctx, id, args)
}

// Factory creates an instance for the given type arguments.
type Factory func(ctx context.Context, args TypeArgs) (any, error)

type bindingKey struct {
	id   Identity
	args TypeArgs
}

// Container is an in-memory InstanceProvider.
//
// Open bindings serve any type arguments; closed bindings serve exactly one
// (request, result) pair and take precedence over open bindings.
type Container struct {
	mu     sync.RWMutex
	open   map[Identity]Factory
	closed map[bindingKey]Factory
}

// NewContainer creates an empty Container.
func NewContainer() *Container {
	return &Container{
		open:   make(map[Identity]Factory),
		closed: make(map[bindingKey]Factory),
	}
}

// Bind registers an open factory for id, replacing any previous one.
func (c *Container) Bind(id Identity, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open[id] = f
}

// BindInstance registers a shared instance for id and any type arguments.
func (c *Container) BindInstance(id Identity, instance any) {
	c.Bind(id, func(context.Context, TypeArgs) (any, error) {
		return instance, nil
	})
}

// BindTyped registers a factory for id and exactly the given type arguments.
func (c *Container) BindTyped(id Identity, args TypeArgs, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed[bindingKey{id: id, args: args}] = f
}

// Resolve implements InstanceProvider.
func (c *Container) Resolve(ctx context.Context, id Identity, args TypeArgs) (any, error) {
	c.mu.RLock()
	f, ok := c.closed[bindingKey{id: id, args: args}]
	if !ok {
		f, ok = c.open[id]
	}
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no binding for %s%s", ErrInstanceResolution, id, args)
	}
	inst, err := f(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s%s: %w", ErrInstanceResolution, id, args, err)
	}
	return inst, nil
}

// BindBehavior registers a shared closed behavior for Req and Res.
func BindBehavior[Req, Res any](c *Container, id Identity, b TypedBehavior[Req, Res]) {
	c.BindTyped(id, TypeArgs{Request: KeyOf[Req](), Result: KeyOf[Res]()}, func(context.Context, TypeArgs) (any, error) {
		return b, nil
	})
}

// BindCommandHandler registers a shared handler for the void command C.
func BindCommandHandler[C any](c *Container, id Identity, h CommandHandler[C]) {
	c.BindTyped(id, TypeArgs{Request: KeyOf[C](), Result: KeyOf[Void]()}, func(context.Context, TypeArgs) (any, error) {
		return h, nil
	})
}

// BindCommandResultHandler registers a shared handler for the command C returning R.
func BindCommandResultHandler[C, R any](c *Container, id Identity, h CommandResultHandler[C, R]) {
	c.BindTyped(id, TypeArgs{Request: KeyOf[C](), Result: KeyOf[R]()}, func(context.Context, TypeArgs) (any, error) {
		return h, nil
	})
}

// BindQueryHandler registers a shared handler for the query Q returning R.
func BindQueryHandler[Q, R any](c *Container, id Identity, h QueryHandler[Q, R]) {
	c.BindTyped(id, TypeArgs{Request: KeyOf[Q](), Result: KeyOf[R]()}, func(context.Context, TypeArgs) (any, error) {
		return h, nil
	})
}

var (
	_ InstanceProvider = (*Container)(nil)
	_ InstanceProvider = ProviderFunc(nil)
)
