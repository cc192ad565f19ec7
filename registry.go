package mediator

import (
	"fmt"
	"slices"
	"sync"
)

// HandlerDescriptor binds a request type to its handler.
// Create descriptors with DescribeCommand, DescribeCommandResult or DescribeQuery.
type HandlerDescriptor struct {
	// Request describes the served request type.
	Request RequestDescriptor
	// Handler identifies the handler for the InstanceProvider.
	Handler Identity

	bind binder
}

// DescribeCommand describes the handler of the void command C.
func DescribeCommand[C any](handler Identity, opts ...RequestOption) HandlerDescriptor {
	return describe(handler, RequestDescriptor{
		Type: KeyOf[C](),
		Kind: KindCommand,
	}, commandBinder[C](), opts)
}

// DescribeCommandResult describes the handler of the command C returning R.
func DescribeCommandResult[C, R any](handler Identity, opts ...RequestOption) HandlerDescriptor {
	return describe(handler, RequestDescriptor{
		Type:   KeyOf[C](),
		Kind:   KindCommandResult,
		Result: KeyOf[R](),
	}, commandResultBinder[C, R](), opts)
}

// DescribeQuery describes the handler of the query Q returning R.
func DescribeQuery[Q, R any](handler Identity, opts ...RequestOption) HandlerDescriptor {
	return describe(handler, RequestDescriptor{
		Type:   KeyOf[Q](),
		Kind:   KindQuery,
		Result: KeyOf[R](),
	}, queryBinder[Q, R](), opts)
}

func describe(handler Identity, req RequestDescriptor, b binder, opts []RequestOption) HandlerDescriptor {
	for _, opt := range opts {
		opt(&req)
	}
	return HandlerDescriptor{
		Request: req,
		Handler: handler,
		bind:    b,
	}
}

// Registry collects handler and behavior descriptors until it is sealed.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	handlers  []HandlerDescriptor
	index     map[TypeKey]int
	behaviors []BehaviorDescriptor
	sequence  uint64
	snapshot  *Snapshot
}

// NewRegistry creates an empty, open Registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[TypeKey]int),
	}
}

// RegisterHandler adds a handler descriptor.
// Returns ErrDuplicateHandler if the request type already has a handler
// and ErrRegistryClosed after Seal.
func (r *Registry) RegisterHandler(d HandlerDescriptor) error {
	if d.bind == nil || d.Request.Type.IsZero() {
		return fmt.Errorf("%w: handler descriptor must be created by a Describe function", ErrInvalidDescriptor)
	}
	if d.Request.Type.isInterface() {
		return fmt.Errorf("%w: request type %s must be concrete", ErrInvalidDescriptor, d.Request.Type)
	}
	if d.Handler == "" {
		return fmt.Errorf("%w: empty handler identity for %s", ErrInvalidDescriptor, d.Request.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot != nil {
		return ErrRegistryClosed
	}
	if i, ok := r.index[d.Request.Type]; ok {
		return fmt.Errorf("%w: %s is served by %s", ErrDuplicateHandler, d.Request.Type, r.handlers[i].Handler)
	}

	d.Request = d.Request.clone()
	r.index[d.Request.Type] = len(r.handlers)
	r.handlers = append(r.handlers, d)
	return nil
}

// RegisterBehavior appends a contract behavior and assigns its Sequence.
// Returns ErrRegistryClosed after Seal.
func (r *Registry) RegisterBehavior(d BehaviorDescriptor) error {
	if d.Template == "" || d.Tag == "" {
		return fmt.Errorf("%w: behavior needs template and tag", ErrInvalidDescriptor)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot != nil {
		return ErrRegistryClosed
	}

	r.sequence++
	d.Sequence = r.sequence
	r.behaviors = append(r.behaviors, d)
	return nil
}

// Seal closes the registry and returns its immutable snapshot.
// Subsequent calls return the same snapshot.
func (r *Registry) Seal() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot == nil {
		r.snapshot = &Snapshot{
			handlers:  r.handlers,
			behaviors: r.behaviors,
		}
		r.handlers, r.behaviors, r.index = nil, nil, nil
	}
	return r.snapshot
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot != nil
}

// Snapshot is the immutable content of a sealed Registry.
type Snapshot struct {
	handlers  []HandlerDescriptor
	behaviors []BehaviorDescriptor
}

// Handlers returns a copy of the handler descriptors in registration order.
func (s *Snapshot) Handlers() []HandlerDescriptor {
	out := make([]HandlerDescriptor, len(s.handlers))
	for i, h := range s.handlers {
		h.Request = h.Request.clone()
		out[i] = h
	}
	return out
}

// Behaviors returns a copy of the behavior descriptors in registration order.
func (s *Snapshot) Behaviors() []BehaviorDescriptor {
	return slices.Clone(s.behaviors)
}
