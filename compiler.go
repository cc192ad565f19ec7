package mediator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
)

// Compile builds the dispatch table of a sealed registry.
//
// For each handler the chain is, outermost first: the contract behaviors whose
// tag the request carries, ascending by Order with ties broken by Sequence;
// then the request-specific behaviors in declaration order; then the handler.
//
// Every template is probed once through p to check that it can be bound to
// the request and result types. All binding failures are returned joined as
// CompileErrors and no table is produced.
func Compile(s *Snapshot, p InstanceProvider) (*Table, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrCompile)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: nil instance provider", ErrCompile)
	}

	contract := sortBehaviors(s.Behaviors())

	chains := make(map[TypeKey]*Chain, len(s.handlers))
	var errs []error
	for _, h := range s.handlers {
		c, err := compileChain(h, contract, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		chains[h.Request.Type] = c
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return newTable(chains), nil
}

// Plan returns the behavior templates a request type is wrapped with,
// outermost first, without binding them.
func Plan(req RequestDescriptor, behaviors []BehaviorDescriptor) []Identity {
	return plan(req, sortBehaviors(slices.Clone(behaviors)))
}

func sortBehaviors(b []BehaviorDescriptor) []BehaviorDescriptor {
	slices.SortStableFunc(b, func(x, y BehaviorDescriptor) int {
		return cmp.Or(
			cmp.Compare(x.Order, y.Order),
			cmp.Compare(x.Sequence, y.Sequence),
		)
	})
	return b
}

// plan expects sorted contract behaviors.
func plan(req RequestDescriptor, contract []BehaviorDescriptor) []Identity {
	ids := make([]Identity, 0, len(contract)+len(req.Behaviors))
	for _, b := range contract {
		if req.HasTag(b.Tag) {
			ids = append(ids, b.Template)
		}
	}
	return append(ids, req.Behaviors...)
}

func compileChain(h HandlerDescriptor, contract []BehaviorDescriptor, p InstanceProvider) (*Chain, error) {
	req := h.Request.clone()
	args := req.Args()
	behaviors := plan(req, contract)

	var errs []error
	if err := probe(p, h.Handler, args, h.bind.fitsHandler, "handler"); err != nil {
		errs = append(errs, &CompileError{Request: req.Type, Identity: h.Handler, Err: err})
	}
	for _, id := range behaviors {
		if err := probe(p, id, args, h.bind.fitsBehavior, "behavior"); err != nil {
			errs = append(errs, &CompileError{Request: req.Type, Identity: id, Err: err})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Chain{
		request:   req,
		handler:   h.Handler,
		behaviors: behaviors,
		invoke:    h.bind.compile(req, h.Handler, behaviors, p),
	}, nil
}

func probe(p InstanceProvider, id Identity, args TypeArgs, fits func(any) bool, role string) error {
	inst, err := p.Resolve(context.Background(), id, args)
	if err != nil {
		return err
	}
	if !fits(inst) {
		return fmt.Errorf("%T does not implement the %s contract for %s", inst, role, args)
	}
	return nil
}
