package mediator_test

import (
	"context"
	"slices"
	"sync"

	"github.com/fxsml/mediator"
)

type createUser struct {
	Name string
}

type userDto struct {
	ID   int
	Name string
}

type renameUser struct {
	ID   int
	Name string
}

type getUser struct {
	ID int
}

type unknownRequest struct{}

// recorder collects the trace of a dispatch.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// tracing returns an open behavior recording entry and exit.
func tracing(rec *recorder, name string) mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		rec.add(name + ">")
		res, err := next(ctx)
		rec.add("<" + name)
		return res, err
	})
}

func createUserHandler(rec *recorder) mediator.CommandResultHandler[createUser, userDto] {
	return mediator.CommandResultHandlerFunc[createUser, userDto](func(ctx context.Context, cmd createUser) (userDto, error) {
		rec.add("handler")
		return userDto{ID: 1, Name: cmd.Name}, nil
	})
}
