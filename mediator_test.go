package mediator_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/fxsml/mediator"
)

func newMediator(t *testing.T, reg *mediator.Registry, c *mediator.Container) *mediator.Mediator {
	t.Helper()
	m, err := mediator.Build(reg, c, mediator.Config{Logger: mediator.NopLogger()})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

func TestMediator_Routing(t *testing.T) {
	rec := &recorder{}
	var renamed atomic.Value

	reg := mediator.NewRegistry()
	_ = reg.RegisterHandler(mediator.DescribeCommandResult[createUser, userDto]("create"))
	_ = reg.RegisterHandler(mediator.DescribeCommand[renameUser]("rename"))
	_ = reg.RegisterHandler(mediator.DescribeQuery[getUser, userDto]("get"))

	c := mediator.NewContainer()
	mediator.BindCommandResultHandler(c, "create", createUserHandler(rec))
	mediator.BindCommandHandler[renameUser](c, "rename", mediator.CommandHandlerFunc[renameUser](func(ctx context.Context, cmd renameUser) error {
		renamed.Store(cmd.Name)
		return nil
	}))
	mediator.BindQueryHandler[getUser, userDto](c, "get", mediator.QueryHandlerFunc[getUser, userDto](func(ctx context.Context, q getUser) (userDto, error) {
		return userDto{ID: q.ID, Name: "Ann"}, nil
	}))

	m := newMediator(t, reg, c)
	ctx := context.Background()

	t.Run("command with result", func(t *testing.T) {
		user, err := mediator.SendAs[userDto](ctx, m, createUser{Name: "Ann"})
		if err != nil {
			t.Fatalf("SendAs() error = %v", err)
		}
		if user != (userDto{ID: 1, Name: "Ann"}) {
			t.Errorf("SendAs() = %+v, want {ID:1 Name:Ann}", user)
		}
	})

	t.Run("void command", func(t *testing.T) {
		if err := m.Send(ctx, renameUser{ID: 1, Name: "Bob"}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if got := renamed.Load(); got != "Bob" {
			t.Errorf("renamed = %v, want Bob", got)
		}
	})

	t.Run("query", func(t *testing.T) {
		user, err := mediator.QueryAs[userDto](ctx, m, getUser{ID: 7})
		if err != nil {
			t.Fatalf("QueryAs() error = %v", err)
		}
		if user.ID != 7 {
			t.Errorf("QueryAs().ID = %d, want 7", user.ID)
		}
	})

	t.Run("unroutable request names the type", func(t *testing.T) {
		_, err := m.Query(ctx, unknownRequest{})
		if !errors.Is(err, mediator.ErrUnroutableRequest) {
			t.Fatalf("Query() error = %v, want ErrUnroutableRequest", err)
		}
		if !strings.Contains(err.Error(), "unknownRequest") {
			t.Errorf("Query() error = %q, want it to name unknownRequest", err)
		}
	})

	t.Run("pointer is a different type", func(t *testing.T) {
		if _, err := m.SendResult(ctx, &createUser{}); !errors.Is(err, mediator.ErrUnroutableRequest) {
			t.Errorf("SendResult() error = %v, want ErrUnroutableRequest", err)
		}
	})

	t.Run("nil request", func(t *testing.T) {
		if err := m.Send(ctx, nil); !errors.Is(err, mediator.ErrUnroutableRequest) {
			t.Errorf("Send() error = %v, want ErrUnroutableRequest", err)
		}
	})

	t.Run("kind mismatch", func(t *testing.T) {
		if _, err := m.Query(ctx, createUser{}); !errors.Is(err, mediator.ErrKindMismatch) {
			t.Errorf("Query(command) error = %v, want ErrKindMismatch", err)
		}
		if err := m.Send(ctx, createUser{}); !errors.Is(err, mediator.ErrKindMismatch) {
			t.Errorf("Send(result command) error = %v, want ErrKindMismatch", err)
		}
		if _, err := m.SendResult(ctx, renameUser{}); !errors.Is(err, mediator.ErrKindMismatch) {
			t.Errorf("SendResult(void command) error = %v, want ErrKindMismatch", err)
		}
		if _, err := mediator.QueryAs[string](ctx, m, getUser{}); !errors.Is(err, mediator.ErrKindMismatch) {
			t.Errorf("QueryAs[string]() error = %v, want ErrKindMismatch", err)
		}
	})

	t.Run("kind lookup", func(t *testing.T) {
		kind, ok := m.KindOf(mediator.KeyOf[renameUser]())
		if !ok || kind != mediator.KindCommand {
			t.Errorf("KindOf() = %v, %v, want command, true", kind, ok)
		}
		if _, ok := m.KindOf(mediator.KeyOf[unknownRequest]()); ok {
			t.Error("KindOf(unknown) = true")
		}
	})
}

func TestMediator_HandlerErrorIsReturnedUnchanged(t *testing.T) {
	errHandler := errors.New("boom")

	reg := mediator.NewRegistry()
	_ = reg.RegisterHandler(mediator.DescribeCommand[renameUser]("rename", mediator.WithBehaviors("pass")))

	c := mediator.NewContainer()
	mediator.BindCommandHandler[renameUser](c, "rename", mediator.CommandHandlerFunc[renameUser](func(context.Context, renameUser) error {
		return errHandler
	}))
	c.BindInstance("pass", tracing(&recorder{}, "pass"))

	m := newMediator(t, reg, c)
	if err := m.Send(context.Background(), renameUser{}); err != errHandler {
		t.Errorf("Send() error = %v, want %v", err, errHandler)
	}
}

func TestMediator_Cancellation(t *testing.T) {
	t.Run("cancel before next skips the handler", func(t *testing.T) {
		rec := &recorder{}
		reg := mediator.NewRegistry()
		_ = reg.RegisterHandler(mediator.DescribeCommandResult[createUser, userDto]("create", mediator.WithBehaviors("cancel")))

		c := mediator.NewContainer()
		mediator.BindCommandResultHandler(c, "create", createUserHandler(rec))
		c.BindInstance("cancel", mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
			ctx, cancel := context.WithCancel(ctx)
			cancel()
			return next(ctx)
		}))

		m := newMediator(t, reg, c)
		_, err := m.SendResult(context.Background(), createUser{Name: "Ann"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("SendResult() error = %v, want context.Canceled", err)
		}
		if got := rec.get(); len(got) != 0 {
			t.Errorf("handler ran: %v", got)
		}
	})

	t.Run("canceled context is not dispatched", func(t *testing.T) {
		rec := &recorder{}
		reg := mediator.NewRegistry()
		_ = reg.RegisterHandler(mediator.DescribeCommandResult[createUser, userDto]("create"))

		c := mediator.NewContainer()
		mediator.BindCommandResultHandler(c, "create", createUserHandler(rec))

		m := newMediator(t, reg, c)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := m.SendResult(ctx, createUser{}); err != context.Canceled {
			t.Errorf("SendResult() error = %v, want context.Canceled", err)
		}
		if got := rec.get(); len(got) != 0 {
			t.Errorf("handler ran: %v", got)
		}
	})
}

func TestMediator_BehaviorContract(t *testing.T) {
	errHandler := errors.New("handler failed")

	build := func(t *testing.T, b mediator.Behavior, handlerErr error) *mediator.Mediator {
		reg := mediator.NewRegistry()
		_ = reg.RegisterHandler(mediator.DescribeQuery[getUser, userDto]("get", mediator.WithBehaviors("b")))

		c := mediator.NewContainer()
		mediator.BindQueryHandler[getUser, userDto](c, "get", mediator.QueryHandlerFunc[getUser, userDto](func(context.Context, getUser) (userDto, error) {
			return userDto{ID: 1}, handlerErr
		}))
		c.BindInstance("b", b)
		return newMediator(t, reg, c)
	}

	t.Run("success without calling next", func(t *testing.T) {
		m := build(t, mediator.BehaviorFunc(func(context.Context, any, mediator.Next) (any, error) {
			return userDto{}, nil
		}), nil)

		if _, err := m.Query(context.Background(), getUser{}); !errors.Is(err, mediator.ErrBehaviorContract) {
			t.Errorf("Query() error = %v, want ErrBehaviorContract", err)
		}
	})

	t.Run("swallowing the failure of next", func(t *testing.T) {
		m := build(t, mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
			_, _ = next(ctx)
			return userDto{}, nil
		}), errHandler)

		_, err := m.Query(context.Background(), getUser{})
		if !errors.Is(err, mediator.ErrBehaviorContract) {
			t.Errorf("Query() error = %v, want ErrBehaviorContract", err)
		}
		if !errors.Is(err, errHandler) {
			t.Errorf("Query() error = %v, want it to wrap the handler failure", err)
		}
	})

	t.Run("result of the wrong type", func(t *testing.T) {
		m := build(t, mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
			_, err := next(ctx)
			return "not a user", err
		}), nil)

		if _, err := m.Query(context.Background(), getUser{}); !errors.Is(err, mediator.ErrBehaviorContract) {
			t.Errorf("Query() error = %v, want ErrBehaviorContract", err)
		}
	})

	t.Run("failing without next is allowed", func(t *testing.T) {
		errRejected := errors.New("rejected")
		m := build(t, mediator.BehaviorFunc(func(context.Context, any, mediator.Next) (any, error) {
			return nil, errRejected
		}), nil)

		if _, err := m.Query(context.Background(), getUser{}); err != errRejected {
			t.Errorf("Query() error = %v, want %v", err, errRejected)
		}
	})

	t.Run("retrying next with a final success is allowed", func(t *testing.T) {
		m := build(t, mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
			_, _ = next(ctx)
			return next(ctx)
		}), nil)

		if _, err := m.Query(context.Background(), getUser{}); err != nil {
			t.Errorf("Query() error = %v", err)
		}
	})
}

func TestMediator_TypedBehavior(t *testing.T) {
	var calls atomic.Int32

	reg := mediator.NewRegistry()
	_ = reg.RegisterHandler(mediator.DescribeCommand[renameUser]("rename", mediator.WithTags("audited")))
	_ = reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: "typed", Tag: "audited"})

	c := mediator.NewContainer()
	mediator.BindCommandHandler[renameUser](c, "rename", mediator.CommandHandlerFunc[renameUser](func(context.Context, renameUser) error {
		return nil
	}))
	mediator.BindBehavior[renameUser, mediator.Void](c, "typed", mediator.TypedBehaviorFunc[renameUser, mediator.Void](
		func(ctx context.Context, req renameUser, next mediator.NextFunc[mediator.Void]) (mediator.Void, error) {
			calls.Add(1)
			return next(ctx)
		}))

	m := newMediator(t, reg, c)
	if err := m.Send(context.Background(), renameUser{}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("typed behavior calls = %d, want 1", calls.Load())
	}
}

func TestMediator_RequestInfo(t *testing.T) {
	var info mediator.RequestInfo

	reg := mediator.NewRegistry()
	_ = reg.RegisterHandler(mediator.DescribeQuery[getUser, userDto]("get", mediator.WithTags("cached"), mediator.WithBehaviors("inspect")))

	c := mediator.NewContainer()
	mediator.BindQueryHandler[getUser, userDto](c, "get", mediator.QueryHandlerFunc[getUser, userDto](func(context.Context, getUser) (userDto, error) {
		return userDto{}, nil
	}))
	c.BindInstance("inspect", mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		info, _ = mediator.RequestInfoFromContext(ctx)
		return next(ctx)
	}))

	m := newMediator(t, reg, c)
	if _, err := m.Query(context.Background(), getUser{}); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if info.Type != mediator.KeyOf[getUser]() || info.Kind != mediator.KindQuery || !info.HasTag("cached") {
		t.Errorf("RequestInfo = %+v", info)
	}

	chain, _ := m.Table().Lookup(mediator.KeyOf[getUser]())
	desc := chain.Request()
	for _, tag := range []mediator.Tag{"cached", mediator.TagAny, "missing"} {
		if got, want := info.HasTag(tag), desc.HasTag(tag); got != want {
			t.Errorf("RequestInfo.HasTag(%q) = %v, RequestDescriptor.HasTag = %v", tag, got, want)
		}
	}
	if !info.HasTag(mediator.TagAny) {
		t.Error("RequestInfo.HasTag(TagAny) = false")
	}
}

func TestMediator_Concurrent(t *testing.T) {
	var handled atomic.Int64

	reg := mediator.NewRegistry()
	_ = reg.RegisterHandler(mediator.DescribeQuery[getUser, userDto]("get", mediator.WithTags("t")))
	_ = reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: "pass", Tag: "t"})

	c := mediator.NewContainer()
	mediator.BindQueryHandler[getUser, userDto](c, "get", mediator.QueryHandlerFunc[getUser, userDto](func(ctx context.Context, q getUser) (userDto, error) {
		handled.Add(1)
		return userDto{ID: q.ID}, nil
	}))
	c.BindInstance("pass", tracing(&recorder{}, "pass"))

	m := newMediator(t, reg, c)

	g, ctx := errgroup.WithContext(context.Background())
	for i := range 200 {
		g.Go(func() error {
			user, err := mediator.QueryAs[userDto](ctx, m, getUser{ID: i})
			if err != nil {
				return err
			}
			if user.ID != i {
				return errors.New("result routed to the wrong caller")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Query() error = %v", err)
	}
	if got := handled.Load(); got != 200 {
		t.Errorf("handled = %d, want 200", got)
	}
}
