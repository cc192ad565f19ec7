// Package mediator routes typed commands and queries to exactly one handler
// through a compiled chain of cross-cutting behaviors.
//
// The mediator family includes:
//
//   - [mediator] (this package): registry, pipeline compiler, dispatch table
//   - [behavior]: reusable behaviors such as retry, audit and tracing
//   - [cloudevents]: CloudEvents transport adapter
//   - [redisstore], [sqlitestore]: idempotency and audit backends
//
// # Quick Start
//
//	reg := mediator.NewRegistry()
//	_ = reg.RegisterHandler(mediator.DescribeCommandResult[CreateUser, UserDto]("users.create",
//		mediator.WithTags("auditable")))
//	_ = reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: "audit", Tag: "auditable", Order: -10})
//
//	c := mediator.NewContainer()
//	mediator.BindCommandResultHandler[CreateUser, UserDto](c, "users.create", createUser)
//	c.BindInstance("audit", behavior.Audit(sink, nil))
//
//	m, err := mediator.Build(reg, c, mediator.Config{})
//	user, err := mediator.SendAs[UserDto](ctx, m, CreateUser{Name: "Ann"})
//
// # Lifecycle
//
// Registrations are collected by a [Registry] until [Registry.Seal]. [Compile]
// turns the sealed [Snapshot] into an immutable [Table] holding one [Chain] per
// request type. The table is built once and read concurrently afterwards.
//
// # Ordering
//
// A chain runs, outermost first: the contract behaviors whose [Tag] the request
// carries, ascending by Order with ties broken by registration sequence; then
// the request-specific behaviors in declaration order; then the handler.
//
// # Behaviors
//
// An open [Behavior] binds to any request and result type. A closed
// [TypedBehavior] binds to exactly one pair. Either must call next and return
// its outcome, or fail without calling it; the compiled chain reports any other
// use as [ErrBehaviorContract].
//
// [mediator]: https://pkg.go.dev/github.com/fxsml/mediator
// [behavior]: https://pkg.go.dev/github.com/fxsml/mediator/behavior
// [cloudevents]: https://pkg.go.dev/github.com/fxsml/mediator/cloudevents
// [redisstore]: https://pkg.go.dev/github.com/fxsml/mediator/store/redisstore
// [sqlitestore]: https://pkg.go.dev/github.com/fxsml/mediator/store/sqlitestore
package mediator
