package sample

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fxsml/mediator"
	"github.com/fxsml/mediator/behavior"
)

// Behavior identities.
const (
	RecoverBehavior     mediator.Identity = "recover"
	CorrelationBehavior mediator.Identity = "correlation"
	TraceBehavior       mediator.Identity = "trace"
	TimeoutBehavior     mediator.Identity = "timeout"
	AuditBehavior       mediator.Identity = "audit"
	ValidationBehavior  mediator.Identity = "validation"
	RetryBehavior       mediator.Identity = "retry"
	DeadlineBehavior    mediator.Identity = "deadline"
	LogBehavior         mediator.Identity = "log"
	IdempotentBehavior  mediator.Identity = "idempotent"
)

// Deps are the collaborators of the sample service. Nil fields disable the
// behaviors that need them.
type Deps struct {
	Users       *Users
	Logger      mediator.Logger
	AuditSink   behavior.AuditSink
	Tracer      trace.Tracer
	Idempotency behavior.IdempotencyStore
	// IdempotencyTTL is how long a request ID stays claimed.
	IdempotencyTTL time.Duration
	Metrics        behavior.MetricsCollector

	// Timeout bounds each dispatch. Zero disables it.
	Timeout time.Duration
	// Retry applies to queries. Unknown users are not retried unless
	// Retry.ShouldRetry says otherwise.
	Retry behavior.RetryConfig
}

// Register describes the sample requests in reg and binds their handlers and
// behaviors in c.
//
// Behaviors apply outermost first: recover, correlation, trace, timeout,
// audit and validation, retry, deadline, log. CreateUserCommand additionally runs the
// idempotency behavior when an IdempotencyStore is set.
func Register(reg *mediator.Registry, c *mediator.Container, deps Deps) error {
	if deps.Users == nil {
		deps.Users = NewUsers()
	}
	if deps.Logger == nil {
		deps.Logger = mediator.NopLogger()
	}

	var createOpts []mediator.RequestOption
	createOpts = append(createOpts, mediator.WithTags(Auditable, Validatable))
	if deps.Idempotency != nil {
		createOpts = append(createOpts, mediator.WithBehaviors(IdempotentBehavior))
		c.BindInstance(IdempotentBehavior, behavior.Idempotent(deps.Idempotency, behavior.IdempotencyConfig{TTL: deps.IdempotencyTTL}))
	}

	errs := []error{
		reg.RegisterHandler(mediator.DescribeCommandResult[CreateUserCommand, UserDto](CreateUserHandler, createOpts...)),
		reg.RegisterHandler(mediator.DescribeCommand[UpdateUserCommand](UpdateUserHandler,
			mediator.WithTags(Auditable, Validatable, Expiring))),
		reg.RegisterHandler(mediator.DescribeQuery[GetUserQuery, UserDto](GetUserHandler,
			mediator.WithTags(Auditable, Validatable, Retryable))),
		reg.RegisterHandler(mediator.DescribeQuery[GetUsersQuery, UsersDto](GetUsersHandler,
			mediator.WithTags(Retryable))),

		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: RecoverBehavior, Tag: mediator.TagAny, Order: -100}),
		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: CorrelationBehavior, Tag: mediator.TagAny, Order: -90}),
		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: TraceBehavior, Tag: mediator.TagAny, Order: -80}),
		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: TimeoutBehavior, Tag: mediator.TagAny, Order: -70}),
		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: AuditBehavior, Tag: Auditable, Order: -10}),
		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: ValidationBehavior, Tag: Validatable, Order: -10}),
		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: RetryBehavior, Tag: Retryable, Order: 0}),
		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: DeadlineBehavior, Tag: Expiring, Order: 5}),
		reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: LogBehavior, Tag: mediator.TagAny, Order: 10}),
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	mediator.BindCommandResultHandler[CreateUserCommand, UserDto](c, CreateUserHandler, createUser{users: deps.Users})
	mediator.BindCommandHandler[UpdateUserCommand](c, UpdateUserHandler, updateUser{users: deps.Users})
	mediator.BindQueryHandler[GetUserQuery, UserDto](c, GetUserHandler, getUser{users: deps.Users})
	mediator.BindQueryHandler[GetUsersQuery, UsersDto](c, GetUsersHandler, getUsers{users: deps.Users})

	retry := deps.Retry
	if retry.ShouldRetry == nil {
		retry.ShouldRetry = behavior.ShouldNotRetry(
			ErrUserNotFound,
			behavior.ErrValidation,
			behavior.ErrRequestExpired,
			context.Canceled,
		)
	}

	log := behavior.Log(deps.Logger, behavior.LogConfig{})
	if deps.Metrics != nil {
		log = behavior.Measure(behavior.DistributeMetrics(
			behavior.NewMetricsLogger(deps.Logger, behavior.LogConfig{}),
			deps.Metrics,
		))
	}

	c.BindInstance(RecoverBehavior, behavior.Recover())
	c.BindInstance(CorrelationBehavior, behavior.Correlation())
	c.BindInstance(TraceBehavior, behavior.Trace(deps.Tracer))
	c.BindInstance(TimeoutBehavior, behavior.Timeout(deps.Timeout))
	c.BindInstance(AuditBehavior, behavior.Audit(deps.AuditSink, deps.Logger))
	c.BindInstance(ValidationBehavior, behavior.Validate())
	c.BindInstance(RetryBehavior, behavior.Retry(retry))
	c.BindInstance(DeadlineBehavior, behavior.Deadline())
	c.BindInstance(LogBehavior, log)
	return nil
}

// Build registers the sample service and compiles a Mediator for it.
func Build(deps Deps, cfg mediator.Config) (*mediator.Mediator, error) {
	reg := mediator.NewRegistry()
	c := mediator.NewContainer()
	if err := Register(reg, c, deps); err != nil {
		return nil, err
	}
	return mediator.Build(reg, c, cfg)
}
