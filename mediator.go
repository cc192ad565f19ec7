package mediator

import (
	"context"
	"fmt"
	"log/slog"
)

// Sender dispatches commands.
type Sender interface {
	// Send dispatches a command without result.
	Send(ctx context.Context, cmd any) error
	// SendResult dispatches a command returning a result.
	SendResult(ctx context.Context, cmd any) (any, error)
}

// Querier dispatches queries.
type Querier interface {
	Query(ctx context.Context, query any) (any, error)
}

// Dispatcher dispatches commands and queries and exposes the request kinds it serves.
type Dispatcher interface {
	Sender
	Querier
	// KindOf returns the registered kind of the request type key.
	KindOf(key TypeKey) (Kind, bool)
}

// Config configures a Mediator.
type Config struct {
	// Logger receives routing failures at warn level and compiled chains
	// at debug level. Defaults to slog.Default().
	Logger Logger
}

func (c Config) parse() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Mediator routes requests to the chain compiled for their concrete type.
// It is safe for concurrent use.
type Mediator struct {
	table  *Table
	logger Logger
}

// New creates a Mediator serving table.
func New(table *Table, cfg Config) *Mediator {
	cfg = cfg.parse()
	if table == nil {
		table = newTable(nil)
	}
	return &Mediator{
		table:  table,
		logger: cfg.Logger,
	}
}

// Build seals reg, compiles it against p and creates a Mediator.
func Build(reg *Registry, p InstanceProvider, cfg Config) (*Mediator, error) {
	cfg = cfg.parse()
	table, err := Compile(reg.Seal(), p)
	if err != nil {
		return nil, err
	}
	for _, c := range table.Chains() {
		cfg.Logger.Debug("mediator: chain compiled",
			"request", c.request.Type.String(),
			"kind", c.request.Kind.String(),
			"links", c.Links())
	}
	return New(table, cfg), nil
}

// Table returns the dispatch table.
func (m *Mediator) Table() *Table {
	return m.table
}

// KindOf implements Dispatcher.
func (m *Mediator) KindOf(key TypeKey) (Kind, bool) {
	c, ok := m.table.Lookup(key)
	if !ok {
		return 0, false
	}
	return c.request.Kind, true
}

// Send dispatches a command without result.
func (m *Mediator) Send(ctx context.Context, cmd any) error {
	_, err := m.dispatch(ctx, cmd, "Send", func(k Kind) bool {
		return k == KindCommand
	})
	return err
}

// SendResult dispatches a command returning a result.
func (m *Mediator) SendResult(ctx context.Context, cmd any) (any, error) {
	return m.dispatch(ctx, cmd, "SendResult", func(k Kind) bool {
		return k == KindCommandResult
	})
}

// Query dispatches a query.
func (m *Mediator) Query(ctx context.Context, query any) (any, error) {
	return m.dispatch(ctx, query, "Query", func(k Kind) bool {
		return k == KindQuery
	})
}

func (m *Mediator) dispatch(ctx context.Context, req any, call string, accepts func(Kind) bool) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := KeyOfValue(req)
	if key.IsZero() {
		m.logger.Warn("mediator: nil request", "call", call)
		return nil, unroutable(key)
	}
	c, ok := m.table.Lookup(key)
	if !ok {
		m.logger.Warn("mediator: unroutable request", "call", call, "request", key.String())
		return nil, unroutable(key)
	}
	if !accepts(c.request.Kind) {
		m.logger.Warn("mediator: kind mismatch", "call", call, "request", key.String(), "kind", c.request.Kind.String())
		return nil, kindMismatch(key, c.request.Kind, call)
	}

	ctx = ContextWithRequestInfo(ctx, RequestInfo{
		Type: key,
		Kind: c.request.Kind,
		Tags: c.request.Tags,
	})
	return c.invoke(ctx, req)
}

// SendAs dispatches a command returning a result of type R.
func SendAs[R any](ctx context.Context, s Sender, cmd any) (R, error) {
	res, err := s.SendResult(ctx, cmd)
	return as[R](res, err, cmd)
}

// QueryAs dispatches a query returning a result of type R.
func QueryAs[R any](ctx context.Context, q Querier, query any) (R, error) {
	res, err := q.Query(ctx, query)
	return as[R](res, err, query)
}

func as[R any](res any, err error, req any) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %T returned %T, want %s", ErrKindMismatch, req, res, KeyOf[R]())
	}
	return r, nil
}

var _ Dispatcher = (*Mediator)(nil)
