package behavior_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/fxsml/mediator"
)

type ping struct {
	ID      string
	Invalid bool
	Key     string
	Corr    string
}

func (p ping) Validate() error {
	if p.Invalid {
		return fmt.Errorf("id %q is invalid", p.ID)
	}
	return nil
}

func (p ping) IdempotencyKey() string { return p.Key }

func (p ping) CorrelationID() string { return p.Corr }

type pong struct {
	ID string
}

type handleFunc func(ctx context.Context, p ping) (pong, error)

func echo(ctx context.Context, p ping) (pong, error) {
	return pong{ID: p.ID}, nil
}

// newMediator serves ping with h wrapped by behaviors, first outermost.
func newMediator(t *testing.T, h handleFunc, behaviors ...mediator.Behavior) *mediator.Mediator {
	t.Helper()

	c := mediator.NewContainer()
	mediator.BindQueryHandler[ping, pong](c, "ping", mediator.QueryHandlerFunc[ping, pong](h))

	ids := make([]mediator.Identity, len(behaviors))
	for i, b := range behaviors {
		ids[i] = mediator.Identity(fmt.Sprintf("b%d", i))
		c.BindInstance(ids[i], b)
	}

	reg := mediator.NewRegistry()
	if err := reg.RegisterHandler(mediator.DescribeQuery[ping, pong]("ping", mediator.WithBehaviors(ids...))); err != nil {
		t.Fatalf("RegisterHandler() error = %v", err)
	}
	m, err := mediator.Build(reg, c, mediator.Config{Logger: mediator.NopLogger()})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type testLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *testLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *testLogger) Debug(msg string, args ...any) { l.log("debug", msg, args...) }
func (l *testLogger) Info(msg string, args ...any)  { l.log("info", msg, args...) }
func (l *testLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args...) }
func (l *testLogger) Error(msg string, args ...any) { l.log("error", msg, args...) }

func (l *testLogger) get() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logEntry(nil), l.entries...)
}
