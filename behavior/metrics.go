package behavior

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fxsml/mediator"
)

// Metrics holds the measurements of a single dispatch.
type Metrics struct {
	Start    time.Time
	Duration time.Duration
	InFlight int

	Request       mediator.RequestInfo
	CorrelationID string
	RetryState    *RetryState

	Error error
}

// Success returns a numeric indicator of success (1 for success, 0 otherwise).
func (m *Metrics) Success() int {
	if m.Error == nil {
		return 1
	}
	return 0
}

// Failure returns a numeric indicator of failure (1 for failure, 0 otherwise).
// Cancellation is not a failure.
func (m *Metrics) Failure() int {
	if m.Error != nil && m.Cancel() == 0 {
		return 1
	}
	return 0
}

// Cancel returns a numeric indicator of cancellation (1 for cancel, 0 otherwise).
func (m *Metrics) Cancel() int {
	if errors.Is(m.Error, context.Canceled) || errors.Is(m.Error, context.DeadlineExceeded) {
		return 1
	}
	return 0
}

// Retry returns a numeric indicator of retry exhaustion (1 for retry, 0 otherwise).
func (m *Metrics) Retry() int {
	if errors.Is(m.Error, ErrRetry) {
		return 1
	}
	return 0
}

// Outcome returns "success", "failure" or "cancel".
func (m *Metrics) Outcome() string {
	switch {
	case m.Error == nil:
		return "success"
	case m.Cancel() == 1:
		return "cancel"
	default:
		return "failure"
	}
}

// MetricsCollector defines a function that collects single dispatch metrics.
type MetricsCollector func(metrics *Metrics)

// Measure collects duration, in-flight count and outcome of everything inward.
// A panic inward is collected as a RecoveryError failure and re-raised.
func Measure(collect MetricsCollector) mediator.Behavior {
	inFlight := atomic.Int32{}
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		m := &Metrics{
			Start:         time.Now(),
			InFlight:      int(inFlight.Add(1)),
			Request:       requestInfo(ctx, req),
			CorrelationID: CorrelationIDFromContext(ctx),
			RetryState:    RetryStateFromContext(ctx),
		}

		defer func() {
			var panicked *RecoveryError
			if r := recover(); r != nil {
				panicked = recoveryError(r)
				m.Error = panicked
			}

			m.Duration = time.Since(m.Start)
			inFlight.Add(-1)
			if m.RetryState != nil {
				m.RetryState.Duration = time.Since(m.RetryState.Start)
			}
			collect(m)

			if panicked != nil {
				panic(panicked)
			}
		}()

		res, err := next(ctx)
		m.Error = err
		return res, err
	})
}

// DistributeMetrics creates a collector that distributes metrics to multiple collectors.
func DistributeMetrics(collectors ...MetricsCollector) MetricsCollector {
	return func(m *Metrics) {
		for _, c := range collectors {
			c(m)
		}
	}
}

// Counters aggregates dispatch metrics. It is safe for concurrent use.
type Counters struct {
	success  atomic.Int64
	failure  atomic.Int64
	cancel   atomic.Int64
	duration atomic.Int64
}

// Collect implements MetricsCollector.
func (c *Counters) Collect(m *Metrics) {
	c.success.Add(int64(m.Success()))
	c.failure.Add(int64(m.Failure()))
	c.cancel.Add(int64(m.Cancel()))
	c.duration.Add(int64(m.Duration))
}

// Snapshot returns the current totals.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Success:  c.success.Load(),
		Failure:  c.failure.Load(),
		Cancel:   c.cancel.Load(),
		Duration: time.Duration(c.duration.Load()),
	}
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Success  int64
	Failure  int64
	Cancel   int64
	Duration time.Duration
}

// Total returns the number of collected dispatches.
func (s CounterSnapshot) Total() int64 {
	return s.Success + s.Failure + s.Cancel
}
