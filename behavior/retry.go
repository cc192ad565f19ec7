package behavior

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/fxsml/mediator"
)

var (
	// ErrRetry is the base error of the retry behavior.
	ErrRetry = errors.New("mediator retry")
	// ErrRetryMaxAttempts is returned when every attempt failed.
	ErrRetryMaxAttempts = fmt.Errorf("%w: max attempts reached", ErrRetry)
	// ErrRetryTimeout is returned when the retry budget ran out.
	ErrRetryTimeout = fmt.Errorf("%w: timeout reached", ErrRetry)
	// ErrRetryNotRetryable is returned when ShouldRetry rejected a failure.
	ErrRetryNotRetryable = fmt.Errorf("%w: not retryable", ErrRetry)
)

// BackoffFunc returns the wait before retry number attempt, starting at 1.
type BackoffFunc func(attempt int) time.Duration

// ConstantBackoff waits delay between attempts. A jitter of 0.2 varies the
// delay by ±20%.
func ConstantBackoff(delay time.Duration, jitter float64) BackoffFunc {
	j := jitterFunc(jitter)
	return func(int) time.Duration {
		return j(delay)
	}
}

// ExponentialBackoff waits initialDelay*factor^(attempt-1), capped at
// maxDelay unless it is zero, with jitter applied after the cap.
func ExponentialBackoff(initialDelay time.Duration, factor float64, maxDelay time.Duration, jitter float64) BackoffFunc {
	j := jitterFunc(jitter)
	return func(attempt int) time.Duration {
		d := time.Duration(float64(initialDelay) * math.Pow(factor, float64(attempt-1)))
		if maxDelay > 0 {
			d = min(d, maxDelay)
		}
		return j(d)
	}
}

func jitterFunc(jitter float64) func(time.Duration) time.Duration {
	jitter = min(max(jitter, 0), 1)
	return func(d time.Duration) time.Duration {
		if jitter == 0 {
			return d
		}
		return time.Duration(float64(d) * (1 + jitter*(2*rand.Float64()-1)))
	}
}

// ShouldRetryFunc reports whether a failed attempt is retried.
type ShouldRetryFunc func(error) bool

// ShouldRetry retries failures matching one of errs, or every failure
// when errs is empty.
func ShouldRetry(errs ...error) ShouldRetryFunc {
	return func(err error) bool {
		return len(errs) == 0 || matchesAny(err, errs)
	}
}

// ShouldNotRetry retries every failure except those matching one of errs.
// With errs empty nothing is retried.
func ShouldNotRetry(errs ...error) ShouldRetryFunc {
	return func(err error) bool {
		return len(errs) > 0 && !matchesAny(err, errs)
	}
}

func matchesAny(err error, targets []error) bool {
	return slices.ContainsFunc(targets, func(target error) bool {
		return errors.Is(err, target)
	})
}

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// ShouldRetry selects the failures that are retried. Defaults to every
	// failure except ErrValidation, ErrDuplicateRequest, ErrRequestExpired
	// and context.Canceled.
	ShouldRetry ShouldRetryFunc
	// Backoff is the wait between attempts. Defaults to 1s ±20%.
	Backoff BackoffFunc
	// MaxAttempts counts the first attempt. Defaults to 3; negative is unlimited.
	MaxAttempts int
	// Timeout bounds all attempts together. Defaults to 1 minute.
	Timeout time.Duration
}

func (c RetryConfig) parse() RetryConfig {
	if c.ShouldRetry == nil {
		c.ShouldRetry = ShouldNotRetry(ErrValidation, ErrDuplicateRequest, ErrRequestExpired, context.Canceled)
	}
	if c.Backoff == nil {
		c.Backoff = ConstantBackoff(time.Second, 0.2)
	}
	switch {
	case c.MaxAttempts == 0:
		c.MaxAttempts = 3
	case c.MaxAttempts < 0:
		c.MaxAttempts = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Minute
	}
	return c
}

// RetryState is the progress of one retried dispatch. Inner links read it
// with RetryStateFromContext, callers with RetryStateFromError.
type RetryState struct {
	// Timeout and MaxAttempts are the effective limits.
	Timeout     time.Duration
	MaxAttempts int
	// Start is when the first attempt began.
	Start time.Time
	// Attempts counts attempts made so far, starting at 1.
	Attempts int
	// Duration is the time spent since Start.
	Duration time.Duration
	// Causes holds the failure of every attempt in order.
	Causes []error
	// Err is the reason retrying stopped.
	Err error
}

type retryStateKey struct{}

// RetryStateFromContext returns the state of the enclosing retry behavior,
// or nil outside of one.
func RetryStateFromContext(ctx context.Context) *RetryState {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(retryStateKey{}).(*RetryState)
	return s
}

// RetryError is returned by the retry behavior once it gives up.
// It unwraps to the stop reason and every attempt's failure.
type RetryError struct {
	State *RetryState
}

func (e *RetryError) Error() string {
	if n := len(e.State.Causes); n > 0 {
		return fmt.Sprintf("%s: %s", e.State.Err, e.State.Causes[n-1])
	}
	return e.State.Err.Error()
}

func (e *RetryError) Unwrap() []error {
	return append([]error{e.State.Err}, e.State.Causes...)
}

// RetryStateFromError returns the state carried by a RetryError in err's
// tree, or nil.
func RetryStateFromError(err error) *RetryState {
	var e *RetryError
	if errors.As(err, &e) {
		return e.State
	}
	return nil
}

func (s *RetryState) attempt(ctx context.Context) context.Context {
	s.Attempts++
	return context.WithValue(ctx, retryStateKey{}, s)
}

func (s *RetryState) fail(err error) {
	s.Duration = time.Since(s.Start)
	s.Causes = append(s.Causes, err)
}

func (s *RetryState) stop(reason error) error {
	s.Duration = time.Since(s.Start)
	s.Err = reason
	return &RetryError{State: s}
}

// Retry calls next again while it fails with a retryable error, waiting
// Backoff between attempts, until MaxAttempts or Timeout is reached.
// Cancellation of ctx stops retrying.
func Retry(cfg RetryConfig) mediator.Behavior {
	cfg = cfg.parse()
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		state := &RetryState{
			Timeout:     cfg.Timeout,
			MaxAttempts: cfg.MaxAttempts,
			Start:       time.Now(),
		}
		deadline := state.Start.Add(cfg.Timeout)

		for {
			res, err := next(state.attempt(ctx))
			if err == nil {
				return res, nil
			}
			state.fail(err)

			switch {
			case !cfg.ShouldRetry(err):
				return nil, state.stop(ErrRetryNotRetryable)
			case cfg.MaxAttempts > 0 && state.Attempts >= cfg.MaxAttempts:
				return nil, state.stop(ErrRetryMaxAttempts)
			}

			wait := cfg.Backoff(state.Attempts)
			if time.Until(deadline) < wait {
				return nil, state.stop(ErrRetryTimeout)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, state.stop(ctx.Err())
			case <-timer.C:
			}
		}
	})
}
