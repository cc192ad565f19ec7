package behavior

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxsml/mediator"
)

// ErrRequestExpired is returned when a request's expiry time has passed.
var ErrRequestExpired = errors.New("request expired")

// Expirer is implemented by requests carrying an expiry time.
// A zero time means the request never expires.
type Expirer interface {
	ExpiryTime() time.Time
}

// Timeout bounds everything inward with a per-call timeout.
// Each call gets a fresh timeout context derived from the parent context.
// Zero or negative duration disables the timeout.
func Timeout(d time.Duration) mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		if d <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	})
}

// Deadline enforces the expiry time of requests implementing Expirer.
// Sets a context deadline and returns ErrRequestExpired if the request expires.
// Other requests pass through unchanged.
func Deadline() mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		e, ok := req.(Expirer)
		if !ok {
			return next(ctx)
		}
		expiry := e.ExpiryTime()
		if expiry.IsZero() {
			return next(ctx)
		}

		if time.Now().After(expiry) {
			return nil, ErrRequestExpired
		}

		ctx, cancel := context.WithDeadline(ctx, expiry)
		defer cancel()

		res, err := next(ctx)
		expired := time.Now().After(expiry)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && expired {
			return nil, fmt.Errorf("%w: %w", ErrRequestExpired, err)
		}
		return res, err
	})
}
