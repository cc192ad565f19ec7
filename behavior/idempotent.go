package behavior

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxsml/mediator"
)

// ErrDuplicateRequest is returned when an idempotency key was already claimed.
var ErrDuplicateRequest = errors.New("duplicate request")

// IdempotencyKeyer is implemented by requests that must run at most once per key.
type IdempotencyKeyer interface {
	IdempotencyKey() string
}

// IdempotencyStore claims idempotency keys.
type IdempotencyStore interface {
	// Claim marks key as taken for ttl and reports whether it was free.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees key.
	Release(ctx context.Context, key string) error
}

// IdempotencyConfig configures the idempotency behavior.
type IdempotencyConfig struct {
	// TTL is how long a claim is held. Default is 24 hours.
	TTL time.Duration
}

func (c IdempotencyConfig) parse() IdempotencyConfig {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	return c
}

// Idempotent lets requests implementing IdempotencyKeyer through once per key
// and TTL. Later requests with the same key fail with ErrDuplicateRequest.
// A failed dispatch releases its claim so it can be repeated. Requests with an
// empty key and other requests pass through.
func Idempotent(store IdempotencyStore, config IdempotencyConfig) mediator.Behavior {
	config = config.parse()
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		k, ok := req.(IdempotencyKeyer)
		if !ok || k.IdempotencyKey() == "" {
			return next(ctx)
		}
		key := requestInfo(ctx, req).Type.String() + ":" + k.IdempotencyKey()

		claimed, err := store.Claim(ctx, key, config.TTL)
		if err != nil {
			return nil, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !claimed {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRequest, key)
		}

		res, err := next(ctx)
		if err != nil {
			if releaseErr := store.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
				return nil, errors.Join(err, fmt.Errorf("release idempotency key: %w", releaseErr))
			}
			return nil, err
		}
		return res, nil
	})
}
