package behavior

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxsml/mediator"
)

// ErrValidation is returned when a request fails validation.
var ErrValidation = errors.New("validation failed")

// Validator is implemented by requests that can check themselves.
type Validator interface {
	Validate() error
}

// Validate rejects requests implementing Validator whose Validate fails.
// Rejected requests never reach the handler. Other requests pass through.
func Validate() mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		if v, ok := req.(Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrValidation, requestInfo(ctx, req).Type.Name(), err)
			}
		}
		return next(ctx)
	})
}
