package behavior

import (
	"context"

	"github.com/google/uuid"

	"github.com/fxsml/mediator"
)

type correlationIDKey struct{}

// Correlator is implemented by requests carrying their own correlation ID.
type Correlator interface {
	CorrelationID() string
}

// ContextWithCorrelationID returns a copy of ctx carrying id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation ID of ctx or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// Correlation ensures a correlation ID in the context of everything inward.
// An ID already in the context is kept; otherwise the request's own ID is
// used if it implements Correlator; otherwise a new UUID is generated.
func Correlation() mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		if CorrelationIDFromContext(ctx) != "" {
			return next(ctx)
		}
		var id string
		if c, ok := req.(Correlator); ok {
			id = c.CorrelationID()
		}
		if id == "" {
			id = uuid.NewString()
		}
		return next(ContextWithCorrelationID(ctx, id))
	})
}
