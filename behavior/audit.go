package behavior

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fxsml/mediator"
)

// AuditEvent records one dispatch.
type AuditEvent struct {
	Request       string
	Kind          string
	CorrelationID string
	TraceID       string
	SpanID        string
	Outcome       string
	Error         string
	Duration      time.Duration
	CreatedAt     time.Time
}

// AuditSink persists audit events.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent) error
}

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc func(ctx context.Context, event AuditEvent) error

func (f AuditSinkFunc) Emit(ctx context.Context, event AuditEvent) error {
	return f(ctx, event)
}

// Audit emits an AuditEvent to sink after everything inward returned.
// Sink failures are logged and never change the outcome. A panic inward is
// recorded as a failure and re-raised.
func Audit(sink AuditSink, log mediator.Logger) mediator.Behavior {
	if log == nil {
		log = mediator.NopLogger()
	}
	emit := func(ctx context.Context, req any, start time.Time, err error) {
		m := &Metrics{Error: err}
		info := requestInfo(ctx, req)
		event := AuditEvent{
			Request:       info.Type.String(),
			Kind:          info.Kind.String(),
			CorrelationID: CorrelationIDFromContext(ctx),
			Outcome:       m.Outcome(),
			Duration:      time.Since(start),
			CreatedAt:     start.UTC(),
		}
		if err != nil {
			event.Error = err.Error()
		}
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			event.TraceID = sc.TraceID().String()
			event.SpanID = sc.SpanID().String()
		}

		if emitErr := sink.Emit(context.WithoutCancel(ctx), event); emitErr != nil {
			log.Error("MEDIATOR: Audit emit failed", "request", event.Request, "error", emitErr)
		}
	}

	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		if sink == nil {
			return next(ctx)
		}

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				panicked := recoveryError(r)
				emit(ctx, req, start, panicked)
				panic(panicked)
			}
		}()

		res, err := next(ctx)
		emit(ctx, req, start, err)
		return res, err
	})
}
