package behavior

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fxsml/mediator"
)

// TracerName is the instrumentation name used when Trace is given no tracer.
const TracerName = "github.com/fxsml/mediator/behavior"

// Trace starts one span per dispatch named "mediator <kind> <type>".
// Failures are recorded on the span and set its status to error.
// A nil tracer uses the global tracer provider.
func Trace(tracer trace.Tracer) mediator.Behavior {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return mediator.BehaviorFunc(func(ctx context.Context, req any, next mediator.Next) (any, error) {
		info := requestInfo(ctx, req)
		attrs := []attribute.KeyValue{
			attribute.String("mediator.request", info.Type.String()),
			attribute.String("mediator.kind", info.Kind.String()),
		}
		if id := CorrelationIDFromContext(ctx); id != "" {
			attrs = append(attrs, attribute.String("mediator.correlation_id", id))
		}

		ctx, span := tracer.Start(ctx, "mediator "+info.Kind.String()+" "+info.Type.Name(),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		res, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return res, err
		}
		span.SetStatus(codes.Ok, "")
		return res, nil
	})
}
