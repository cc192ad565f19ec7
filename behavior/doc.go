// Package behavior provides reusable open behaviors for the mediator.
//
// Every constructor returns a [mediator.Behavior] that binds to any request
// and result type, so it can be used as a contract behavior targeting a tag
// or as a request-specific behavior:
//
//	c.BindInstance("recover", behavior.Recover())
//	c.BindInstance("log", behavior.Log(slog.Default(), behavior.LogConfig{}))
//	_ = reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: "recover", Tag: mediator.TagAny, Order: -100})
//
// Behaviors read the dispatched request type and kind from
// [mediator.RequestInfoFromContext]. When a chain is invoked directly,
// the type is taken from the request value instead.
package behavior

import (
	"context"

	"github.com/fxsml/mediator"
)

func requestInfo(ctx context.Context, req any) mediator.RequestInfo {
	if info, ok := mediator.RequestInfoFromContext(ctx); ok {
		return info
	}
	return mediator.RequestInfo{Type: mediator.KeyOfValue(req)}
}
