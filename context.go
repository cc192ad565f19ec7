package mediator

import (
	"context"
	"slices"
)

type requestInfoKey struct{}

// RequestInfo describes the request being dispatched.
// The Mediator stores it in the context passed to every link.
type RequestInfo struct {
	// Type is the concrete request type.
	Type TypeKey
	// Kind is the registered call shape.
	Kind Kind
	// Tags is the capability set of the request type.
	Tags []Tag
}

// HasTag reports whether the request carries tag.
// TagAny is carried by every request.
func (i RequestInfo) HasTag(tag Tag) bool {
	return tag == TagAny || slices.Contains(i.Tags, tag)
}

// ContextWithRequestInfo returns a copy of ctx carrying info.
func ContextWithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the RequestInfo stored in ctx.
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}
