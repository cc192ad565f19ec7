package mediator

import (
	"reflect"
	"slices"
)

// Identity names a handler or behavior template.
// The InstanceProvider resolves identities to concrete instances.
type Identity string

// Tag is a capability marker carried by request types.
// Contract behaviors target tags, not request types.
type Tag string

// TagAny targets every registered request type.
const TagAny Tag = "*"

// TypeKey is the stable identity of a concrete Go type.
// It is comparable and used as the dispatch table key.
type TypeKey struct {
	rt reflect.Type
}

// KeyOf returns the TypeKey of T.
func KeyOf[T any]() TypeKey {
	return TypeKey{rt: reflect.TypeFor[T]()}
}

// KeyOfValue returns the TypeKey of the dynamic type of v.
// The zero TypeKey is returned for a nil interface.
func KeyOfValue(v any) TypeKey {
	return TypeKey{rt: reflect.TypeOf(v)}
}

// IsZero reports whether k identifies no type.
func (k TypeKey) IsZero() bool {
	return k.rt == nil
}

func (k TypeKey) isInterface() bool {
	return k.rt != nil && k.rt.Kind() == reflect.Interface
}

// Name returns the unqualified type name, e.g. "CreateUserCommand".
// Pointer types are prefixed with "*".
func (k TypeKey) Name() string {
	if k.rt == nil {
		return "<nil>"
	}
	t, prefix := k.rt, ""
	for t.Kind() == reflect.Pointer {
		prefix += "*"
		t = t.Elem()
	}
	if t.Name() == "" {
		return prefix + t.String()
	}
	return prefix + t.Name()
}

// String returns the package-qualified type name, e.g. "sample.CreateUserCommand".
func (k TypeKey) String() string {
	if k.rt == nil {
		return "<nil>"
	}
	return k.rt.String()
}

// TypeArgs are the type arguments a template is bound to.
type TypeArgs struct {
	Request TypeKey
	Result  TypeKey
}

func (a TypeArgs) String() string {
	return "[" + a.Request.String() + ", " + a.Result.String() + "]"
}

// Void is the result type of commands that return nothing.
type Void struct{}

// Kind classifies a request type by its call shape.
type Kind int

const (
	// KindCommand is a command without result.
	KindCommand Kind = iota + 1
	// KindCommandResult is a command returning a result.
	KindCommandResult
	// KindQuery is a query returning a result.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindCommandResult:
		return "command-result"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// IsCommand reports whether k is one of the command kinds.
func (k Kind) IsCommand() bool {
	return k == KindCommand || k == KindCommandResult
}

// RequestDescriptor holds the registration facts of one request type.
type RequestDescriptor struct {
	// Type is the concrete request type.
	Type TypeKey
	// Kind is the call shape of the request.
	Kind Kind
	// Result is the result type. Zero for KindCommand.
	Result TypeKey
	// Tags is the capability set of the request type.
	Tags []Tag
	// Behaviors are request-specific behavior templates in declaration order.
	Behaviors []Identity
}

// HasTag reports whether the capability set contains tag.
// TagAny is carried by every request.
func (d RequestDescriptor) HasTag(tag Tag) bool {
	return tag == TagAny || slices.Contains(d.Tags, tag)
}

// Args returns the type arguments templates are bound to for this request.
func (d RequestDescriptor) Args() TypeArgs {
	result := d.Result
	if d.Kind == KindCommand {
		result = KeyOf[Void]()
	}
	return TypeArgs{Request: d.Type, Result: result}
}

func (d RequestDescriptor) clone() RequestDescriptor {
	d.Tags = slices.Clone(d.Tags)
	d.Behaviors = slices.Clone(d.Behaviors)
	return d
}

// RequestOption configures a RequestDescriptor.
type RequestOption func(*RequestDescriptor)

// WithTags adds capability tags to the request type.
func WithTags(tags ...Tag) RequestOption {
	return func(d *RequestDescriptor) {
		d.Tags = append(d.Tags, tags...)
	}
}

// WithBehaviors declares request-specific behaviors.
// The first declared behavior runs outermost among them.
func WithBehaviors(templates ...Identity) RequestOption {
	return func(d *RequestDescriptor) {
		d.Behaviors = append(d.Behaviors, templates...)
	}
}

// BehaviorDescriptor binds a behavior template to a capability tag.
type BehaviorDescriptor struct {
	// Template identifies the behavior for the InstanceProvider.
	Template Identity
	// Tag is the capability the behavior applies to.
	Tag Tag
	// Order sorts behaviors ascending; the smallest runs outermost.
	Order int
	// Sequence is assigned on registration and breaks Order ties.
	Sequence uint64
}
