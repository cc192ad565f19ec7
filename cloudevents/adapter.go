// Package cloudevents exposes a mediator as a CloudEvents endpoint.
//
// Each registered event type maps to one request type. Incoming event data
// is decoded as JSON into the request, dispatched according to the request
// kind, and the result is answered as a "<type>.result" event. Void commands
// are answered without an event.
//
//	a := cloudevents.NewAdapter(m, cloudevents.Config{Source: "/users"})
//	_ = cloudevents.Register[sample.CreateUserCommand](a, "")
//	http.Handle("/events", a)
package cloudevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	ce "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/fxsml/mediator"
	"github.com/fxsml/mediator/behavior"
)

var (
	// ErrUnknownEventType is returned for event types without a route.
	ErrUnknownEventType = errors.New("cloudevents: unknown event type")
	// ErrInvalidEventData is returned when event data does not decode into the request.
	ErrInvalidEventData = errors.New("cloudevents: invalid event data")
	// ErrDuplicateRoute is returned when an event type is registered twice.
	ErrDuplicateRoute = errors.New("cloudevents: duplicate route")
)

// ExtCorrelationID is the extension attribute carrying the correlation ID.
const ExtCorrelationID = "correlationid"

// ResultSuffix is appended to the request event type to form the response type.
const ResultSuffix = ".result"

// Config configures an Adapter.
type Config struct {
	// Source is the source attribute of response events. Defaults to "/mediator".
	Source string
	// Naming derives event types for routes registered without one.
	// Defaults to DotNaming.
	Naming NamingStrategy
	// Logger receives rejected events at warn level. Defaults to slog.Default().
	Logger mediator.Logger
}

func (c Config) parse() Config {
	if c.Source == "" {
		c.Source = "/mediator"
	}
	if c.Naming == nil {
		c.Naming = DotNaming
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

type route struct {
	request mediator.TypeKey
	decode  func(data []byte) (any, error)
}

// Adapter dispatches CloudEvents through a mediator.
type Adapter struct {
	dispatcher mediator.Dispatcher
	cfg        Config

	mu     sync.RWMutex
	routes map[string]route
}

// NewAdapter creates an Adapter dispatching through d.
func NewAdapter(d mediator.Dispatcher, cfg Config) *Adapter {
	return &Adapter{
		dispatcher: d,
		cfg:        cfg.parse(),
		routes:     make(map[string]route),
	}
}

// Register routes events of eventType to the request type T.
// An empty eventType is derived from T by the configured NamingStrategy.
func Register[T any](a *Adapter, eventType string) error {
	key := mediator.KeyOf[T]()
	if eventType == "" {
		eventType = a.cfg.Naming.TypeName(key)
	}
	if eventType == "" {
		return fmt.Errorf("cloudevents: no event type for %s", key)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if r, ok := a.routes[eventType]; ok {
		return fmt.Errorf("%w: %s is routed to %s", ErrDuplicateRoute, eventType, r.request)
	}
	a.routes[eventType] = route{
		request: key,
		decode: func(data []byte) (any, error) {
			var req T
			if len(data) == 0 {
				return req, nil
			}
			if err := json.Unmarshal(data, &req); err != nil {
				return nil, err
			}
			return req, nil
		},
	}
	return nil
}

// Types returns the registered event types in sorted order.
func (a *Adapter) Types() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	types := make([]string, 0, len(a.routes))
	for t := range a.routes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Handle dispatches event and returns the response event.
// The response is nil for void commands.
func (a *Adapter) Handle(ctx context.Context, event ce.Event) (*ce.Event, error) {
	a.mu.RLock()
	r, ok := a.routes[event.Type()]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type())
	}

	req, err := r.decode(event.Data())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEventData, event.Type(), err)
	}

	correlationID, _ := event.Extensions()[ExtCorrelationID].(string)
	if correlationID == "" {
		correlationID = behavior.CorrelationIDFromContext(ctx)
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = behavior.ContextWithCorrelationID(ctx, correlationID)

	kind, _ := a.dispatcher.KindOf(r.request)
	var res any
	switch kind {
	case mediator.KindCommand:
		return nil, a.dispatcher.Send(ctx, req)
	case mediator.KindCommandResult:
		res, err = a.dispatcher.SendResult(ctx, req)
	default:
		res, err = a.dispatcher.Query(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	return a.response(event, res, correlationID)
}

func (a *Adapter) response(in ce.Event, res any, correlationID string) (*ce.Event, error) {
	out := ce.NewEvent()
	out.SetID(uuid.NewString())
	out.SetType(in.Type() + ResultSuffix)
	out.SetSource(a.cfg.Source)
	out.SetTime(time.Now().UTC())
	if in.Subject() != "" {
		out.SetSubject(in.Subject())
	}
	if correlationID != "" {
		out.SetExtension(ExtCorrelationID, correlationID)
	}
	if err := out.SetData(ce.ApplicationJSON, res); err != nil {
		return nil, fmt.Errorf("encode %s response: %w", in.Type(), err)
	}
	return &out, nil
}

// Receive is a receiver for ce.Client.StartReceiver.
func (a *Adapter) Receive(ctx context.Context, event ce.Event) (*ce.Event, ce.Result) {
	out, err := a.Handle(ctx, event)
	if err != nil {
		a.cfg.Logger.Warn("cloudevents: event rejected", "type", event.Type(), "id", event.ID(), "error", err)
		return nil, ce.NewHTTPResult(StatusCode(err), "%v", err)
	}
	return out, ce.ResultACK
}

// ServeHTTP accepts binary or structured CloudEvents and writes the response
// event in structured JSON mode.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	event, err := ce.NewEventFromHTTPRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := a.Handle(r.Context(), *event)
	if err != nil {
		a.cfg.Logger.Warn("cloudevents: event rejected", "type", event.Type(), "id", event.ID(), "error", err)
		http.Error(w, err.Error(), StatusCode(err))
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	body, err := json.Marshal(out)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/cloudevents+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// StatusCode maps dispatch errors to HTTP status codes.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownEventType), errors.Is(err, mediator.ErrUnroutableRequest):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidEventData), errors.Is(err, behavior.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, behavior.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, behavior.ErrRequestExpired):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

var _ http.Handler = (*Adapter)(nil)
