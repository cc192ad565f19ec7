package cloudevents_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ce "github.com/cloudevents/sdk-go/v2"

	"github.com/fxsml/mediator"
	"github.com/fxsml/mediator/behavior"
	"github.com/fxsml/mediator/cloudevents"
)

type CreateUser struct {
	Name string `json:"name"`
}

func (c CreateUser) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type DeleteUser struct {
	ID int `json:"id"`
}

type GetUser struct {
	ID int `json:"id"`
}

func newAdapter(t *testing.T) (*cloudevents.Adapter, *[]int) {
	t.Helper()
	var deleted []int

	reg := mediator.NewRegistry()
	_ = reg.RegisterHandler(mediator.DescribeCommandResult[CreateUser, User]("create", mediator.WithTags("validated")))
	_ = reg.RegisterHandler(mediator.DescribeCommand[DeleteUser]("delete"))
	_ = reg.RegisterHandler(mediator.DescribeQuery[GetUser, User]("get"))
	_ = reg.RegisterBehavior(mediator.BehaviorDescriptor{Template: "validate", Tag: "validated"})

	c := mediator.NewContainer()
	c.BindInstance("validate", behavior.Validate())
	mediator.BindCommandResultHandler[CreateUser, User](c, "create", mediator.CommandResultHandlerFunc[CreateUser, User](
		func(ctx context.Context, cmd CreateUser) (User, error) {
			return User{ID: 1, Name: cmd.Name}, nil
		}))
	mediator.BindCommandHandler[DeleteUser](c, "delete", mediator.CommandHandlerFunc[DeleteUser](
		func(ctx context.Context, cmd DeleteUser) error {
			deleted = append(deleted, cmd.ID)
			return nil
		}))
	mediator.BindQueryHandler[GetUser, User](c, "get", mediator.QueryHandlerFunc[GetUser, User](
		func(ctx context.Context, q GetUser) (User, error) {
			return User{ID: q.ID, Name: behavior.CorrelationIDFromContext(ctx)}, nil
		}))

	m, err := mediator.Build(reg, c, mediator.Config{Logger: mediator.NopLogger()})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	a := cloudevents.NewAdapter(m, cloudevents.Config{Source: "/test", Logger: mediator.NopLogger()})
	for _, err := range []error{
		cloudevents.Register[CreateUser](a, "user.create"),
		cloudevents.Register[DeleteUser](a, ""),
		cloudevents.Register[GetUser](a, ""),
	} {
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return a, &deleted
}

func newEvent(t *testing.T, eventType string, data any) ce.Event {
	t.Helper()
	e := ce.NewEvent()
	e.SetID("1")
	e.SetType(eventType)
	e.SetSource("/client")
	if data != nil {
		if err := e.SetData(ce.ApplicationJSON, data); err != nil {
			t.Fatalf("SetData() error = %v", err)
		}
	}
	return e
}

func TestAdapter_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("command with result answers a result event", func(t *testing.T) {
		a, _ := newAdapter(t)
		in := newEvent(t, "user.create", CreateUser{Name: "Ann"})
		in.SetExtension(cloudevents.ExtCorrelationID, "c-1")

		out, err := a.Handle(ctx, in)
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if out.Type() != "user.create.result" || out.Source() != "/test" {
			t.Errorf("response type/source = %q/%q", out.Type(), out.Source())
		}
		if got := out.Extensions()[cloudevents.ExtCorrelationID]; got != "c-1" {
			t.Errorf("correlationid = %v, want c-1", got)
		}
		var user User
		if err := out.DataAs(&user); err != nil {
			t.Fatalf("DataAs() error = %v", err)
		}
		if user != (User{ID: 1, Name: "Ann"}) {
			t.Errorf("response data = %+v", user)
		}
	})

	t.Run("void command answers no event", func(t *testing.T) {
		a, deleted := newAdapter(t)

		out, err := a.Handle(ctx, newEvent(t, "delete.user", DeleteUser{ID: 4}))
		if err != nil || out != nil {
			t.Fatalf("Handle() = %v, %v, want nil, nil", out, err)
		}
		if len(*deleted) != 1 || (*deleted)[0] != 4 {
			t.Errorf("deleted = %v, want [4]", *deleted)
		}
	})

	t.Run("query derives its type by naming", func(t *testing.T) {
		a, _ := newAdapter(t)

		out, err := a.Handle(ctx, newEvent(t, "get.user", GetUser{ID: 9}))
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		var user User
		_ = out.DataAs(&user)
		if user.ID != 9 {
			t.Errorf("user.ID = %d, want 9", user.ID)
		}
	})

	t.Run("missing correlation id is generated before dispatch", func(t *testing.T) {
		a, _ := newAdapter(t)

		out, err := a.Handle(ctx, newEvent(t, "get.user", GetUser{ID: 9}))
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		var user User
		if err := out.DataAs(&user); err != nil {
			t.Fatalf("DataAs() error = %v", err)
		}
		got, _ := out.Extensions()[cloudevents.ExtCorrelationID].(string)
		if got == "" || got != user.Name {
			t.Errorf("correlationid = %q, handler saw %q", got, user.Name)
		}
	})

	t.Run("context correlation id is kept", func(t *testing.T) {
		a, _ := newAdapter(t)

		out, err := a.Handle(behavior.ContextWithCorrelationID(ctx, "c-ctx"), newEvent(t, "get.user", GetUser{ID: 9}))
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if got := out.Extensions()[cloudevents.ExtCorrelationID]; got != "c-ctx" {
			t.Errorf("correlationid = %v, want c-ctx", got)
		}
	})

	t.Run("unknown event type", func(t *testing.T) {
		a, _ := newAdapter(t)
		if _, err := a.Handle(ctx, newEvent(t, "user.unknown", nil)); !errors.Is(err, cloudevents.ErrUnknownEventType) {
			t.Errorf("Handle() error = %v, want ErrUnknownEventType", err)
		}
	})

	t.Run("invalid data", func(t *testing.T) {
		a, _ := newAdapter(t)
		in := newEvent(t, "user.create", nil)
		_ = in.SetData(ce.ApplicationJSON, []byte(`{"name":`))
		if _, err := a.Handle(ctx, in); !errors.Is(err, cloudevents.ErrInvalidEventData) {
			t.Errorf("Handle() error = %v, want ErrInvalidEventData", err)
		}
	})

	t.Run("duplicate route", func(t *testing.T) {
		a, _ := newAdapter(t)
		if err := cloudevents.Register[GetUser](a, "user.create"); !errors.Is(err, cloudevents.ErrDuplicateRoute) {
			t.Errorf("Register() error = %v, want ErrDuplicateRoute", err)
		}
		want := []string{"delete.user", "get.user", "user.create"}
		if got := a.Types(); strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("Types() = %v, want %v", got, want)
		}
	})
}

func TestAdapter_Receive(t *testing.T) {
	a, _ := newAdapter(t)

	out, result := a.Receive(context.Background(), newEvent(t, "user.create", CreateUser{Name: "Ann"}))
	if !ce.IsACK(result) || out == nil {
		t.Errorf("Receive() = %v, %v, want ACK with event", out, result)
	}

	_, result = a.Receive(context.Background(), newEvent(t, "user.create", CreateUser{}))
	if ce.IsACK(result) {
		t.Error("Receive() acknowledged an invalid request")
	}
}

func TestAdapter_ServeHTTP(t *testing.T) {
	a, _ := newAdapter(t)
	srv := httptest.NewServer(a)
	defer srv.Close()

	post := func(eventType, body string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Ce-Specversion", "1.0")
		req.Header.Set("Ce-Id", "1")
		req.Header.Set("Ce-Type", eventType)
		req.Header.Set("Ce-Source", "/client")
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		t.Cleanup(func() { _ = res.Body.Close() })
		return res
	}

	t.Run("result event in structured mode", func(t *testing.T) {
		res := post("user.create", `{"name":"Ann"}`)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", res.StatusCode)
		}
		var out struct {
			Type string `json:"type"`
			Data User   `json:"data"`
		}
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if out.Type != "user.create.result" || out.Data.Name != "Ann" {
			t.Errorf("response = %+v", out)
		}
	})

	t.Run("status codes", func(t *testing.T) {
		tests := []struct {
			eventType, body string
			want            int
		}{
			{"delete.user", `{"id":1}`, http.StatusAccepted},
			{"user.create", `{"name":""}`, http.StatusBadRequest},
			{"user.create", `{"name":`, http.StatusBadRequest},
			{"user.unknown", `{}`, http.StatusNotFound},
		}
		for _, tt := range tests {
			if got := post(tt.eventType, tt.body).StatusCode; got != tt.want {
				t.Errorf("%s %s: status = %d, want %d", tt.eventType, tt.body, got, tt.want)
			}
		}
	})
}
