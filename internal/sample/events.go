package sample

import (
	"errors"

	"github.com/fxsml/mediator/cloudevents"
)

// RegisterEvents routes the sample requests on a. Event types are derived
// by the adapter's naming strategy, e.g. "create.user".
func RegisterEvents(a *cloudevents.Adapter) error {
	return errors.Join(
		cloudevents.Register[CreateUserCommand](a, ""),
		cloudevents.Register[UpdateUserCommand](a, ""),
		cloudevents.Register[GetUserQuery](a, ""),
		cloudevents.Register[GetUsersQuery](a, ""),
	)
}
