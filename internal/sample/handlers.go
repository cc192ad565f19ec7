package sample

import (
	"context"

	"github.com/fxsml/mediator"
)

// Handler identities.
const (
	CreateUserHandler mediator.Identity = "users.create"
	UpdateUserHandler mediator.Identity = "users.update"
	GetUserHandler    mediator.Identity = "users.get"
	GetUsersHandler   mediator.Identity = "users.list"
)

type createUser struct{ users *Users }

func (h createUser) Handle(ctx context.Context, cmd CreateUserCommand) (UserDto, error) {
	return h.users.Create(ctx, cmd.Name)
}

type updateUser struct{ users *Users }

func (h updateUser) Handle(ctx context.Context, cmd UpdateUserCommand) error {
	return h.users.Update(ctx, cmd.ID, cmd.Name)
}

type getUser struct{ users *Users }

func (h getUser) Handle(ctx context.Context, q GetUserQuery) (UserDto, error) {
	return h.users.Get(ctx, q.ID)
}

type getUsers struct{ users *Users }

func (h getUsers) Handle(ctx context.Context, _ GetUsersQuery) (UsersDto, error) {
	users, err := h.users.List(ctx)
	if err != nil {
		return UsersDto{}, err
	}
	return UsersDto{Users: users}, nil
}

var (
	_ mediator.CommandResultHandler[CreateUserCommand, UserDto] = createUser{}
	_ mediator.CommandHandler[UpdateUserCommand]                = updateUser{}
	_ mediator.QueryHandler[GetUserQuery, UserDto]              = getUser{}
	_ mediator.QueryHandler[GetUsersQuery, UsersDto]            = getUsers{}
)
