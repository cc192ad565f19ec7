// Package sample is a small user service wired through the mediator.
package sample

import (
	"errors"
	"strings"
	"time"

	"github.com/fxsml/mediator"
)

// Capability tags of the sample requests.
const (
	Auditable   mediator.Tag = "auditable"
	Validatable mediator.Tag = "validatable"
	Retryable   mediator.Tag = "retryable"
	Expiring    mediator.Tag = "expiring"
)

// UserDto is a user as returned to callers.
type UserDto struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UsersDto is a list of users.
type UsersDto struct {
	Users []UserDto `json:"users"`
}

// CreateUserCommand creates a user and returns it.
type CreateUserCommand struct {
	Name string `json:"name"`
	// RequestID makes the command idempotent when set.
	RequestID string `json:"request_id,omitempty"`
}

func (c CreateUserCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

func (c CreateUserCommand) IdempotencyKey() string {
	return c.RequestID
}

// UpdateUserCommand renames a user. A command past ExpiresAt is rejected.
type UpdateUserCommand struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (c UpdateUserCommand) ExpiryTime() time.Time {
	return c.ExpiresAt
}

func (c UpdateUserCommand) Validate() error {
	if c.ID <= 0 {
		return errors.New("id must be positive")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// GetUserQuery returns one user.
type GetUserQuery struct {
	ID int `json:"id"`
}

func (q GetUserQuery) Validate() error {
	if q.ID <= 0 {
		return errors.New("id must be positive")
	}
	return nil
}

// GetUsersQuery returns all users.
type GetUsersQuery struct{}
