package sample

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUserNotFound is returned for unknown user IDs.
var ErrUserNotFound = errors.New("user not found")

// Users is an in-memory user store. IDs start at 1.
type Users struct {
	mu     sync.RWMutex
	nextID int
	users  map[int]UserDto
}

// NewUsers creates an empty store.
func NewUsers() *Users {
	return &Users{
		nextID: 1,
		users:  make(map[int]UserDto),
	}
}

func (s *Users) Create(ctx context.Context, name string) (UserDto, error) {
	if err := ctx.Err(); err != nil {
		return UserDto{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := UserDto{ID: s.nextID, Name: name}
	s.users[u.ID] = u
	s.nextID++
	return u, nil
}

func (s *Users) Update(ctx context.Context, id int, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	u.Name = name
	s.users[id] = u
	return nil
}

func (s *Users) Get(ctx context.Context, id int) (UserDto, error) {
	if err := ctx.Err(); err != nil {
		return UserDto{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return UserDto{}, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	return u, nil
}

// List returns all users ordered by ID.
func (s *Users) List(ctx context.Context) ([]UserDto, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UserDto, 0, len(s.users))
	for id := 1; id < s.nextID; id++ {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
