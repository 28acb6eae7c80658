// Package session holds the process-wide authentication state. It is the
// only component allowed to mutate the session; everything else observes.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/gateway"
)

// State is the session lifecycle: Unknown until the first auth check
// resolves, then Authenticated or Unauthenticated.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Listener observes state transitions. It fires exactly once per
// transition, never on a repeated set of the same state, which is what
// lets navigation enforcement (redirect to or away from the login view)
// happen once rather than on every poll.
type Listener func(state State, user *core.User)

// Store is the session store.
type Store struct {
	mu        sync.RWMutex
	state     State
	user      *core.User
	listeners []Listener
}

func NewStore() *Store {
	return &Store{state: StateUnknown}
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the authenticated identity, nil outside StateAuthenticated.
func (s *Store) User() *core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Subscribe registers a transition listener.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetAuthenticated records a successful login or auth check.
func (s *Store) SetAuthenticated(user *core.User) {
	s.transition(StateAuthenticated, user)
}

// SetUnauthenticated records a failed auth check, an explicit logout, or a
// login/register failure.
func (s *Store) SetUnauthenticated() {
	s.transition(StateUnauthenticated, nil)
}

func (s *Store) transition(next State, user *core.User) {
	s.mu.Lock()
	same := s.state == next && sameUser(s.user, user)
	s.state = next
	s.user = user
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if same {
		return
	}
	for _, l := range listeners {
		l(next, user)
	}
}

func sameUser(a, b *core.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// Refresh resolves the session against the gateway and applies the result.
// A 401 is the normal "no session" answer and resolves silently to
// StateUnauthenticated. A held token already past its expiry short-circuits
// the round trip. Any other failure leaves the current state untouched.
func (s *Store) Refresh(ctx context.Context, client *gateway.Client) error {
	if client.Credentials().Expired(ctx, time.Now()) {
		s.SetUnauthenticated()
		return nil
	}

	check, err := client.CheckAuth(ctx)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthenticated) {
			s.SetUnauthenticated()
			return nil
		}
		return err
	}

	if check.Authenticated && check.User != nil {
		s.SetAuthenticated(check.User)
	} else {
		s.SetUnauthenticated()
	}
	return nil
}

// Login authenticates and transitions. Login failure transitions to
// StateUnauthenticated; the error still propagates for display.
func (s *Store) Login(ctx context.Context, client *gateway.Client, email, password string) (*core.LoginResult, error) {
	res, err := client.Login(ctx, email, password)
	if err != nil {
		s.SetUnauthenticated()
		return nil, err
	}
	if res.User != nil {
		s.SetAuthenticated(res.User)
	} else {
		s.SetUnauthenticated()
	}
	return res, err
}

// Logout ends the session. Local state clears even when the gateway call
// fails; the cookie is already dropped client-side.
func (s *Store) Logout(ctx context.Context, client *gateway.Client) error {
	err := client.Logout(ctx)
	s.SetUnauthenticated()
	if errors.Is(err, gateway.ErrUnauthenticated) {
		return nil
	}
	return err
}
