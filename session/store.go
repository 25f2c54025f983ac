package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ProfileUpdate is a partial user update. Absent fields are left untouched.
// It deliberately has no Role field: role changes arrive through a fresh
// Establish, keeping the role always derived from the full user record.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// Store owns the session record. All mutations persist synchronously
// through the configured [Backend] before the call returns, and the
// invariant IsLoggedIn == (User != nil), Role == User.Role holds after
// every operation.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	key     string
	current Session
}

// NewStore loads the persisted record and returns a ready store. A missing
// or corrupt record initializes the store logged-out; persistence backend
// unavailability is the only construction error.
func NewStore(ctx context.Context, backend Backend, key string) (*Store, error) {
	if backend == nil {
		return nil, errors.New("session backend required")
	}
	if key == "" {
		return nil, errors.New("session storage key required")
	}

	s := &Store{
		backend: backend,
		key:     key,
		current: loggedOut(),
	}

	data, err := backend.Load(ctx, key)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load session record: %w", err)
	}

	sess, err := Decode(data)
	if err != nil {
		// Corrupt records default to logged-out rather than failing startup.
		return s, nil
	}

	s.current = sess
	return s, nil
}

// Establish sets the logged-in state for the given user and persists the
// record before returning. The role is derived from the user record.
//
// Establish may return an error when input validation, dependency calls, or security checks fail.
// Establish does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Establish(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := user
	s.current = Session{
		IsLoggedIn: true,
		User:       &u,
		Role:       u.Role,
	}
	return s.persistLocked(ctx)
}

// Clear resets the store to the logged-out state and persists the record
// before returning.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = loggedOut()
	return s.persistLocked(ctx)
}

// UpdateProfile merges the partial update into the current user and
// persists. When logged out it is a no-op: a background profile fetch racing
// a logout must not resurrect a session.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// UpdateProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.User == nil {
		return nil
	}

	if update.Name != nil {
		s.current.User.Name = *update.Name
	}
	if update.Email != nil {
		s.current.User.Email = *update.Email
	}
	return s.persistLocked(ctx)
}

// Snapshot returns a deep copy of the current session. Readers observe
// every mutation that returned before the Snapshot call.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// IsLoggedIn describes the isloggedin operation and its observable behavior.
//
// IsLoggedIn does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsLoggedIn
}

// Role describes the role operation and its observable behavior.
//
// Role does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Role
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := Encode(s.current)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist session record: %w", err)
	}
	return nil
}
