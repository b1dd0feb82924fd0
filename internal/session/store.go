package session

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound = errors.New("session not found")
)

// Store keeps sessions in memory. Sessions do not survive a daemon restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates a new session store
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Save stores a copy of a session
func (s *Store) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *session
	s.sessions[session.ID] = &c
	return nil
}

// Get retrieves a copy of a session by ID
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *session
	return &c, nil
}

// Delete removes a session
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns all sessions, oldest first
func (s *Store) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		c := *session
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Exists checks if a session exists
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Update applies fn to a session under the store lock and returns a copy of
// the result
func (s *Store) Update(id string, fn func(*Session)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(session)
	c := *session
	return &c, nil
}
