// Package client is a Go client for the ClassHub API with an optimistic,
// session scoped reaction cache that is reconciled against the server.
package client

import (
	"sync"

	"github.com/yigit/classhub/internal/domain/reaction"
)

// Key identifies one user's view of one post
type Key struct {
	UserID string
	PostID string
}

type entry struct {
	// state is what the user sees, optimistic while requests are in flight
	state reaction.State
	// confirmed is the newest state the server reported
	confirmed    reaction.State
	confirmedSeq uint64
	// seq numbers dispatched actions; the entry's seq is the newest one
	seq uint64
	// synced is true while state shows confirmed
	synced bool
}

// Store holds the client visible reaction state per (user, post) next to the
// last state the server confirmed. Each optimistic action gets a sequence
// number so late answers can be told apart from the newest one.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]*entry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

// Seed records server state, e.g. after loading a post. Answers to requests
// dispatched before the seed no longer change the entry.
func (s *Store) Seed(key Key, state reaction.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(key)
	e.seq++
	e.state, e.confirmed, e.confirmedSeq, e.synced = state, state, e.seq, true
}

// Get returns the current state for key
func (s *Store) Get(key Key) (reaction.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return reaction.State{}, false
	}
	return e.state, true
}

// Confirmed returns the newest server state known for key
func (s *Store) Confirmed(key Key) (reaction.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return reaction.State{}, false
	}
	return e.confirmed, true
}

// Len reports the number of cached entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops everything, e.g. on logout
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// apply reduces action onto the shown state and returns the new state with
// the sequence number of the action.
func (s *Store) apply(key Key, action reaction.Action) (next reaction.State, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(key)
	e.seq++
	e.state = e.state.Reduce(action)
	e.synced = false
	return e.state, e.seq
}

// reconcile stores the server's answer to action seq. An answer older than
// the confirmed one is dropped. The shown state follows the server when seq
// is the newest action or nothing newer is still pending. It reports whether
// the shown state was replaced.
func (s *Store) reconcile(key Key, seq uint64, server reaction.State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(key)
	if seq <= e.confirmedSeq {
		return false
	}
	e.confirmed, e.confirmedSeq = server, seq
	if seq != e.seq && !e.synced {
		return false
	}
	e.state, e.synced = server, true
	return true
}

// rollback undoes a failed action. Only the newest action restores the
// confirmed state; an older failure leaves the newer action to settle it.
func (s *Store) rollback(key Key, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(key)
	if seq != e.seq {
		return false
	}
	e.state, e.synced = e.confirmed, true
	return true
}

// entry must be called with mu held
func (s *Store) entry(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{synced: true}
		s.entries[key] = e
	}
	return e
}
