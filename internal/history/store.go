package history

import (
	"sync"

	"ppestation/internal/models"
)

// Store is the ordered log of detection events presented to the operator,
// kept newest-first at all times. It is shared by both session modes, so all
// mutations are serialized behind a mutex.
type Store struct {
	mu     sync.RWMutex
	events []models.DetectionEvent
}

// NewStore creates an empty history store.
func NewStore() *Store {
	return &Store{
		events: make([]models.DetectionEvent, 0),
	}
}

// Append inserts the event at the head of the log. No deduplication.
func (s *Store) Append(event models.DetectionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append([]models.DetectionEvent{event}, s.events...)
}

// Remove deletes the entry with the given id if present; no-op otherwise.
// This is a local-only mutation and does not propagate to the remote log,
// so a later ReplaceAll can reintroduce the entry.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceAll overwrites the entire log with the authoritative remote
// snapshot, discarding any local-only state. The stored order equals the
// order given (the remote service returns newest-first).
func (s *Store) ReplaceAll(events []models.DetectionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]models.DetectionEvent, len(events))
	copy(s.events, events)
}

// All returns a copy of the log, newest-first.
func (s *Store) All() []models.DetectionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DetectionEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
