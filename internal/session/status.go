package session

import (
	"sync"

	"ppestation/internal/compliance"
	"ppestation/internal/models"
)

// Update carries one applied detection result to the UI read models.
type Update struct {
	Source    models.Source        `json:"source"`
	Verdict   compliance.Verdict   `json:"verdict"`
	Labels    []string             `json:"labels"`
	Boxes     []models.BoundingBox `json:"boxes"`
	Annotated string               `json:"annotated,omitempty"`
}

// Publisher receives every applied detection result, in arrival order.
// The app wires it to the viewer hub and the snapshot buffer.
type Publisher interface {
	Publish(Update)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(Update)

func (f PublisherFunc) Publish(u Update) { f(u) }

// Status is the shared verdict/overlay read model. It reflects
// response-arrival order, not tick order.
type Status struct {
	mu      sync.RWMutex
	current Update
}

// NewStatus creates a status read model starting at the unknown verdict.
func NewStatus() *Status {
	return &Status{
		current: Update{Verdict: compliance.VerdictUnknown},
	}
}

// Set replaces the current status.
func (s *Status) Set(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = u
}

// Get returns the most recently applied status.
func (s *Status) Get() Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
