package session

import (
	"sync"
	"time"
)

// tickerFactory abstracts time.NewTicker so tests can drive ticks from a
// mock clock.
type tickerFactory func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Sampler invokes a capture callback once per fixed interval while running.
// Sampling is purely time-triggered: a tick fires on cadence whether or not
// work started by a previous tick has finished.
type Sampler struct {
	interval  time.Duration
	capture   func()
	newTicker tickerFactory

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSampler creates a sampler that calls capture once per interval.
func NewSampler(interval time.Duration, capture func()) *Sampler {
	return &Sampler{
		interval:  interval,
		capture:   capture,
		newTicker: realTicker,
	}
}

// Start begins periodic sampling. No-op if already running.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	ticks, cancel := s.newTicker(s.interval)
	go s.run(ticks, cancel, s.stop, s.done)
}

func (s *Sampler) run(ticks <-chan time.Time, cancel func(), stop, done chan struct{}) {
	defer close(done)
	defer cancel()

	for {
		select {
		case <-stop:
			return
		case <-ticks:
			s.capture()
		}
	}
}

// Stop halts sampling and waits for the sampling loop to exit. Captures
// already handed downstream are not affected.
func (s *Sampler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done
}
