package client

import (
	"context"
	"sync"
)

// signal is a resettable flag that goroutines can wait on. Wait returns as
// soon as the flag is set and does not clear it.
type signal struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

func (s *signal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		s.set = true
		close(s.ch)
	}
}

func (s *signal) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
}

func (s *signal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.set
}

func (s *signal) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
