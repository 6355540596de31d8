package adapter

import (
	"context"
	"sync"
	"time"

	"wifiroamd/internal/domain"
)

var _ Backend = (*StubBackend)(nil)

// StubBackend is a deterministic in-memory backend for tests.
type StubBackend struct {
	mu sync.Mutex

	Observations []domain.Observation
	State        domain.ConnectionState

	ScanErr    error
	CurrentErr error
	ConnectErr error

	// ConnectDelay makes Connect block, for exercising timeouts.
	ConnectDelay time.Duration

	// Connected records every SSID passed to Connect, in order.
	Connected []string
}

// Name returns the backend identifier.
func (s *StubBackend) Name() string { return "stub" }

// Scan returns the configured observations.
func (s *StubBackend) Scan(ctx context.Context, iface string) ([]domain.Observation, error) {
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	return s.Observations, nil
}

// Current returns the configured connection state.
func (s *StubBackend) Current(ctx context.Context, iface string) (domain.ConnectionState, error) {
	if s.CurrentErr != nil {
		return domain.Disconnected(), s.CurrentErr
	}
	return s.State, nil
}

// Connect records the attempt and simulates association by updating the
// stub's state on success.
func (s *StubBackend) Connect(ctx context.Context, iface, ssid, credential string) error {
	if s.ConnectDelay > 0 {
		select {
		case <-time.After(s.ConnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Connected = append(s.Connected, ssid)

	if s.ConnectErr != nil {
		return s.ConnectErr
	}

	s.State = domain.ConnectionState{SSID: ssid, Connected: true}
	for _, obs := range s.Observations {
		if obs.SSID == ssid {
			s.State.Signal = obs.Signal
		}
	}
	return nil
}
