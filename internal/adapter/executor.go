package adapter

import (
	"context"
	"errors"
	"time"

	"wifiroamd/internal/domain"
)

// Outcome classifies a connection attempt. Timeout is a distinct, expected
// failure mode so callers can log it separately from a hard failure.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// ConnectResult is the interpreted exit condition of a connection attempt.
type ConnectResult struct {
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// Executor runs connection attempts against a backend with a bounded wait.
type Executor struct {
	backend Backend
	timeout time.Duration
}

// NewExecutor creates an executor that bounds each attempt to timeout.
func NewExecutor(backend Backend, timeout time.Duration) *Executor {
	return &Executor{backend: backend, timeout: timeout}
}

// Connect attempts to associate the interface with the candidate and
// classifies the result. It never retries; the caller's cycle schedule is
// the retry mechanism.
func (e *Executor) Connect(ctx context.Context, iface string, candidate domain.Candidate) ConnectResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	err := e.backend.Connect(ctx, iface, candidate.SSID, candidate.Credential)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		return ConnectResult{Outcome: OutcomeSuccess, Elapsed: elapsed}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ConnectResult{Outcome: OutcomeTimeout, Err: err, Elapsed: elapsed}
	default:
		return ConnectResult{Outcome: OutcomeFailure, Err: err, Elapsed: elapsed}
	}
}
