package service

import (
	"context"
	"log"
	"time"

	"wifiroamd/internal/adapter"
	"wifiroamd/internal/domain"
	"wifiroamd/internal/loader"
	"wifiroamd/internal/repository"
)

// RoamerConfig holds the cycle parameters.
type RoamerConfig struct {
	// Interface is the wireless interface to manage.
	Interface string
	// TrustedFile is the trusted-network source, re-read every cycle.
	TrustedFile string
	// Interval is the time between cycles.
	Interval time.Duration
	// Threshold is the minimum signal improvement required to switch.
	Threshold int
}

// Roamer drives the scan-evaluate-act loop. One cycle at a time, no
// overlap; a slow connect simply delays the next scan.
type Roamer struct {
	config   RoamerConfig
	backend  adapter.Backend
	executor *adapter.Executor
	eventBus *EventBus

	verifier *adapter.LinkVerifier
	repo     repository.Repository

	// table is the last successfully loaded trusted table, kept so a
	// mid-run reload failure degrades to one-cycle staleness instead of
	// a dead cycle.
	table domain.TrustedTable

	reload chan struct{}
}

// NewRoamer creates a roamer. The trusted table must load successfully at
// least once before Run (the startup path enforces this).
func NewRoamer(config RoamerConfig, backend adapter.Backend, executor *adapter.Executor, eventBus *EventBus) *Roamer {
	return &Roamer{
		config:   config,
		backend:  backend,
		executor: executor,
		eventBus: eventBus,
		reload:   make(chan struct{}, 1),
	}
}

// SeedTable installs the table loaded during startup validation, so the
// fallback for a failed first in-cycle reload is never empty.
func (r *Roamer) SeedTable(table domain.TrustedTable) {
	r.table = table
}

// SetHistory enables roam-event persistence.
func (r *Roamer) SetHistory(repo repository.Repository) {
	r.repo = repo
}

// SetLinkVerifier enables the post-connect gateway probe.
func (r *Roamer) SetLinkVerifier(v *adapter.LinkVerifier) {
	r.verifier = v
}

// TriggerCycle requests an immediate cycle, used by the trusted-file
// watcher. Non-blocking; a pending trigger is enough.
func (r *Roamer) TriggerCycle() {
	select {
	case r.reload <- struct{}{}:
	default:
	}
}

// Run executes cycles until ctx is cancelled. The first cycle runs
// immediately; afterwards one per interval, or sooner on TriggerCycle.
func (r *Roamer) Run(ctx context.Context) error {
	log.Printf("Roamer started on %s (interval=%s, threshold=%d)",
		r.config.Interface, r.config.Interval, r.config.Threshold)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Roamer stopped")
			return ctx.Err()
		case <-ticker.C:
			r.RunCycle(ctx)
		case <-r.reload:
			log.Printf("Trusted networks changed, running cycle now")
			r.RunCycle(ctx)
		}
	}
}

// RunCycle performs one scan-evaluate-act iteration. Failures inside a
// cycle are logged and absorbed; only ctx cancellation propagates out of
// the loop.
func (r *Roamer) RunCycle(ctx context.Context) domain.Decision {
	r.eventBus.Publish(Event{Type: EventCycleStarted})

	table := r.reloadTable()
	observations := r.scan(ctx)
	current := r.currentState(ctx)

	candidate := domain.SelectBest(observations, table)
	decision := domain.Decide(current, candidate, r.config.Threshold)

	switch decision.Action {
	case domain.ActionStay:
		log.Printf("Cycle: stay (%s)", decision.Reason)
	case domain.ActionConnect, domain.ActionSwitch:
		log.Printf("Cycle: %s (%s)", decision.Action, decision.Reason)
		r.execute(ctx, current, decision)
	}

	r.eventBus.Publish(Event{Type: EventCycleCompleted, Payload: decision})
	return decision
}

// reloadTable refreshes the trusted table, keeping the previous table on
// failure so this cycle still has a usable allow-list.
func (r *Roamer) reloadTable() domain.TrustedTable {
	table, err := loader.Load(r.config.TrustedFile)
	if err != nil {
		log.Printf("Warning: trusted network reload failed, keeping previous table: %v", err)
		r.eventBus.Publish(Event{Type: EventReloadFailed, Payload: err.Error()})
		return r.table
	}
	r.table = table
	return table
}

// scan surveys visible networks. Scan failure is recoverable; it yields an
// empty snapshot and the decision engine stays put this cycle.
func (r *Roamer) scan(ctx context.Context) []domain.Observation {
	observations, err := r.backend.Scan(ctx, r.config.Interface)
	if err != nil {
		log.Printf("Warning: scan failed: %v", err)
		r.eventBus.Publish(Event{Type: EventScanFailed, Payload: err.Error()})
		return nil
	}
	return observations
}

// currentState reads the live association, degrading to disconnected on
// error so the selection logic always has a well-defined baseline.
func (r *Roamer) currentState(ctx context.Context) domain.ConnectionState {
	current, err := r.backend.Current(ctx, r.config.Interface)
	if err != nil {
		log.Printf("Warning: current state query failed, assuming disconnected: %v", err)
		return domain.Disconnected()
	}
	return current
}

// execute runs the connection attempt for a connect or switch decision and
// records the outcome. Failure and timeout are logged; correction is
// deferred to the next scheduled cycle.
func (r *Roamer) execute(ctx context.Context, previous domain.ConnectionState, decision domain.Decision) {
	candidate := *decision.Candidate

	r.eventBus.Publish(Event{Type: EventConnectAttempt, Payload: candidate.SSID})
	result := r.executor.Connect(ctx, r.config.Interface, candidate)

	switch result.Outcome {
	case adapter.OutcomeSuccess:
		log.Printf("Connected to %s in %s", candidate, result.Elapsed.Round(time.Millisecond))
		r.eventBus.Publish(Event{Type: EventConnected, Payload: candidate.SSID})
		r.verifyLink(ctx)
	case adapter.OutcomeTimeout:
		log.Printf("Warning: connect to %s timed out after %s, retrying next cycle",
			candidate.SSID, result.Elapsed.Round(time.Millisecond))
		r.eventBus.Publish(Event{Type: EventConnectTimedOut, Payload: candidate.SSID})
	case adapter.OutcomeFailure:
		log.Printf("Warning: connect to %s failed: %v, retrying next cycle", candidate.SSID, result.Err)
		r.eventBus.Publish(Event{Type: EventConnectFailed, Payload: candidate.SSID})
	}

	r.record(ctx, previous, decision, result)
}

// verifyLink probes the gateway after a successful association. Best
// effort; a dead link is left for the next cycle to repair.
func (r *Roamer) verifyLink(ctx context.Context) {
	if r.verifier == nil {
		return
	}
	if err := r.verifier.Verify(ctx); err != nil {
		log.Printf("Warning: link verification failed: %v", err)
	}
}

// record persists the executed decision to the history log.
func (r *Roamer) record(ctx context.Context, previous domain.ConnectionState, decision domain.Decision, result adapter.ConnectResult) {
	if r.repo == nil {
		return
	}

	event := &domain.RoamEvent{
		Action:         decision.Action,
		SSID:           decision.Candidate.SSID,
		Signal:         decision.Candidate.Signal,
		PreviousSSID:   previous.SSID,
		PreviousSignal: previous.Signal,
		Delta:          decision.Delta,
		Outcome:        string(result.Outcome),
		Detail:         decision.Reason,
	}
	if result.Err != nil {
		event.Detail = result.Err.Error()
	}

	if err := r.repo.SaveEvent(ctx, event); err != nil {
		log.Printf("Warning: failed to record roam event: %v", err)
	}
}
