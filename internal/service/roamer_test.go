package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wifiroamd/internal/adapter"
	"wifiroamd/internal/domain"
)

const trustedFixture = `network=HomeNet
password=homepass
network=OfficeNet
password=officepass
network=GuestNet
password=
`

func newTestRoamer(t *testing.T, stub *adapter.StubBackend, threshold int) *Roamer {
	t.Helper()

	trustedPath := filepath.Join(t.TempDir(), "trusted.conf")
	if err := os.WriteFile(trustedPath, []byte(trustedFixture), 0600); err != nil {
		t.Fatal(err)
	}

	config := RoamerConfig{
		Interface:   "wlan0",
		TrustedFile: trustedPath,
		Interval:    time.Hour, // cycles driven manually in tests
		Threshold:   threshold,
	}
	executor := adapter.NewExecutor(stub, time.Second)
	return NewRoamer(config, stub, executor, NewEventBus())
}

func TestCycleSwitchesWhenDeltaMeetsThreshold(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{
			{SSID: "OfficeNet", Signal: 70},
			{SSID: "HomeNet", Signal: 50},
		},
		State: domain.ConnectionState{SSID: "HomeNet", Signal: 50, Connected: true},
	}
	roamer := newTestRoamer(t, stub, 20)

	decision := roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionSwitch {
		t.Fatalf("action = %s (%s), want switch", decision.Action, decision.Reason)
	}
	if len(stub.Connected) != 1 || stub.Connected[0] != "OfficeNet" {
		t.Errorf("backend saw connects %v, want [OfficeNet]", stub.Connected)
	}
}

func TestCycleStaysWhenDeltaBelowThreshold(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{
			{SSID: "OfficeNet", Signal: 75},
		},
		State: domain.ConnectionState{SSID: "HomeNet", Signal: 60, Connected: true},
	}
	roamer := newTestRoamer(t, stub, 20)

	decision := roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionStay {
		t.Fatalf("action = %s, want stay", decision.Action)
	}
	if len(stub.Connected) != 0 {
		t.Errorf("backend saw connects %v, want none", stub.Connected)
	}
}

func TestCycleConnectsWhenDisconnected(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{
			{SSID: "GuestNet", Signal: 30},
		},
		State: domain.Disconnected(),
	}
	roamer := newTestRoamer(t, stub, 99)

	decision := roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionConnect {
		t.Fatalf("action = %s, want connect regardless of threshold", decision.Action)
	}
	if len(stub.Connected) != 1 || stub.Connected[0] != "GuestNet" {
		t.Errorf("backend saw connects %v, want [GuestNet]", stub.Connected)
	}
}

func TestCycleStaysWhenOnlyUntrustedVisible(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{
			{SSID: "NeighborNet", Signal: 95},
			{SSID: "CoffeeShop", Signal: 88},
		},
		State: domain.Disconnected(),
	}
	roamer := newTestRoamer(t, stub, 10)

	decision := roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionStay {
		t.Fatalf("action = %s, want stay", decision.Action)
	}
	if decision.Candidate != nil {
		t.Errorf("candidate = %v, want nil", decision.Candidate)
	}
}

func TestCycleSurvivesScanFailure(t *testing.T) {
	stub := &adapter.StubBackend{
		ScanErr: errors.New("adapter exploded"),
		State:   domain.ConnectionState{SSID: "HomeNet", Signal: 50, Connected: true},
	}
	roamer := newTestRoamer(t, stub, 10)

	decision := roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionStay {
		t.Fatalf("action = %s, want stay on scan failure", decision.Action)
	}
}

func TestCycleDegradesToDisconnectedOnStateFailure(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{{SSID: "HomeNet", Signal: 50}},
		CurrentErr:   errors.New("query failed"),
	}
	roamer := newTestRoamer(t, stub, 10)

	decision := roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionConnect {
		t.Fatalf("action = %s, want connect from degraded disconnected state", decision.Action)
	}
}

func TestCycleSurvivesConnectFailure(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{{SSID: "HomeNet", Signal: 50}},
		State:        domain.Disconnected(),
		ConnectErr:   errors.New("association rejected"),
	}
	roamer := newTestRoamer(t, stub, 10)

	// The failed attempt must not panic or escalate; retry is next cycle.
	decision := roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionConnect {
		t.Fatalf("action = %s, want connect", decision.Action)
	}

	decision = roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionConnect {
		t.Fatalf("second cycle action = %s, want connect retry", decision.Action)
	}
	if len(stub.Connected) != 2 {
		t.Errorf("backend saw %d connects, want 2", len(stub.Connected))
	}
}

func TestCycleKeepsPreviousTableOnReloadFailure(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{{SSID: "HomeNet", Signal: 50}},
		State:        domain.Disconnected(),
	}
	roamer := newTestRoamer(t, stub, 10)

	// First cycle loads the file; removing it afterwards must not blind
	// the loop because the previous table is kept.
	roamer.RunCycle(context.Background())
	if err := os.Remove(roamer.config.TrustedFile); err != nil {
		t.Fatal(err)
	}

	stub.State = domain.Disconnected()
	decision := roamer.RunCycle(context.Background())
	if decision.Candidate == nil || decision.Candidate.SSID != "HomeNet" {
		t.Errorf("decision = %+v, want HomeNet candidate from previous table", decision)
	}
}

func TestCycleStaysOnCurrentNetwork(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{{SSID: "HomeNet", Signal: 90}},
		State:        domain.ConnectionState{SSID: "HomeNet", Signal: 40, Connected: true},
	}
	roamer := newTestRoamer(t, stub, 0)

	decision := roamer.RunCycle(context.Background())
	if decision.Action != domain.ActionStay {
		t.Fatalf("action = %s, want stay on own network regardless of delta", decision.Action)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	stub := &adapter.StubBackend{State: domain.Disconnected()}
	roamer := newTestRoamer(t, stub, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- roamer.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
}

func TestTriggerCycleRunsImmediately(t *testing.T) {
	stub := &adapter.StubBackend{
		Observations: []domain.Observation{{SSID: "HomeNet", Signal: 50}},
		State:        domain.Disconnected(),
	}
	roamer := newTestRoamer(t, stub, 10)

	eventBus := roamer.eventBus
	cycles := make(chan Event, 16)
	eventBus.Subscribe(cycles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go roamer.Run(ctx)

	// Wait for the startup cycle, then trigger a second one well before
	// the hour-long interval would fire.
	waitForEvent(t, cycles, EventCycleCompleted)
	roamer.TriggerCycle()
	waitForEvent(t, cycles, EventCycleCompleted)
}

func waitForEvent(t *testing.T, events <-chan Event, want EventType) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Type == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
