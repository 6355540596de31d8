package domain

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		current   ConnectionState
		candidate *Candidate
		threshold int
		want      Action
	}{
		{
			name:      "no candidate stays",
			current:   ConnectionState{SSID: "HomeNet", Signal: 50, Connected: true},
			candidate: nil,
			threshold: 20,
			want:      ActionStay,
		},
		{
			name:      "no candidate while disconnected stays",
			current:   Disconnected(),
			candidate: nil,
			threshold: 20,
			want:      ActionStay,
		},
		{
			name:      "same network stays regardless of delta",
			current:   ConnectionState{SSID: "HomeNet", Signal: 20, Connected: true},
			candidate: &Candidate{SSID: "HomeNet", Signal: 90},
			threshold: 0,
			want:      ActionStay,
		},
		{
			name:      "disconnected connects unconditionally",
			current:   Disconnected(),
			candidate: &Candidate{SSID: "GuestNet", Signal: 30},
			threshold: 20,
			want:      ActionConnect,
		},
		{
			name:      "disconnected connects even with huge threshold",
			current:   Disconnected(),
			candidate: &Candidate{SSID: "GuestNet", Signal: 1},
			threshold: 1000,
			want:      ActionConnect,
		},
		{
			name:      "disconnected connects with zero threshold",
			current:   Disconnected(),
			candidate: &Candidate{SSID: "GuestNet", Signal: 30},
			threshold: 0,
			want:      ActionConnect,
		},
		{
			name:      "delta equal to threshold switches",
			current:   ConnectionState{SSID: "HomeNet", Signal: 50, Connected: true},
			candidate: &Candidate{SSID: "OfficeNet", Signal: 70},
			threshold: 20,
			want:      ActionSwitch,
		},
		{
			name:      "delta below threshold stays",
			current:   ConnectionState{SSID: "HomeNet", Signal: 60, Connected: true},
			candidate: &Candidate{SSID: "OfficeNet", Signal: 75},
			threshold: 20,
			want:      ActionStay,
		},
		{
			name:      "delta above threshold switches",
			current:   ConnectionState{SSID: "HomeNet", Signal: 30, Connected: true},
			candidate: &Candidate{SSID: "OfficeNet", Signal: 80},
			threshold: 20,
			want:      ActionSwitch,
		},
		{
			name:      "weaker candidate stays",
			current:   ConnectionState{SSID: "HomeNet", Signal: 80, Connected: true},
			candidate: &Candidate{SSID: "OfficeNet", Signal: 40},
			threshold: 10,
			want:      ActionStay,
		},
		{
			name:      "zero threshold switches on any improvement",
			current:   ConnectionState{SSID: "HomeNet", Signal: 50, Connected: true},
			candidate: &Candidate{SSID: "OfficeNet", Signal: 51},
			threshold: 0,
			want:      ActionSwitch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.current, tt.candidate, tt.threshold)
			if got.Action != tt.want {
				t.Errorf("Decide() = %s (%s), want %s", got.Action, got.Reason, tt.want)
			}
			if got.Reason == "" {
				t.Error("Decide() returned an empty reason")
			}
		})
	}
}

func TestDecideDelta(t *testing.T) {
	current := ConnectionState{SSID: "HomeNet", Signal: 50, Connected: true}
	candidate := &Candidate{SSID: "OfficeNet", Signal: 70}

	got := Decide(current, candidate, 20)
	if got.Delta != 20 {
		t.Errorf("Delta = %d, want 20", got.Delta)
	}
	if got.Candidate == nil || got.Candidate.SSID != "OfficeNet" {
		t.Errorf("Candidate = %v, want OfficeNet", got.Candidate)
	}
}
