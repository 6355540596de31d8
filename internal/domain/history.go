package domain

import "time"

// RoamEvent records one executed decision for the history log. Events are
// observability only; the decision loop never reads them back.
type RoamEvent struct {
	ID        int64
	Timestamp time.Time
	Action    Action
	// SSID and Signal describe the candidate acted on.
	SSID   string
	Signal int
	// PreviousSSID and PreviousSignal describe the association before the
	// action, empty/zero when the host was disconnected.
	PreviousSSID   string
	PreviousSignal int
	Delta          int
	// Outcome is the connect result ("success", "failure", "timeout").
	Outcome string
	Detail  string
}
