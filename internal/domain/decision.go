package domain

import "fmt"

// Action is the outcome of one cycle's evaluation.
type Action string

const (
	// ActionStay - keep the current association (or stay disconnected).
	ActionStay Action = "stay"
	// ActionConnect - associate while currently disconnected.
	ActionConnect Action = "connect"
	// ActionSwitch - leave the current network for a stronger trusted one.
	ActionSwitch Action = "switch"
)

// Decision is the result of comparing the best candidate against the current
// connection state under the hysteresis threshold.
type Decision struct {
	Action    Action
	Candidate *Candidate
	// Delta is candidate signal minus current signal. Only meaningful when
	// both a candidate and a current association exist.
	Delta  int
	Reason string
}

// Decide applies the switch rules in precedence order:
//
//  1. No candidate: stay.
//  2. Candidate is the current network: stay, regardless of signal delta.
//  3. Disconnected: connect to any trusted candidate unconditionally.
//  4. Connected elsewhere: switch iff the signal improvement meets the
//     threshold. Equality switches; the threshold is the minimum improvement
//     that justifies disrupting a working connection.
//
// The threshold exists to prevent ping-pong between two networks of
// near-equal strength.
func Decide(current ConnectionState, candidate *Candidate, threshold int) Decision {
	if candidate == nil {
		return Decision{
			Action: ActionStay,
			Reason: "no trusted network visible",
		}
	}

	if current.Connected && candidate.SSID == current.SSID {
		return Decision{
			Action:    ActionStay,
			Candidate: candidate,
			Reason:    fmt.Sprintf("already on %s", candidate.SSID),
		}
	}

	if !current.Connected {
		return Decision{
			Action:    ActionConnect,
			Candidate: candidate,
			Reason:    fmt.Sprintf("disconnected, %s available", candidate),
		}
	}

	delta := candidate.Signal - current.Signal
	if delta >= threshold {
		return Decision{
			Action:    ActionSwitch,
			Candidate: candidate,
			Delta:     delta,
			Reason: fmt.Sprintf("%s is %d points stronger than %s (%d%%), threshold %d",
				candidate, delta, current.SSID, current.Signal, threshold),
		}
	}

	return Decision{
		Action:    ActionStay,
		Candidate: candidate,
		Delta:     delta,
		Reason: fmt.Sprintf("%s only %d points stronger than %s (%d%%), below threshold %d",
			candidate, delta, current.SSID, current.Signal, threshold),
	}
}
