package domain

import "fmt"

// TrustedNetwork is a network the operator has approved for association.
// Credential is the pre-shared key, or empty for an open network.
type TrustedNetwork struct {
	Name       string
	Credential string
}

// TrustedTable maps network name to credential. It is rebuilt wholesale from
// the trusted-network source every cycle; last definition wins on duplicates.
type TrustedTable map[string]string

// Contains reports whether the named network is in the allow-list.
func (t TrustedTable) Contains(name string) bool {
	_, ok := t[name]
	return ok
}

// Observation is a single network seen during a scan. Signal is a normalized
// quality percentage in [0,100].
type Observation struct {
	SSID   string
	Signal int
}

// ConnectionState describes the current association of the interface.
// Connected=false with an empty SSID means "not associated with any network".
type ConnectionState struct {
	SSID      string
	Signal    int
	Connected bool
}

// Disconnected is the baseline state used when the association query fails.
func Disconnected() ConnectionState {
	return ConnectionState{}
}

// Candidate is the best visible network that is both trusted and reachable
// this cycle. Its name always has a corresponding trusted-table entry.
type Candidate struct {
	SSID       string
	Signal     int
	Credential string
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s (%d%%)", c.SSID, c.Signal)
}

// SelectBest cross-references scan observations against the trusted table and
// returns the trusted network with the strongest signal, or nil if no visible
// network is trusted. Ties resolve to the earliest observation in scan order;
// the strict comparison below is what keeps that stable.
func SelectBest(observations []Observation, table TrustedTable) *Candidate {
	var best *Candidate
	for _, obs := range observations {
		cred, ok := table[obs.SSID]
		if !ok {
			continue
		}
		if best == nil || obs.Signal > best.Signal {
			best = &Candidate{SSID: obs.SSID, Signal: obs.Signal, Credential: cred}
		}
	}
	return best
}
