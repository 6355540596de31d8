package adapter

import (
	"context"

	"wifiroamd/internal/domain"
)

// Backend abstracts the host's wireless scan/connect mechanism so the
// decision engine can be tested with deterministic fakes.
type Backend interface {
	// Name returns the backend identifier (e.g. "nmcli", "wpa").
	Name() string

	// Scan surveys visible networks on the interface and returns normalized
	// observations: trimmed names, hidden networks dropped, signal as an
	// integer percentage. Each call is a fresh snapshot.
	Scan(ctx context.Context, iface string) ([]domain.Observation, error)

	// Current reports the active association on the interface. No active
	// association is not an error; it returns the disconnected state.
	Current(ctx context.Context, iface string) (domain.ConnectionState, error)

	// Connect associates the interface with the named network. It blocks
	// until the association is established or ctx is done. An empty
	// credential means an open network.
	Connect(ctx context.Context, iface, ssid, credential string) error
}
