package adapter

import (
	"context"
	"fmt"
	"log"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

// LinkVerifier checks that a freshly associated link actually carries
// traffic by probing the gateway with an nmap ping scan. Verification is
// best-effort: a failure is reported to the caller for logging but never
// stops the roaming loop.
type LinkVerifier struct {
	gateway string
	timeout time.Duration
}

// NewLinkVerifier creates a verifier probing the given gateway address.
func NewLinkVerifier(gateway string, timeout time.Duration) *LinkVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LinkVerifier{gateway: gateway, timeout: timeout}
}

// Available checks that the nmap binary can run at all.
func (v *LinkVerifier) Available(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}
	_, _, err = scanner.Run()
	return err == nil
}

// Verify probes the gateway and returns an error if it did not answer.
func (v *LinkVerifier) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(v.gateway),
		nmap.WithPingScan(),
	)
	if err != nil {
		return fmt.Errorf("create gateway probe: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return fmt.Errorf("gateway probe: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		log.Printf("Link verify: warnings for %s: %v", v.gateway, *warnings)
	}

	for _, host := range result.Hosts {
		if host.Status.State == "up" {
			return nil
		}
	}
	return fmt.Errorf("gateway %s did not respond", v.gateway)
}
