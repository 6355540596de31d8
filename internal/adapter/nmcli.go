package adapter

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"

	"wifiroamd/internal/domain"
)

// NmcliBackend drives NetworkManager through the nmcli command line tool.
// It uses terse (-t) output, which is colon-separated with ':' and '\'
// escaped by a backslash inside field values.
type NmcliBackend struct{}

// NewNmcliBackend returns a backend using nmcli, or an error if the binary
// is not available.
func NewNmcliBackend() (*NmcliBackend, error) {
	if _, err := exec.LookPath("nmcli"); err != nil {
		return nil, fmt.Errorf("nmcli not found in PATH: %w", err)
	}
	return &NmcliBackend{}, nil
}

// Name returns the backend identifier.
func (b *NmcliBackend) Name() string {
	return "nmcli"
}

// Scan lists visible networks on the interface, forcing a fresh rescan.
func (b *NmcliBackend) Scan(ctx context.Context, iface string) ([]domain.Observation, error) {
	out, err := exec.CommandContext(ctx,
		"nmcli", "-t", "-f", "SSID,SIGNAL",
		"dev", "wifi", "list", "ifname", iface, "--rescan", "yes").Output()
	if err != nil {
		return nil, fmt.Errorf("nmcli scan: %w", err)
	}
	return parseScanOutput(string(out)), nil
}

// Current reports the active association on the interface.
func (b *NmcliBackend) Current(ctx context.Context, iface string) (domain.ConnectionState, error) {
	// No --rescan here: listing from the cache keeps the state read prompt.
	out, err := exec.CommandContext(ctx,
		"nmcli", "-t", "-f", "ACTIVE,SSID,SIGNAL",
		"dev", "wifi", "list", "ifname", iface, "--rescan", "no").Output()
	if err != nil {
		return domain.Disconnected(), fmt.Errorf("nmcli current: %w", err)
	}
	return parseCurrentOutput(string(out)), nil
}

// Connect associates the interface with the named network.
func (b *NmcliBackend) Connect(ctx context.Context, iface, ssid, credential string) error {
	args := []string{"dev", "wifi", "connect", ssid, "ifname", iface}
	if credential != "" {
		args = append(args, "password", credential)
	}

	cmd := exec.CommandContext(ctx, "nmcli", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("nmcli connect %s: %w: %s", ssid, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// parseScanOutput normalizes terse "SSID:SIGNAL" lines into observations.
// Hidden networks (empty SSID) are dropped silently; records with a
// non-integer signal are dropped with a warning.
func parseScanOutput(out string) []domain.Observation {
	var observations []domain.Observation
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := splitTerse(line)
		if len(fields) != 2 {
			log.Printf("Scan: skipping malformed record %q", line)
			continue
		}

		ssid := strings.TrimSpace(fields[0])
		if ssid == "" {
			continue
		}

		signal, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			log.Printf("Scan: non-numeric signal for %q: %q", ssid, fields[1])
			continue
		}

		observations = append(observations, domain.Observation{SSID: ssid, Signal: signal})
	}
	return observations
}

// parseCurrentOutput finds the ACTIVE row in "ACTIVE:SSID:SIGNAL" lines.
func parseCurrentOutput(out string) domain.ConnectionState {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := splitTerse(line)
		if len(fields) != 3 || fields[0] != "yes" {
			continue
		}

		ssid := strings.TrimSpace(fields[1])
		if ssid == "" {
			continue
		}

		signal, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			log.Printf("Current: non-numeric signal for %q: %q", ssid, fields[2])
			signal = 0
		}

		return domain.ConnectionState{SSID: ssid, Signal: signal, Connected: true}
	}
	return domain.Disconnected()
}

// splitTerse splits an nmcli -t line on unescaped colons and unescapes the
// field values.
func splitTerse(line string) []string {
	var fields []string
	var field strings.Builder
	escaped := false

	for _, r := range line {
		switch {
		case escaped:
			field.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	fields = append(fields, field.String())
	return fields
}
