// Package adapter implements the wireless backends for wifiroamd.
//
// A Backend wraps the host's scan/connect mechanism behind a small
// interface so the decision loop never touches a concrete command syntax
// and can be tested against the StubBackend.
//
// # Backends
//
// NmcliBackend drives NetworkManager through nmcli terse output. It is the
// default on desktop-class installs where NetworkManager owns the radio.
//
// WpaBackend drives the wireless tools directly: iwlist surveys,
// iwgetid/proc for the current association, and wpa_supplicant plus
// dhclient for connecting. It suits minimal single-board images without
// NetworkManager. WPA passphrases are expanded to the 802.11i PSK before
// they are written to disk.
//
// # Executor
//
// Executor bounds each connection attempt with a deadline and classifies
// the exit condition as success, failure, or timeout. Timeouts are an
// expected failure mode (wrong passphrase, AP out of range) and are logged
// distinctly by the roamer.
//
// # Link verification
//
// LinkVerifier optionally probes the gateway with an nmap ping scan after a
// successful association, catching the case where the radio associates but
// the link goes nowhere.
package adapter
