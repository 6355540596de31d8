package adapter

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"wifiroamd/internal/domain"
)

// RegEx for parsing iwlist output
var (
	cellRE    = regexp.MustCompile(`(?m)^\s*Cell \d+`)
	essidRE   = regexp.MustCompile(`ESSID:"(.*)"`)
	qualityRE = regexp.MustCompile(`Quality[=:](\d+)/(\d+)`)
)

const openNetworkConf = `network={
	ssid="%s"
	key_mgmt=NONE
}
`

const pskNetworkConf = `network={
	ssid="%s"
	psk=%s
}
`

// WpaBackend drives the wireless tools directly: iwlist for scanning,
// iwgetid and /proc/net/wireless for the current association, and
// wpa_supplicant plus dhclient for connecting. It is the fallback for hosts
// without NetworkManager.
type WpaBackend struct {
	// ConfDir is where generated wpa_supplicant configs are written.
	ConfDir string
}

// NewWpaBackend returns a backend using the wpa_supplicant tool chain, or an
// error if the binaries are not available.
func NewWpaBackend() (*WpaBackend, error) {
	for _, bin := range []string{"iwlist", "wpa_supplicant"} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, fmt.Errorf("%s not found in PATH: %w", bin, err)
		}
	}
	return &WpaBackend{ConfDir: os.TempDir()}, nil
}

// Name returns the backend identifier.
func (b *WpaBackend) Name() string {
	return "wpa"
}

// Scan runs an iwlist survey on the interface.
func (b *WpaBackend) Scan(ctx context.Context, iface string) ([]domain.Observation, error) {
	out, err := exec.CommandContext(ctx, "iwlist", iface, "scanning").Output()
	if err != nil {
		return nil, fmt.Errorf("iwlist scan: %w", err)
	}
	return parseIwlistOutput(out), nil
}

// Current reads the associated SSID from iwgetid and the link quality from
// /proc/net/wireless.
func (b *WpaBackend) Current(ctx context.Context, iface string) (domain.ConnectionState, error) {
	out, err := exec.CommandContext(ctx, "iwgetid", "-r", iface).Output()
	if err != nil {
		// iwgetid exits non-zero when not associated.
		return domain.Disconnected(), nil
	}

	ssid := strings.TrimSpace(string(out))
	if ssid == "" {
		return domain.Disconnected(), nil
	}

	signal := 0
	if wireless, err := os.ReadFile("/proc/net/wireless"); err == nil {
		signal = parseProcWireless(string(wireless), iface)
	}

	return domain.ConnectionState{SSID: ssid, Signal: signal, Connected: true}, nil
}

// Connect writes a wpa_supplicant config for the network, starts the
// supplicant in the background and acquires a lease with dhclient. The
// supplicant keeps running after Connect returns; starting a new one for a
// different network replaces the association.
func (b *WpaBackend) Connect(ctx context.Context, iface, ssid, credential string) error {
	conf, err := supplicantConf(ssid, credential)
	if err != nil {
		return err
	}

	confPath := filepath.Join(b.ConfDir, "wifiroamd-wpa.conf")
	if err := os.WriteFile(confPath, []byte(conf), 0600); err != nil {
		return fmt.Errorf("write supplicant config: %w", err)
	}

	// Stop any supplicant left over from a previous association attempt.
	if out, err := exec.CommandContext(ctx, "pkill", "-f", "wpa_supplicant.*"+iface).CombinedOutput(); err != nil {
		// pkill exits 1 when nothing matched; only log other noise.
		if len(out) > 0 {
			log.Printf("pkill wpa_supplicant: %s", strings.TrimSpace(string(out)))
		}
	}

	cmd := exec.CommandContext(ctx, "wpa_supplicant", "-B", "-i", iface, "-c", confPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wpa_supplicant: %w: %s", err, strings.TrimSpace(string(out)))
	}

	// dhclient blocks until a lease is acquired or ctx expires. An incorrect
	// passphrase surfaces here as a timeout.
	dhcp := exec.CommandContext(ctx, "dhclient", "-4", "-v", iface)
	if out, err := dhcp.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("dhclient: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return nil
}

// supplicantConf renders the network block. A WPA passphrase is expanded to
// the 256-bit PSK here so the plaintext never reaches the config file.
func supplicantConf(ssid, credential string) (string, error) {
	if credential == "" {
		return fmt.Sprintf(openNetworkConf, ssid), nil
	}
	psk, err := Psk(ssid, credential)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(pskNetworkConf, ssid, psk), nil
}

// Psk derives the hex-encoded WPA pre-shared key from an SSID and
// passphrase: PBKDF2-SHA1, 4096 iterations, 32 bytes, per IEEE 802.11i.
func Psk(ssid, passphrase string) (string, error) {
	if len(passphrase) < 8 || len(passphrase) > 63 {
		return "", fmt.Errorf("passphrase for %q must be 8-63 characters, got %d", ssid, len(passphrase))
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(ssid), 4096, 32, sha1.New)
	return hex.EncodeToString(key), nil
}

// parseIwlistOutput extracts (ESSID, quality) pairs from an iwlist survey.
// Quality ratios are normalized to a percentage. Multiple cells advertising
// the same ESSID collapse to the strongest one, keeping first-seen order.
func parseIwlistOutput(out []byte) []domain.Observation {
	cells := cellRE.FindAllIndex(out, -1)
	if cells == nil {
		return nil
	}

	var observations []domain.Observation
	index := make(map[string]int)

	for i := range cells {
		start, end := cells[i][0], len(out)
		if i != len(cells)-1 {
			end = cells[i+1][0]
		}
		cell := out[start:end]

		essidMatch := essidRE.FindSubmatch(cell)
		if essidMatch == nil {
			continue
		}
		ssid := strings.TrimSpace(string(essidMatch[1]))
		if ssid == "" {
			continue
		}

		qualityMatch := qualityRE.FindSubmatch(cell)
		if qualityMatch == nil {
			log.Printf("Scan: cell for %q has no quality figure, dropped", ssid)
			continue
		}
		num, err1 := strconv.Atoi(string(qualityMatch[1]))
		den, err2 := strconv.Atoi(string(qualityMatch[2]))
		if err1 != nil || err2 != nil || den == 0 {
			log.Printf("Scan: unparseable quality for %q: %s", ssid, qualityMatch[0])
			continue
		}
		signal := qualityPercent(num, den)

		if at, seen := index[ssid]; seen {
			if signal > observations[at].Signal {
				observations[at].Signal = signal
			}
			continue
		}
		index[ssid] = len(observations)
		observations = append(observations, domain.Observation{SSID: ssid, Signal: signal})
	}

	return observations
}

// parseProcWireless returns the link quality percentage for iface from the
// contents of /proc/net/wireless, or 0 if the interface is not listed.
func parseProcWireless(content, iface string) int {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, iface+":") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return 0
		}
		// Link quality is the third column, printed as e.g. "54.".
		quality, err := strconv.Atoi(strings.TrimSuffix(fields[2], "."))
		if err != nil {
			return 0
		}
		return qualityPercent(quality, 70)
	}
	return 0
}

func qualityPercent(num, den int) int {
	pct := (num*100 + den/2) / den
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}
