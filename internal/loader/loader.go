// Package loader reads the trusted-network source file.
//
// The file format is sequential key=value pairs:
//
//	# home network
//	network=HomeNet
//	password=hunter2
//	network=GuestNet
//	password=
//
// A password line commits the pending network line into the table; an empty
// password marks an open network. Comment and blank lines are skipped. A
// network line with no following password line is an orphan and is dropped
// with a warning. Duplicate names keep the last definition.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"wifiroamd/internal/domain"
)

// ErrNoTrustedNetworks is returned when the source yields zero entries. The
// daemon cannot function with an empty allow-list.
var ErrNoTrustedNetworks = errors.New("no trusted networks defined")

// Load reads the trusted-network file at path and returns the table.
// A missing file or an empty table is an error; the caller decides whether
// that is fatal (startup) or a keep-previous warning (mid-run reload).
func Load(path string) (domain.TrustedTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trusted networks: %w", err)
	}
	defer f.Close()

	table := make(domain.TrustedTable)
	pending := ""
	havePending := false
	lineNo := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			log.Printf("Trusted networks %s:%d: skipping malformed line", path, lineNo)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "network":
			if havePending {
				log.Printf("Trusted networks %s:%d: network %q has no password line, dropped", path, lineNo, pending)
			}
			pending = value
			havePending = value != ""
			if value == "" {
				log.Printf("Trusted networks %s:%d: empty network name, dropped", path, lineNo)
			}
		case "password":
			if !havePending {
				log.Printf("Trusted networks %s:%d: password without a preceding network line, dropped", path, lineNo)
				continue
			}
			table[pending] = value
			pending = ""
			havePending = false
		default:
			log.Printf("Trusted networks %s:%d: unknown key %q, dropped", path, lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trusted networks: %w", err)
	}

	if havePending {
		log.Printf("Trusted networks %s: network %q has no password line, dropped", path, pending)
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTrustedNetworks)
	}

	return table, nil
}
