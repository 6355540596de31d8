package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"wifiroamd/internal/adapter"
	"wifiroamd/internal/config"
	"wifiroamd/internal/loader"
	"wifiroamd/internal/lockfile"
	"wifiroamd/internal/repository/sqlite"
	"wifiroamd/internal/service"
	"wifiroamd/internal/watcher"
)

func main() {
	// Command line flags; non-empty values override the config file.
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	iface := flag.String("interface", "", "wireless interface (default: auto-detect)")
	trustedFile := flag.String("trusted", "", "trusted networks file")
	interval := flag.Duration("interval", 0, "scan interval")
	threshold := flag.Int("threshold", -1, "switch threshold in signal points")
	connectTimeout := flag.Duration("connect-timeout", 0, "connection attempt timeout")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting wifiroamd...")

	cfg, usedPath, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if usedPath != "" {
		log.Printf("Config loaded: %s", usedPath)
	} else {
		log.Printf("No config file found, using defaults")
	}

	applyFlagOverrides(cfg, *iface, *trustedFile, *interval, *threshold, *connectTimeout)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Singleton guard: two instances would issue conflicting connects.
	lock, err := lockfile.Acquire(cfg.LockFile)
	if err != nil {
		log.Fatalf("Failed to acquire instance lock: %v", err)
	}
	defer lock.Release()

	if cfg.Interface == "" {
		detected, err := detectWirelessInterface()
		if err != nil {
			log.Fatalf("Failed to detect wireless interface: %v", err)
		}
		cfg.Interface = detected
		log.Printf("Auto-detected wireless interface: %s", cfg.Interface)
	}

	// The daemon cannot function with an empty allow-list; fail now
	// rather than idling through useless cycles.
	table, err := loader.Load(cfg.TrustedFile)
	if err != nil {
		log.Fatalf("Failed to load trusted networks: %v", err)
	}
	log.Printf("Loaded %d trusted networks from %s", len(table), cfg.TrustedFile)

	backend, err := newBackend(cfg.Backend)
	if err != nil {
		log.Fatalf("Failed to initialize %s backend: %v", cfg.Backend, err)
	}

	log.Println(cfg.Summary())

	eventBus := service.NewEventBus()
	executor := adapter.NewExecutor(backend, cfg.ConnectTimeout.Duration())
	roamer := service.NewRoamer(service.RoamerConfig{
		Interface:   cfg.Interface,
		TrustedFile: cfg.TrustedFile,
		Interval:    cfg.ScanInterval.Duration(),
		Threshold:   cfg.Threshold(),
	}, backend, executor, eventBus)
	roamer.SeedTable(table)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.History.Path != "" {
		repo, err := sqlite.New(cfg.History.Path)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer repo.Close()
		log.Printf("History database opened: %s", cfg.History.Path)

		if retention := cfg.History.Retention.Duration(); retention > 0 {
			cutoff := time.Now().Add(-retention)
			if pruned, err := repo.PruneBefore(ctx, cutoff); err != nil {
				log.Printf("Warning: history prune failed: %v", err)
			} else if pruned > 0 {
				log.Printf("Pruned %d history events older than %s", pruned, cfg.History.Retention)
			}
		}

		roamer.SetHistory(repo)
	}

	if cfg.LinkCheck.Enabled {
		verifier := adapter.NewLinkVerifier(cfg.LinkCheck.Gateway, cfg.LinkCheck.Timeout.Duration())
		if verifier.Available(ctx) {
			roamer.SetLinkVerifier(verifier)
			log.Printf("Link verification enabled (gateway=%s)", cfg.LinkCheck.Gateway)
		} else {
			log.Printf("Warning: link_check enabled but nmap is not available, skipping")
		}
	}

	// Watch the trusted-network file so edits take effect without waiting
	// out the scan interval. The per-cycle reload remains authoritative.
	trustedWatcher := watcher.New(cfg.TrustedFile, roamer.TriggerCycle)
	go func() {
		if err := trustedWatcher.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Warning: trusted file watcher stopped: %v", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		roamer.Run(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()
	<-done
	log.Println("wifiroamd stopped")
}

func loadConfig(explicit string) (*config.Config, string, error) {
	if explicit != "" {
		return config.LoadFromPath(explicit)
	}
	return config.Load()
}

func applyFlagOverrides(cfg *config.Config, iface, trustedFile string, interval time.Duration, threshold int, connectTimeout time.Duration) {
	if iface != "" {
		cfg.Interface = iface
	}
	if trustedFile != "" {
		cfg.TrustedFile = trustedFile
	}
	if interval > 0 {
		cfg.ScanInterval = config.Duration(interval)
	}
	if threshold >= 0 {
		cfg.SwitchThreshold = &threshold
	}
	if connectTimeout > 0 {
		cfg.ConnectTimeout = config.Duration(connectTimeout)
	}
}

func newBackend(name string) (adapter.Backend, error) {
	switch name {
	case "nmcli":
		return adapter.NewNmcliBackend()
	case "wpa":
		return adapter.NewWpaBackend()
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// detectWirelessInterface returns the first interface with an 802.11 stack,
// identified by the wireless directory the kernel exposes under sysfs.
func detectWirelessInterface() (string, error) {
	entries, err := os.ReadDir("/sys/class/net")
	if err != nil {
		return "", fmt.Errorf("list network interfaces: %w", err)
	}

	for _, entry := range entries {
		wireless := filepath.Join("/sys/class/net", entry.Name(), "wireless")
		if info, err := os.Stat(wireless); err == nil && info.IsDir() {
			return entry.Name(), nil
		}
	}

	return "", fmt.Errorf("no wireless interface found")
}
