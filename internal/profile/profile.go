package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// LocalBackendURL is the backend used when running in dev mode.
	LocalBackendURL = "http://localhost:8000"
	// ProductionBackendURL is the backend used outside dev mode unless overridden.
	ProductionBackendURL = "https://api.repairdesk.jp"
)

// Profile is the configuration shared by the CLI and the gateway server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the gateway server
	Addr string
	// Port is the binding port for the gateway server
	Port int
	// Data is the data directory holding local state (session id, timelines)
	Data string
	// Driver is the storage driver (bolt, sqlite, redis or memory)
	Driver string
	// DSN points to where local state is stored. Derived from Data when empty.
	DSN string
	// Version is the current version of the binary
	Version string

	// BackendURL explicitly overrides backend selection.
	BackendURL string // REPAIRDESK_BACKEND_URL (legacy: NEXT_PUBLIC_API_URL)

	// Gateway front configuration
	RateLimitPerSecond float64 // REPAIRDESK_RATE_LIMIT_RPS (default: 10)
	RateLimitBurst     int     // REPAIRDESK_RATE_LIMIT_BURST (default: 20)
}

func (p *Profile) IsDev() bool {
	return p.Mode == "dev"
}

// ResolveBackendURL selects the backend base URL.
// An explicit override wins; otherwise dev mode selects the local backend
// and every other mode selects the production backend.
func (p *Profile) ResolveBackendURL() string {
	if p.BackendURL != "" {
		return strings.TrimRight(p.BackendURL, "/")
	}
	if p.IsDev() {
		return LocalBackendURL
	}
	return ProductionBackendURL
}

// FromEnv fills values that were not set from flags.
// Supports both REPAIRDESK_* and the legacy front end variable names.
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(newKey, legacyKey string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		return os.Getenv(legacyKey)
	}

	if p.BackendURL == "" {
		p.BackendURL = getEnvWithFallback("REPAIRDESK_BACKEND_URL", "NEXT_PUBLIC_API_URL")
	}
	if p.Mode == "" && getEnvWithFallback("REPAIRDESK_DEV", "NODE_ENV") == "development" {
		p.Mode = "dev"
	}
	if p.RateLimitPerSecond <= 0 {
		p.RateLimitPerSecond = 10
	}
	if p.RateLimitBurst <= 0 {
		p.RateLimitBurst = 20
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if err := os.MkdirAll(dataDir, 0o770); err != nil {
		return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
	}
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "bolt"
	}

	switch p.Driver {
	case "memory":
		return nil
	case "redis":
		if p.DSN == "" {
			p.DSN = "localhost:6379"
		}
		return nil
	case "bolt", "sqlite":
	default:
		return errors.Errorf("unknown storage driver: %s", p.Driver)
	}

	if p.Data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to resolve home directory")
		}
		p.Data = filepath.Join(home, ".repairdesk")
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.DSN == "" {
		switch p.Driver {
		case "bolt":
			p.DSN = filepath.Join(dataDir, "repairdesk_"+p.Mode+".bolt")
		case "sqlite":
			p.DSN = filepath.Join(dataDir, "repairdesk_"+p.Mode+".db")
		}
	}
	return nil
}
