package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/cryptox"
)

// Config holds runtime settings for the satkeeper CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the identity provider gRPC endpoint.
//   - DataDir: directory holding the credential record and the audit database.
//   - RequestTimeout: upper bound for a single identity provider call.
//   - OnlineCheckInterval: how often the client probes provider reachability.
//   - LoginAttemptsPerMinute, LoginBurst: login throttling token bucket.
//   - MaxConcurrentHashes: how many password derivations may run at once.
type Config struct {
	ServerEndpointAddr     string
	DataDir                string
	RequestTimeout         time.Duration
	OnlineCheckInterval    time.Duration
	LoginAttemptsPerMinute int
	LoginBurst             int
	MaxConcurrentHashes    int
}

// DefaultDataDir returns ~/.satkeeper, or .satkeeper in the working
// directory when the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".satkeeper"
	}
	return filepath.Join(home, ".satkeeper")
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DataDir = DefaultDataDir()
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LoginAttemptsPerMinute = 5
	c.LoginBurst = 3
	c.MaxConcurrentHashes = cryptox.DefaultMaxConcurrent
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
