package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/satkeeper/internal/flagx"
	"github.com/dmitrijs2005/satkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr     string         `json:"server_endpoint_addr"`
	DataDir                string         `json:"data_dir"`
	RequestTimeout         timex.Duration `json:"request_timeout"`
	OnlineCheckInterval    timex.Duration `json:"online_check_interval"`
	LoginAttemptsPerMinute int            `json:"login_attempts_per_minute"`
	LoginBurst             int            `json:"login_burst"`
	MaxConcurrentHashes    int            `json:"max_concurrent_hashes"`
}

// parseJSON overlays cfg with values loaded from the JSON file named by -c or
// -config. Without either flag it does nothing. The DTO starts from the
// current values, so keys missing from the file leave cfg unchanged.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	jc := JsonConfig{
		ServerEndpointAddr:     cfg.ServerEndpointAddr,
		DataDir:                cfg.DataDir,
		RequestTimeout:         timex.Duration{Duration: cfg.RequestTimeout},
		OnlineCheckInterval:    timex.Duration{Duration: cfg.OnlineCheckInterval},
		LoginAttemptsPerMinute: cfg.LoginAttemptsPerMinute,
		LoginBurst:             cfg.LoginBurst,
		MaxConcurrentHashes:    cfg.MaxConcurrentHashes,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.DataDir = jc.DataDir
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	cfg.LoginAttemptsPerMinute = jc.LoginAttemptsPerMinute
	cfg.LoginBurst = jc.LoginBurst
	cfg.MaxConcurrentHashes = jc.MaxConcurrentHashes
	return nil
}
