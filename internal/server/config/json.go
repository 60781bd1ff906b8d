package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/satkeeper/internal/flagx"
	"github.com/dmitrijs2005/satkeeper/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Token lifetimes use timex.Duration, which accepts both "15m" style
// strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
}

// parseJSON loads the file named by -c or -config into cfg. Without either
// flag nothing is loaded. Keys absent from the file keep their current value.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	jc := JsonConfig{
		EndpointAddrGRPC:             cfg.EndpointAddrGRPC,
		DatabaseDSN:                  cfg.DatabaseDSN,
		SecretKey:                    cfg.SecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: cfg.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: cfg.RefreshTokenValidityDuration},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.EndpointAddrGRPC = jc.EndpointAddrGRPC
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.SecretKey = jc.SecretKey
	cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	cfg.RefreshTokenValidityDuration = jc.RefreshTokenValidityDuration.Duration
	return nil
}
