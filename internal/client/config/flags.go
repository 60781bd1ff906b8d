package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags. Only the flags
// defined here are parsed; anything else on the command line is ignored.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("satkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the identity provider")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "identity provider request timeout")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.IntVar(&cfg.LoginAttemptsPerMinute, "r", cfg.LoginAttemptsPerMinute, "login attempts per minute")
	fs.IntVar(&cfg.LoginBurst, "b", cfg.LoginBurst, "login attempt burst")
	fs.IntVar(&cfg.MaxConcurrentHashes, "k", cfg.MaxConcurrentHashes, "maximum concurrent password hashes")

	if err := flagx.ParseOwn(fs, args); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
