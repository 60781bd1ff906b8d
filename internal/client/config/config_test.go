package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, ".satkeeper", filepath.Base(c.DataDir))
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 5, c.LoginAttemptsPerMinute)
	assert.Equal(t, 3, c.LoginBurst)
	assert.Equal(t, cryptox.DefaultMaxConcurrent, c.MaxConcurrentHashes)
}

func TestLoadConfig_DefaultsWithoutArgs(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, cfg)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"server_endpoint_addr": "json:1",
		"login_burst":          9,
	})

	cfg, err := LoadConfig([]string{"-c", path, "-a", "flag:2", "-unknown", "x"})
	require.NoError(t, err)

	assert.Equal(t, "flag:2", cfg.ServerEndpointAddr)
	assert.Equal(t, 9, cfg.LoginBurst)
}
