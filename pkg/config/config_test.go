package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout.Duration)
	assert.Equal(t, 700.0, cfg.Simulation.Width)
	assert.Equal(t, 700.0, cfg.Simulation.Height)
	assert.Equal(t, -50.0, cfg.Simulation.Charge)
	assert.Equal(t, 30.0, cfg.Simulation.LinkDistance)
	assert.Equal(t, 300, cfg.Simulation.MaxTicks)
	assert.Equal(t, "full", cfg.FortiOS.Profile)
	assert.NoError(t, cfg.Validate())
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	assert.Equal(t, "/tmp/test-xdg/netgraph", Dir())
	assert.Equal(t, "/tmp/test-xdg/netgraph/config.toml", DefaultPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".config", "netgraph"), Dir())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netgraph", "config.toml")

	cfg := Default()
	cfg.Simulation.Seed = 42
	cfg.Server.ShutdownTimeout = Duration{time.Minute}
	cfg.Log.Format = "json"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), loaded.Simulation.Seed)
	assert.Equal(t, time.Minute, loaded.Server.ShutdownTimeout.Duration)
	assert.Equal(t, "json", loaded.Log.Format)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = "127.0.0.1:9000"

[simulation]
width = 1024
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 1024.0, cfg.Simulation.Width)
	assert.Equal(t, 700.0, cfg.Simulation.Height)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"malformed toml": "[server\naddr = 1",
		"bad duration":   "[server]\nshutdown_timeout = \"soon\"",
		"empty addr":     "[server]\naddr = \" \"",
		"bad log format": "[log]\nformat = \"xml\"",
		"zero size":      "[simulation]\nwidth = 0",
		"negative ticks": "[simulation]\nmax_ticks = -1",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NETGRAPH_ADDR", ":9999")
	t.Setenv("NETGRAPH_DATA_DIR", "/srv/netgraph")
	t.Setenv("NETGRAPH_WIDTH", "960")
	t.Setenv("NETGRAPH_SEED", "7")
	t.Setenv("NETGRAPH_MAX_TICKS", "500")
	t.Setenv("NETGRAPH_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("NETGRAPH_FORTIOS_PROFILE", "legacy")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "/srv/netgraph", cfg.Store.DataDir)
	assert.Equal(t, 960.0, cfg.Simulation.Width)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
	assert.Equal(t, 500, cfg.Simulation.MaxTicks)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout.Duration)
	assert.Equal(t, "legacy", cfg.FortiOS.Profile)
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"NETGRAPH_WIDTH":            "wide",
		"NETGRAPH_MAX_TICKS":        "many",
		"NETGRAPH_SEED":             "-1",
		"NETGRAPH_SHUTDOWN_TIMEOUT": "soon",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			assert.Error(t, Default().ApplyEnv())
		})
	}
}
