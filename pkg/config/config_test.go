package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "0.0.0.0:8787", cfg.HTTPAddr())
	assert.Equal(t, "0.0.0.0:8788", cfg.GRPCAddr())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dicebot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\nlogFormat: json\nmaxRepeat: 3\n"), 0o600))
	t.Setenv("DICEBOT_PORT", "9100")
	t.Setenv("DICEBOT_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port, "env overrides file")
	assert.Equal(t, "json", cfg.LogFormat, "file overrides default")
	assert.Equal(t, 3, cfg.MaxRepeat)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 8788, cfg.GRPCPort, "default kept")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [1"), 0o600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config file")
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("DICEBOT_PORT", "not-an-int")
	_, err := Load("")
	assert.ErrorContains(t, err, "parse env:")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Port = 70000
	cfg.MaxRepeat = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 70000 out of range")
	assert.Contains(t, err.Error(), "max repeat must be positive")
}
