package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rzbill/labnet/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultClusterSpec(), cfg.Cluster)
	assert.Equal(t, "rspec", cfg.Output.Format)
	assert.Equal(t, "exec", cfg.Probe.Runner)
	assert.Equal(t, "ubuntu", cfg.Probe.User)
	assert.Equal(t, 5, cfg.Probe.PingCount)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cluster:
  num_worker: 12
  num_tor: 4
  username: dave
  local_storage_size: 40GB
output:
  format: yaml
  path: /tmp/profile.yaml
probe:
  runner: native
  ssh_key: /keys/id_ed25519
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Cluster.WorkerCount)
	assert.Equal(t, 4, cfg.Cluster.TorCount)
	assert.Equal(t, "dave", cfg.Cluster.Username)
	assert.Equal(t, "40GB", cfg.Cluster.LocalStorageSize)
	assert.Equal(t, types.HardwareM510, cfg.Cluster.HardwareType)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "native", cfg.Probe.Runner)
	assert.Equal(t, "/keys/id_ed25519", cfg.Probe.SSHKey)
	assert.Equal(t, 4, cfg.Probe.IperfSeconds)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LABNET_CLUSTER_NUM_TOR", "6")
	t.Setenv("LABNET_PROBE_USER", "root")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Cluster.TorCount)
	assert.Equal(t, "root", cfg.Probe.User)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad format", func(c *Config) { c.Output.Format = "toml" }, true},
		{"bad runner", func(c *Config) { c.Probe.Runner = "telnet" }, true},
		{"zero pings", func(c *Config) { c.Probe.PingCount = 0 }, true},
		{"no user", func(c *Config) { c.Probe.User = "" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, true},
		{"odd tor count is not a config error", func(c *Config) { c.Cluster.TorCount = 3 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdirForTest changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
