package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/types"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LABNET_CLUSTER_NUM_TOR.
const EnvPrefix = "LABNET"

type Output struct {
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=rspec xml yaml yml json"`
	// Path is the file the descriptor is written to. Empty means stdout.
	Path string `yaml:"path" mapstructure:"path"`
}

type Probe struct {
	Runner       string `yaml:"runner" mapstructure:"runner" validate:"oneof=exec native"`
	User         string `yaml:"user" mapstructure:"user" validate:"required"`
	SSHKey       string `yaml:"ssh_key" mapstructure:"ssh_key"`
	PingCount    int    `yaml:"ping_count" mapstructure:"ping_count" validate:"gte=1"`
	PingInterval string `yaml:"ping_interval" mapstructure:"ping_interval" validate:"required"`
	IperfSeconds int    `yaml:"iperf_seconds" mapstructure:"iperf_seconds" validate:"gte=1"`
	// HistoryDir holds the run history database. Empty disables recording.
	HistoryDir string `yaml:"history_dir" mapstructure:"history_dir"`
}

type Config struct {
	Cluster types.ClusterSpec `yaml:"cluster" mapstructure:"cluster"`
	Output  Output            `yaml:"output" mapstructure:"output"`
	Probe   Probe             `yaml:"probe" mapstructure:"probe"`
	Log     log.Config        `yaml:"log" mapstructure:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Cluster: types.DefaultClusterSpec(),
		Output:  Output{Format: "rspec"},
		Probe: Probe{
			Runner:       "exec",
			User:         "ubuntu",
			PingCount:    5,
			PingInterval: ".2",
			IperfSeconds: 4,
		},
		Log: log.Config{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("cluster.image", string(cfg.Cluster.DiskImage))
	v.SetDefault("cluster.hardware_type", string(cfg.Cluster.HardwareType))
	v.SetDefault("cluster.username", cfg.Cluster.Username)
	v.SetDefault("cluster.num_worker", cfg.Cluster.WorkerCount)
	v.SetDefault("cluster.num_tor", cfg.Cluster.TorCount)
	v.SetDefault("cluster.local_storage_size", cfg.Cluster.LocalStorageSize)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.path", cfg.Output.Path)
	v.SetDefault("probe.runner", cfg.Probe.Runner)
	v.SetDefault("probe.user", cfg.Probe.User)
	v.SetDefault("probe.ssh_key", cfg.Probe.SSHKey)
	v.SetDefault("probe.ping_count", cfg.Probe.PingCount)
	v.SetDefault("probe.ping_interval", cfg.Probe.PingInterval)
	v.SetDefault("probe.iperf_seconds", cfg.Probe.IperfSeconds)
	v.SetDefault("probe.history_dir", cfg.Probe.HistoryDir)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// Load reads configuration from path, or from labnet.yaml in the working
// directory or ~/.labnet/config.yaml when path is empty. A missing default
// file is not an error; environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("labnet")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".labnet"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the tool settings. Cluster parameters are left to the
// topology builder.
func (c *Config) Validate() error {
	if err := validate.Struct(c.Output); err != nil {
		return fmt.Errorf("invalid output config: %w", err)
	}
	if err := validate.Struct(c.Probe); err != nil {
		return fmt.Errorf("invalid probe config: %w", err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
