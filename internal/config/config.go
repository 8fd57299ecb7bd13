package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vk/composegrid/internal/commission"
	"github.com/vk/composegrid/internal/ctxlog"
)

// EnvPrefix prefixes every environment override, e.g. COMPOSEGRID_LOG_LEVEL.
const EnvPrefix = "COMPOSEGRID"

// Teardown policy names.
const (
	TeardownNone    = "none"
	TeardownReverse = "reverse"
)

// Config holds all runtime settings.
type Config struct {
	Block      BlockConfig      `mapstructure:"block"`
	Log        LogConfig        `mapstructure:"log"`
	Health     HealthConfig     `mapstructure:"health"`
	Commission CommissionConfig `mapstructure:"commission"`
}

// BlockConfig locates the block to deploy.
type BlockConfig struct {
	// Path is a block HCL file or a directory of them.
	Path string `mapstructure:"path"`
	// Targets is an optional YAML targets file.
	Targets string `mapstructure:"targets"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HealthConfig holds the introspection server configuration.
type HealthConfig struct {
	// Port of the HTTP server. 0 disables it.
	Port int `mapstructure:"port"`
}

// CommissionConfig tunes commissioning.
type CommissionConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	ContainmentTimeout time.Duration `mapstructure:"containment_timeout"`
	QueueSize          int           `mapstructure:"queue_size"`
	Teardown           string        `mapstructure:"teardown"`
}

// flagKeys maps command-line flags to setting keys.
var flagKeys = map[string]string{
	"block":               "block.path",
	"targets":             "block.targets",
	"log-level":           "log.level",
	"log-format":          "log.format",
	"health-port":         "health.port",
	"timeout":             "commission.timeout",
	"containment-timeout": "commission.containment_timeout",
	"queue-size":          "commission.queue_size",
	"teardown":            "commission.teardown",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("block.path", "")
	v.SetDefault("block.targets", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("health.port", 0)
	v.SetDefault("commission.timeout", "30s")
	v.SetDefault("commission.containment_timeout", "0s")
	v.SetDefault("commission.queue_size", commission.DefaultQueueSize)
	v.SetDefault("commission.teardown", TeardownNone)
}

// RegisterFlags declares every setting as a flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("block", "b", "", "Path to the block file or directory.")
	fs.String("targets", "", "Path to a YAML targets file.")
	fs.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.Int("health-port", 0, "Port for the HTTP introspection server. 0 is disabled.")
	fs.Duration("timeout", 30*time.Second, "Default component deployment timeout.")
	fs.Duration("containment-timeout", 0, "Deployment timeout for nested containers. 0 waits without bound.")
	fs.Int("queue-size", commission.DefaultQueueSize, "Commissioner queue capacity.")
	fs.String("teardown", TeardownNone, "Decommission policy. Options: 'none' or 'reverse'.")
}

// Load builds the configuration. configPath may be empty; flags may be nil.
// Only flags present on fs are bound.
func Load(configPath string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Commission.Teardown = strings.ToLower(cfg.Commission.Teardown)
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Block.Path) == "" {
		errs = append(errs, errors.New("block path is required"))
	}
	if _, ok := ctxlog.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", c.Log.Format))
	}
	if c.Health.Port < 0 {
		errs = append(errs, fmt.Errorf("invalid health port %d", c.Health.Port))
	}
	if c.Commission.Timeout < 0 {
		errs = append(errs, fmt.Errorf("commission timeout must not be negative, got %s", c.Commission.Timeout))
	}
	if c.Commission.ContainmentTimeout < 0 {
		errs = append(errs, fmt.Errorf("containment timeout must not be negative, got %s", c.Commission.ContainmentTimeout))
	}
	if c.Commission.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queue size must not be negative, got %d", c.Commission.QueueSize))
	}
	switch c.Commission.Teardown {
	case TeardownNone, TeardownReverse:
	default:
		errs = append(errs, fmt.Errorf("invalid teardown policy %q: must be 'none' or 'reverse'", c.Commission.Teardown))
	}
	return errors.Join(errs...)
}
