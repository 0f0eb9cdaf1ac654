// Package config loads CLI configuration from defaults, an optional config
// file, environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment variables, e.g. CSRC_VALIDATOR_ENDPOINT.
const envPrefix = "CSRC"

// Config holds all configuration for the CLI.
type Config struct {
	// ValidatorEndpoint is the host:port of the validator node.
	ValidatorEndpoint string `mapstructure:"validator_endpoint"`
	// KeyFile is the path to the hex-encoded signing key.
	KeyFile string `mapstructure:"key_file"`
	// OutputFormat selects the result rendering: text or json.
	OutputFormat string `mapstructure:"output_format"`

	Log     LogConfig     `mapstructure:"log"`
	Connect ConnectConfig `mapstructure:"connect"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Status  StatusConfig  `mapstructure:"status"`
}

// LogConfig holds logging-related configuration.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
}

// ConnectConfig holds connection-related configuration.
type ConnectConfig struct {
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// RequestTimeout bounds a single request/response exchange.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RetryConfig holds the submission retry policy.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Multiplier     float64       `mapstructure:"multiplier"`
}

// StatusConfig holds the status polling schedule.
type StatusConfig struct {
	// PollInterval is the initial delay between status queries.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// MaxPollInterval caps the growing delay between status queries.
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval"`
	// Deadline bounds the entire wait for a terminal status.
	Deadline time.Duration `mapstructure:"deadline"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit config file path. When empty, the default
	// locations are searched.
	ConfigFile string
}

// DefaultLoadOptions returns the default load options.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{}
}

// Load loads configuration using the default options.
func Load() (*Config, error) {
	return LoadWithOptions(DefaultLoadOptions())
}

// LoadWithOptions loads configuration from defaults, the config file (if
// any), a .env file (if present) and CSRC_* environment variables.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".consensource"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// BindFlags overrides configuration values with any flags the user set.
func (c *Config) BindFlags(flags *pflag.FlagSet) {
	if f := flags.Lookup("url"); f != nil && f.Changed {
		c.ValidatorEndpoint = f.Value.String()
	}
	if f := flags.Lookup("key"); f != nil && f.Changed {
		c.KeyFile = f.Value.String()
	}
	if f := flags.Lookup("output"); f != nil && f.Changed {
		c.OutputFormat = f.Value.String()
	}
	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		c.Log.Level = f.Value.String()
	}
}

// DefaultKeyFile returns the conventional signing key location.
func DefaultKeyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "csrc.priv"
	}
	return filepath.Join(home, ".consensource", "keys", "csrc.priv")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("validator_endpoint", "localhost:4004")
	v.SetDefault("key_file", DefaultKeyFile())
	v.SetDefault("output_format", "text")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.environment", "development")

	v.SetDefault("connect.dial_timeout", 10*time.Second)
	v.SetDefault("connect.request_timeout", 30*time.Second)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff", 500*time.Millisecond)
	v.SetDefault("retry.max_backoff", 10*time.Second)
	v.SetDefault("retry.multiplier", 2.0)

	v.SetDefault("status.poll_interval", time.Second)
	v.SetDefault("status.max_poll_interval", 10*time.Second)
	v.SetDefault("status.deadline", 5*time.Minute)
}
