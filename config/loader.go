package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/skillsenselab/storagekit/logger"
	"github.com/skillsenselab/storagekit/storage"
)

// TelemetryConfig holds OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults fills in zero-valued telemetry fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Config is the top-level application configuration.
type Config struct {
	Service     string          `yaml:"service" mapstructure:"service"`
	Environment string          `yaml:"environment" mapstructure:"environment"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Storage     storage.Config  `yaml:"storage" mapstructure:"storage"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills in zero-valued fields across all sections.
func (c *Config) ApplyDefaults() {
	if c.Service == "" {
		c.Service = "storagekit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks all configuration sections.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Storage.Validate()
}

// LoaderConfig controls where configuration is read from.
type LoaderConfig struct {
	// ConfigFile is an explicit path to a YAML config file.
	// When empty, config.yaml is searched in the working directory and ./config.
	ConfigFile string
	// EnvFile is an explicit path to a .env file. When empty, ./.env is
	// loaded if present.
	EnvFile string
	// EnvPrefix is the prefix for environment variable overrides
	// (e.g. STORAGEKIT_STORAGE_PROVIDER). Defaults to "STORAGEKIT".
	EnvPrefix string
}

// Load reads configuration for the named service, merging the config file,
// .env file, and environment variable overrides. Missing files are not an
// error; environment variables alone can configure everything.
func Load(serviceName string, opts LoaderConfig) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: loading env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "STORAGEKIT"
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only surfaces keys viper already knows about, so every
	// key gets a typed default before unmarshaling.
	for key, def := range map[string]any{
		"service":     "",
		"environment": "",

		"logging.level":     "",
		"logging.format":    "",
		"logging.output":    "",
		"logging.no_color":  false,
		"logging.timestamp": false,
		"logging.caller":    false,

		"storage.provider":      "",
		"storage.base_path":     "",
		"storage.bucket":        "",
		"storage.region":        "",
		"storage.endpoint":      "",
		"storage.access_key":    "",
		"storage.secret_key":    "",
		"storage.app_key":       "",
		"storage.app_secret":    "",
		"storage.refresh_token": "",
		"storage.enabled":       false,

		"telemetry.enabled":     false,
		"telemetry.endpoint":    "",
		"telemetry.insecure":    false,
		"telemetry.sample_rate": 0.0,
	} {
		v.SetDefault(key, def)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	if cfg.Service == "" {
		cfg.Service = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
