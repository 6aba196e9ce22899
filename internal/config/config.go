// Package config provides configuration management for membank using Viper.
package config

import (
	"github.com/spf13/viper"

	"membank/internal/backup"
	"membank/internal/errors"
	"membank/internal/paths"
	"membank/internal/remote"
)

// AppName is the application name used for config file naming.
const AppName = "membank"

// Config represents the top-level configuration structure.
type Config struct {
	// BankDir is the memory bank directory. Defaults to the working directory.
	BankDir string `mapstructure:"bank_dir" yaml:"bank_dir"`

	// Remote is the release base URL. A membank.toml remote override wins.
	Remote string `mapstructure:"remote" yaml:"remote"`

	// Retention is the number of backups to keep.
	Retention int `mapstructure:"retention" yaml:"retention"`
}

// Init initializes Viper with defaults and search paths.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix("MEMBANK")
	viper.AutomaticEnv()

	viper.SetDefault("bank_dir", "")
	viper.SetDefault("remote", remote.DefaultBaseURL)
	viper.SetDefault("retention", backup.DefaultRetentionCount)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file is found.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If user specified a path, this is an error
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
			// Otherwise (implicit load), it's fine to use defaults
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Retention < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig, "retention must be at least 1, got %d", c.Retention)
	}
	return nil
}
