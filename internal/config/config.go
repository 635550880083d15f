// Package config loads repository configuration from pqhub.yaml,
// layered under PQHUB_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file expected at the repository root.
const FileName = "pqhub.yaml"

// Config holds the tunable behavior of one repository.
type Config struct {
	// DefaultCategory is assigned to scripts created or imported
	// without a category of their own.
	DefaultCategory string `mapstructure:"default_category"`
	// DefaultVersion is stamped on scripts created without a version.
	DefaultVersion string `mapstructure:"default_version"`
	// LockTimeout bounds how long mutations wait for the repository
	// file lock.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	// Editor overrides $EDITOR for the edit command.
	Editor string `mapstructure:"editor"`
}

// Load reads the config for the repository rooted at root. A missing
// file yields the defaults; a malformed one is an error.
func Load(root string) (*Config, error) {
	v := viper.New()
	v.SetDefault("default_category", "Uncategorized")
	v.SetDefault("default_version", "1.0")
	v.SetDefault("lock_timeout", "5s")
	v.SetDefault("editor", "")

	v.SetConfigName("pqhub")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)

	v.SetEnvPrefix("PQHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("cannot read config in %s: %w", root, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	return &cfg, nil
}
