package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "WRAPSHAKE"

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "wrapshake.toml"

// newViper builds a Viper instance reading TOML with WRAPSHAKE_ environment
// overrides, mapping nested keys like "docking.engine" to
// WRAPSHAKE_DOCKING_ENGINE.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the file at path, merges environment overrides, applies
// defaults and validates the result. With an empty path, wrapshake.toml in
// the working directory is used when present and defaults otherwise.
func Load(path string) (*Config, error) {
	v := newViper()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrConfig, path, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, ".toml"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrConfig, DefaultFileName, err)
			}
		}
	}

	return unmarshalAndFinalize(v)
}

// File returns the config file Load would use for path, or "" when only
// defaults apply.
func File(path string) string {
	if path != "" {
		return path
	}
	v := newViper()
	v.SetConfigName(strings.TrimSuffix(DefaultFileName, ".toml"))
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return v.ConfigFileUsed()
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding configuration: %v", domain.ErrConfig, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
