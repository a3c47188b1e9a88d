// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads the application settings (not the vault protection
// state, which lives in the vault's own side file). Settings come from
// defaults, acctvault.yaml, ACCTVAULT_* environment variables and flags, in
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName    = "acctvault"
	fileName   = appName + ".yaml"
	envPrefix  = appName
	dirPerm    = 0o700
	configPerm = 0o600
)

// flagKeys maps setting keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"data_dir": "data-dir",
	"language": "language",
}

// Config holds the application settings.
type Config struct {
	DataDir  string         `mapstructure:"data_dir" yaml:"data_dir"`
	Language string         `mapstructure:"language" yaml:"language"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Hardware HardwareConfig `mapstructure:"hardware" yaml:"hardware"`
	Keyring  KeyringConfig  `mapstructure:"keyring" yaml:"keyring"`
	Cookie   CookieConfig   `mapstructure:"cookie" yaml:"cookie"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type HardwareConfig struct {
	// AllowWeakFingerprint accepts a hostname-only fingerprint when the
	// platform probes fail. Such a key is easy to reproduce elsewhere.
	AllowWeakFingerprint bool `mapstructure:"allow_weak_fingerprint" yaml:"allow_weak_fingerprint"`
}

type KeyringConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type CookieConfig struct {
	// RequireWarningPrefix rejects imported cookies that lack the warning
	// banner the issuing site prefixes to every session cookie.
	RequireWarningPrefix bool `mapstructure:"require_warning_prefix" yaml:"require_warning_prefix"`
}

// Defaults returns the built-in settings as viper keys.
func Defaults() map[string]any {
	return map[string]any{
		"data_dir":                        DefaultDataDir(),
		"language":                        "en",
		"log.level":                       "warn",
		"hardware.allow_weak_fingerprint": false,
		"keyring.enabled":                 false,
		"cookie.require_warning_prefix":   true,
	}
}

// DefaultDataDir is where the vault lives unless data_dir says otherwise.
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, appName)
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Acctvault")
		default: // Linux, macOS, etc.
			configDir = "/etc/" + appName
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, appName)
	}

	return filepath.Join(configDir, fileName), nil
}

// LoadConfig resolves settings into T. A missing config file is reported as
// viper.ConfigFileNotFoundError alongside the defaults-filled result.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths
	v.SetConfigName(appName)
	v.SetConfigType("yaml")

	// 3. An explicit --config path wins over the search paths.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	// 4. Read in the primary config file.
	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = err
	}

	// 5. Environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range defaults {
		// AutomaticEnv only reaches keys viper already knows about when
		// unmarshalling nested structs.
		if err := v.BindEnv(key); err != nil {
			return c, err
		}
	}

	// 6. Flags. Only flags that name a setting are bound; command flags such
	// as --cookie would otherwise shadow config sections of the same name.
	if cmd != nil {
		for key, flag := range flagKeys {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return c, err
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, notFound
}

// WriteConfigFile writes c as YAML to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, dirPerm); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, configPerm)
}
