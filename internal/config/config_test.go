// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/toeirei/acctvault/internal/config"
)

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ConfigFileNotFoundError, got %T %v", err, err)
	}
	if got.Language != "en" || got.Log.Level != "warn" {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if !got.Cookie.RequireWarningPrefix || got.Hardware.AllowWeakFingerprint || got.Keyring.Enabled {
		t.Fatalf("unexpected boolean defaults: %+v", got)
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	tmp := t.TempDir()
	body := "data_dir: /srv/vault\nlanguage: pt-BR\nlog:\n  level: debug\nhardware:\n  allow_weak_fingerprint: true\n"
	file := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &file)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got.DataDir != "/srv/vault" || got.Language != "pt-BR" || got.Log.Level != "debug" {
		t.Fatalf("file values not applied: %+v", got)
	}
	if !got.Hardware.AllowWeakFingerprint {
		t.Fatalf("expected allow_weak_fingerprint from file")
	}
	if !got.Cookie.RequireWarningPrefix {
		t.Fatalf("unset keys must keep their defaults")
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(file, []byte("log:\n  level: info\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACCTVAULT_LOG_LEVEL", "error")
	t.Setenv("ACCTVAULT_KEYRING_ENABLED", "true")

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Log.Level != "error" || !got.Keyring.Enabled {
		t.Fatalf("environment not applied: %+v", got)
	}
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)
	t.Setenv("ACCTVAULT_DATA_DIR", "/from/env")

	cmd := &cobra.Command{}
	cmd.Flags().String("data-dir", "", "")
	if err := cmd.Flags().Set("data-dir", "/from/flag"); err != nil {
		t.Fatal(err)
	}

	got, _ := cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil)
	if got.DataDir != "/from/flag" {
		t.Fatalf("expected flag to win, got %q", got.DataDir)
	}
}

// Command flags that share a name with a config section must not replace
// that section.
func TestLoadConfig_IgnoresCommandFlags(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)

	cmd := &cobra.Command{}
	cmd.Flags().String("cookie", "", "")
	cmd.Flags().String("password", "", "")
	cmd.Flags().String("language", "", "")
	for name, value := range map[string]string{"cookie": "c", "password": "pw", "language": "es"} {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatal(err)
		}
	}

	got, err := cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil)
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !got.Cookie.RequireWarningPrefix {
		t.Fatalf("cookie section lost: %+v", got.Cookie)
	}
	if got.Language != "es" {
		t.Fatalf("expected language flag to apply, got %q", got.Language)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	c := cfg.Config{DataDir: "/data", Language: "es"}
	c.Log.Level = "info"
	if err := cfg.WriteConfigFile(&c, false); err != nil {
		t.Fatalf("WriteConfigFile failed: %v", err)
	}

	path, err := cfg.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if filepath.Dir(filepath.Dir(path)) != tmp {
		t.Fatalf("config written outside XDG_CONFIG_HOME: %s", path)
	}

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &path)
	if err != nil {
		t.Fatalf("reload written config: %v", err)
	}
	if got.DataDir != "/data" || got.Language != "es" || got.Log.Level != "info" {
		t.Fatalf("written config did not round trip: %+v", got)
	}
}
