// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package backup writes and restores Zstandard-compressed JSON bundles of a
// vault directory. The vault JSON is embedded as is (only whitespace is
// compacted), so an encrypted vault stays encrypted inside the bundle.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/toeirei/acctvault/internal/atomicfile"
	"github.com/toeirei/acctvault/internal/store"
	"github.com/toeirei/acctvault/internal/vaultconfig"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

// FormatVersion is the bundle layout version.
const FormatVersion = 1

// ErrVaultExists is returned by Restore when it would overwrite a vault.
var ErrVaultExists = errors.New("a vault already exists; restore with --force to replace it")

// Bundle is the decoded content of a backup file.
type Bundle struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	Method    string          `json:"method"`
	Config    json.RawMessage `json:"config,omitempty"`
	Vault     json.RawMessage `json:"vault,omitempty"`
}

// DefaultFileName is the backup name used when none is given.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("acctvault-backup-%s.json.zst", now.Format("2006-01-02"))
}

// Create snapshots the vault and its config in dataDir under the vault lock.
func Create(dataDir string, now time.Time) (*Bundle, error) {
	vaultPath := filepath.Join(dataDir, store.FileName)
	configPath := filepath.Join(dataDir, vaultconfig.FileName)

	lock := flock.New(store.LockPath(vaultPath))
	if err := lock.Lock(); err != nil {
		return nil, vaulterr.Storage("backup", err)
	}
	defer func() { _ = lock.Unlock() }()

	b := &Bundle{Version: FormatVersion, CreatedAt: now.UTC()}

	cfgData, err := readOptional(configPath)
	if err != nil {
		return nil, err
	}
	if cfgData == nil {
		return nil, vaulterr.Configurationf("backup", "vault in %s is not configured", dataDir)
	}
	cfg, err := vaultconfig.Parse(configPath, cfgData)
	if err != nil {
		return nil, err
	}
	b.Method = string(cfg.Method())
	b.Config = cfgData

	vaultData, err := readOptional(vaultPath)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(vaultData)) > 0 {
		b.Vault = vaultData
	}
	return b, b.validate()
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, vaulterr.Storage("backup", err)
	}
	return data, nil
}

// validate checks that the vault form agrees with the config method.
func (b *Bundle) validate() error {
	if b.Version != FormatVersion {
		return vaulterr.Configurationf("backup", "unsupported backup version %d", b.Version)
	}
	if len(b.Config) == 0 {
		return vaulterr.Configurationf("backup", "backup has no vault config")
	}
	cfg, err := vaultconfig.Parse(vaultconfig.FileName, b.Config)
	if err != nil {
		return err
	}
	if len(b.Vault) == 0 {
		return nil
	}
	encrypted, err := store.IsEncrypted(b.Vault)
	if err != nil {
		return err
	}
	if encrypted != cfg.IsEnabled() {
		return vaulterr.Configurationf("backup", "vault form does not match method %s", cfg.Method())
	}
	return nil
}

// Write encodes b as indented JSON into a zstd stream on w.
func Write(w io.Writer, b *Bundle) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}

	encoder := json.NewEncoder(zw)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(b); err != nil {
		_ = zw.Close()
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	return zw.Close()
}

// WriteFile writes b to filename atomically.
func WriteFile(filename string, b *Bundle) error {
	var buf bytes.Buffer
	if err := Write(&buf, b); err != nil {
		return err
	}
	if err := atomicfile.Write(filename, &buf); err != nil {
		return vaulterr.Storage("write backup", err)
	}
	return nil
}

// Read decodes and validates a bundle from a zstd stream.
func Read(r io.Reader) (*Bundle, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()

	var b Bundle
	if err := json.NewDecoder(zr).Decode(&b); err != nil {
		return nil, vaulterr.Configuration("read backup", fmt.Errorf("could not decode json from zstd reader: %w", err))
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ReadFile opens filename and decodes it.
func ReadFile(filename string) (*Bundle, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, vaulterr.Storage("read backup", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Restore writes the bundle into dataDir. An existing vault is only replaced
// with force. The vault file goes first so the config never names a method
// its vault does not use for longer than the two renames.
func Restore(dataDir string, b *Bundle, force bool) error {
	if err := b.validate(); err != nil {
		return err
	}
	vaultPath := filepath.Join(dataDir, store.FileName)
	configPath := filepath.Join(dataDir, vaultconfig.FileName)

	if err := os.MkdirAll(dataDir, atomicfile.DirMode); err != nil {
		return vaulterr.Storage("restore", err)
	}
	lock := flock.New(store.LockPath(vaultPath))
	if err := lock.Lock(); err != nil {
		return vaulterr.Storage("restore", err)
	}
	defer func() { _ = lock.Unlock() }()

	if !force {
		for _, p := range []string{vaultPath, configPath} {
			if _, err := os.Stat(p); err == nil {
				return vaulterr.Configuration("restore", ErrVaultExists)
			}
		}
	}

	_ = os.Remove(store.PendingPath(vaultPath))
	if len(b.Vault) > 0 {
		if err := atomicfile.WriteBytes(vaultPath, b.Vault); err != nil {
			return vaulterr.Storage("restore", err)
		}
	} else if err := os.Remove(vaultPath); err != nil && !os.IsNotExist(err) {
		return vaulterr.Storage("restore", err)
	}
	if err := atomicfile.WriteBytes(configPath, b.Config); err != nil {
		return vaulterr.Storage("restore", err)
	}
	return nil
}
