// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vaultconfig persists which protection method guards the vault and
// its parameters. It lives in its own small side file so the metadata
// survives independently of a possibly corrupted vault payload.
package vaultconfig

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/toeirei/acctvault/internal/atomicfile"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

// FileName is the default side-file name inside the data directory.
const FileName = "encryption_config.json"

// Method is the active protection method.
type Method string

const (
	MethodNone     Method = "none"
	MethodHardware Method = "hardware"
	MethodPassword Method = "password"
)

// ParseMethod parses a user-supplied method name.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodNone, "":
		return MethodNone, nil
	case MethodHardware:
		return MethodHardware, nil
	case MethodPassword:
		return MethodPassword, nil
	default:
		return "", errors.Errorf("unknown encryption method %q", s)
	}
}

// Encrypted reports whether the method uses the envelope vault form.
func (m Method) Encrypted() bool { return m == MethodHardware || m == MethodPassword }

// ErrSaltLocked is returned when EnablePassword would replace the salt of a
// vault that is already password protected.
var ErrSaltLocked = errors.New("password salt already set; re-encrypt the vault to change it")

// fileFormat is the on-disk shape. encryption_method is null when disabled.
type fileFormat struct {
	EncryptionEnabled bool    `json:"encryption_enabled"`
	EncryptionMethod  *string `json:"encryption_method"`
	Salt              string  `json:"salt,omitempty"`
	PasswordHash      string  `json:"password_hash,omitempty"`
}

// Config is the persisted vault protection state. Only the explicit
// Enable*/Disable calls change it.
type Config struct {
	mu   sync.RWMutex
	path string

	exists       bool
	method       Method
	salt         []byte
	passwordHash string
}

// Load reads the side file at path. A missing file yields an unconfigured
// method=none state; a malformed file is a configuration error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{path: path, method: MethodNone}, nil
	}
	if err != nil {
		return nil, vaulterr.Storage("read vault config", err)
	}
	return Parse(path, data)
}

// Parse decodes side-file contents as if they had been read from path.
func Parse(path string, data []byte) (*Config, error) {
	c := &Config{path: path, method: MethodNone}

	var f fileFormat
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&f); err != nil {
		return nil, vaulterr.Configuration("parse vault config", err)
	}

	var err error
	method := MethodNone
	if f.EncryptionMethod != nil {
		if method, err = ParseMethod(*f.EncryptionMethod); err != nil {
			return nil, vaulterr.Configuration("parse vault config", err)
		}
	}
	if !f.EncryptionEnabled {
		method = MethodNone
	} else if method == MethodNone {
		return nil, vaulterr.Configurationf("parse vault config", "encryption enabled without a method")
	}

	c.exists = true
	c.method = method
	if method == MethodPassword {
		if f.Salt == "" || f.PasswordHash == "" {
			return nil, vaulterr.Configurationf("parse vault config", "password method requires salt and password_hash")
		}
		salt, err := base64.StdEncoding.DecodeString(f.Salt)
		if err != nil {
			return nil, vaulterr.Configuration("parse vault config", errors.Wrap(err, "invalid salt"))
		}
		c.salt = salt
		c.passwordHash = strings.ToLower(f.PasswordHash)
	}
	return c, nil
}

// Path returns the side-file location.
func (c *Config) Path() string { return c.path }

// Exists reports whether setup has been completed (the side file exists).
func (c *Config) Exists() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exists
}

// IsEnabled reports whether an encrypting method is active.
func (c *Config) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.method.Encrypted()
}

// Method returns the active method.
func (c *Config) Method() Method {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.method
}

// Salt returns a copy of the password salt, or nil outside password mode.
func (c *Config) Salt() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.salt == nil {
		return nil
	}
	return append([]byte(nil), c.salt...)
}

// PasswordHash returns the hex verification hash, or "" outside password mode.
func (c *Config) PasswordHash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.passwordHash
}

// EnableHardware switches to the hardware method.
func (c *Config) EnableHardware() error {
	return c.transition(MethodHardware, nil, "")
}

// EnablePassword switches to the password method with a freshly generated
// salt and the password verification hash. An existing password salt is
// never replaced here; use ReplacePassword after re-encrypting.
func (c *Config) EnablePassword(salt []byte, passwordHash string) error {
	c.mu.RLock()
	locked := c.method == MethodPassword && len(c.salt) > 0
	c.mu.RUnlock()
	if locked {
		return vaulterr.Configuration("enable password", ErrSaltLocked)
	}
	return c.ReplacePassword(salt, passwordHash)
}

// ReplacePassword installs new password parameters unconditionally. It must
// only be called once the vault has been re-encrypted under the new key.
func (c *Config) ReplacePassword(salt []byte, passwordHash string) error {
	if len(salt) == 0 || passwordHash == "" {
		return vaulterr.Configurationf("enable password", "salt and password hash are required")
	}
	return c.transition(MethodPassword, salt, strings.ToLower(passwordHash))
}

// Disable switches to method none and drops salt and hash.
func (c *Config) Disable() error {
	return c.transition(MethodNone, nil, "")
}

func (c *Config) transition(m Method, salt []byte, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := fileFormat{EncryptionEnabled: m.Encrypted()}
	if m.Encrypted() {
		name := string(m)
		next.EncryptionMethod = &name
	}
	if m == MethodPassword {
		next.Salt = base64.StdEncoding.EncodeToString(salt)
		next.PasswordHash = hash
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal vault config")
	}
	if err := atomicfile.WriteBytes(c.path, append(data, '\n')); err != nil {
		return vaulterr.Storage("write vault config", err)
	}

	c.exists = true
	c.method = m
	c.salt = nil
	c.passwordHash = ""
	if m == MethodPassword {
		c.salt = append([]byte(nil), salt...)
		c.passwordHash = hash
	}
	return nil
}
