// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vault wires the vault configuration, key derivation and the
// credential store together. A Manager is the only thing the CLI talks to
// when it needs to unlock, set up or re-protect the vault.
package vault

import (
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	clog "github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/toeirei/acctvault/core/security"
	"github.com/toeirei/acctvault/internal/kdf"
	"github.com/toeirei/acctvault/internal/logging"
	"github.com/toeirei/acctvault/internal/machineid"
	"github.com/toeirei/acctvault/internal/store"
	"github.com/toeirei/acctvault/internal/vaultconfig"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

// MinPasswordLength is the shortest password accepted at setup.
const MinPasswordLength = 8

var (
	// ErrAlreadyConfigured is returned by Setup once the vault has a config.
	ErrAlreadyConfigured = errors.New("vault is already configured; use encryption change")
	// ErrNotConfigured is returned by ChangeMethod before Setup.
	ErrNotConfigured = errors.New("vault is not configured; run setup first")
	// ErrPasswordRequired is returned when the password method has no input.
	ErrPasswordRequired = errors.New("a password is required to unlock this vault")
	// ErrPasswordTooShort is returned when a new password is too short.
	ErrPasswordTooShort = errors.Errorf("password must be at least %d characters", MinPasswordLength)
	// ErrWeakFingerprint is returned when hardware probes failed and the
	// hostname fallback has not been allowed.
	ErrWeakFingerprint = errors.New("hardware identity unavailable; only a hostname fallback could be computed")
)

// Options configures a Manager.
type Options struct {
	// DataDir holds the vault file and its config side file.
	DataDir string
	// Provider fingerprints the machine. Defaults to the host provider.
	Provider machineid.Identifier
	// AllowWeakFingerprint accepts the hostname fallback for the hardware
	// method.
	AllowWeakFingerprint bool
	Now                  func() time.Time
	Logger               *clog.Logger
}

// Manager resolves key material for the configured method and hands out
// stores built with it.
type Manager struct {
	vaultPath string
	cfg       *vaultconfig.Config
	provider  machineid.Identifier
	allowWeak bool
	now       func() time.Time
	log       *clog.Logger
}

// New loads the vault config found in opts.DataDir.
func New(opts Options) (*Manager, error) {
	if opts.DataDir == "" {
		return nil, vaulterr.Configurationf("open vault", "data directory is required")
	}
	cfg, err := vaultconfig.Load(filepath.Join(opts.DataDir, vaultconfig.FileName))
	if err != nil {
		return nil, err
	}

	m := &Manager{
		vaultPath: filepath.Join(opts.DataDir, store.FileName),
		cfg:       cfg,
		provider:  opts.Provider,
		allowWeak: opts.AllowWeakFingerprint,
		now:       opts.Now,
		log:       opts.Logger,
	}
	if m.provider == nil {
		m.provider = machineid.NewHostProvider()
	}
	if m.log == nil {
		m.log = logging.Component("vault")
	}
	return m, nil
}

// Config returns the loaded vault configuration.
func (m *Manager) Config() *vaultconfig.Config { return m.cfg }

// VaultPath returns the vault file location.
func (m *Manager) VaultPath() string { return m.vaultPath }

// Open resolves the key for the configured method and returns a store for
// it. password is only consulted by the password method. An interrupted
// method switch is finished or discarded before the store is returned.
func (m *Manager) Open(password security.Secret) (*store.Store, error) {
	method := m.cfg.Method()
	key, err := m.unlockKey(method, password)
	if err != nil {
		return nil, err
	}

	st, err := m.newStore(method, key)
	if err != nil {
		return nil, err
	}
	if _, err := st.RecoverPending(); err != nil {
		return nil, err
	}
	return st, nil
}

// Setup performs the first-run configuration. A plain vault left by an
// unconfigured install is re-encrypted under the chosen method.
func (m *Manager) Setup(method vaultconfig.Method, password security.Secret) (*store.Store, error) {
	if m.cfg.Exists() {
		return nil, vaulterr.Configuration("setup", ErrAlreadyConfigured)
	}

	st, err := m.newStore(vaultconfig.MethodNone, nil)
	if err != nil {
		return nil, err
	}
	if err := m.switchTo(st, method, password); err != nil {
		return nil, err
	}
	m.log.Info("vault configured", "method", string(method))
	return st, nil
}

// ChangeMethod re-protects the vault behind st under method. Switching to
// the password method, including from password to password, generates a
// new salt. The vault is re-encrypted before the new config is considered
// final, so the file always matches the config on disk.
func (m *Manager) ChangeMethod(st *store.Store, method vaultconfig.Method, password security.Secret) error {
	if !m.cfg.Exists() {
		return vaulterr.Configuration("change method", ErrNotConfigured)
	}
	current := m.cfg.Method()
	if method == current && method != vaultconfig.MethodPassword {
		return nil
	}
	if err := m.switchTo(st, method, password); err != nil {
		return err
	}
	m.log.Info("vault method changed", "from", string(current), "to", string(method))
	return nil
}

// switchTo derives the key for method, then re-encrypts st and commits the
// matching config inside the store's locked section.
func (m *Manager) switchTo(st *store.Store, method vaultconfig.Method, password security.Secret) error {
	var (
		key    security.Secret
		commit func() error
	)
	switch method {
	case vaultconfig.MethodNone:
		commit = m.cfg.Disable
	case vaultconfig.MethodHardware:
		k, err := m.hardwareKey()
		if err != nil {
			return err
		}
		key, commit = k, m.cfg.EnableHardware
	case vaultconfig.MethodPassword:
		if err := ValidatePassword(password); err != nil {
			return err
		}
		salt, err := kdf.NewSalt()
		if err != nil {
			return vaulterr.Storage("setup", err)
		}
		k, err := kdf.DeriveFromPassword(password, salt)
		if err != nil {
			return vaulterr.Configuration("setup", err)
		}
		hash := kdf.PasswordHash(password)
		key = k
		if m.cfg.Method() == vaultconfig.MethodPassword {
			commit = func() error { return m.cfg.ReplacePassword(salt, hash) }
		} else {
			commit = func() error { return m.cfg.EnablePassword(salt, hash) }
		}
	default:
		return vaulterr.Configurationf("setup", "unknown encryption method %q", method)
	}
	return st.Rekey(method, key, commit)
}

// ValidatePassword enforces the minimum password length for new passwords.
func ValidatePassword(password security.Secret) error {
	if password.IsEmpty() {
		return vaulterr.Configuration("password", ErrPasswordRequired)
	}
	if utf8.RuneCount(password) < MinPasswordLength {
		return vaulterr.Configuration("password", ErrPasswordTooShort)
	}
	return nil
}

// unlockKey resolves the key for an existing vault.
func (m *Manager) unlockKey(method vaultconfig.Method, password security.Secret) (security.Secret, error) {
	switch method {
	case vaultconfig.MethodNone:
		return nil, nil
	case vaultconfig.MethodHardware:
		return m.hardwareKey()
	case vaultconfig.MethodPassword:
		if password.IsEmpty() {
			return nil, vaulterr.Configuration("unlock", ErrPasswordRequired)
		}
		salt := m.cfg.Salt()
		if len(salt) == 0 {
			return nil, vaulterr.Configurationf("unlock", "password salt is missing from the vault config")
		}
		// The verification hash is checked before any derivation so a typo
		// never reaches the cipher.
		if !kdf.VerifyPasswordHash(password, m.cfg.PasswordHash()) {
			m.log.Warn("password rejected")
			return nil, vaulterr.Authentication("unlock")
		}
		key, err := kdf.DeriveFromPassword(password, salt)
		if err != nil {
			return nil, vaulterr.Configuration("unlock", err)
		}
		return key, nil
	default:
		return nil, vaulterr.Configurationf("unlock", "unknown encryption method %q", method)
	}
}

func (m *Manager) hardwareKey() (security.Secret, error) {
	id := m.provider.Identify()
	if id.Fallback {
		if !m.allowWeak {
			return nil, vaulterr.Configuration("hardware key", ErrWeakFingerprint)
		}
		m.log.Warn("using weak hostname fingerprint for hardware method")
	}
	return kdf.DeriveFromFingerprint(id.Fingerprint), nil
}

func (m *Manager) newStore(method vaultconfig.Method, key security.Secret) (*store.Store, error) {
	return store.New(store.Options{
		Path:   m.vaultPath,
		Method: method,
		Key:    key,
		Now:    m.now,
	})
}

// Status summarises the vault protection state.
type Status struct {
	Configured      bool
	Method          vaultconfig.Method
	Encrypted       bool
	WeakFingerprint bool
	VaultExists     bool
	PendingSwitch   bool
	VaultPath       string
	ConfigPath      string
}

// Status reports the current state without unlocking anything. The
// fingerprint is only computed for the hardware method.
func (m *Manager) Status() Status {
	s := Status{
		Configured: m.cfg.Exists(),
		Method:     m.cfg.Method(),
		Encrypted:  m.cfg.IsEnabled(),
		VaultPath:  m.vaultPath,
		ConfigPath: m.cfg.Path(),
	}
	if s.Method == vaultconfig.MethodHardware {
		s.WeakFingerprint = m.provider.Identify().Fallback
	}
	if _, err := os.Stat(m.vaultPath); err == nil {
		s.VaultExists = true
	}
	if _, err := os.Stat(store.PendingPath(m.vaultPath)); err == nil {
		s.PendingSwitch = true
	}
	return s
}
