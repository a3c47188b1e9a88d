// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keyring remembers the vault unlock password in the OS keyring
// (Keychain, Credential Manager, Secret Service). Nothing is ever written to
// a plain file.
package keyring

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"

	"github.com/toeirei/acctvault/core/security"
	"github.com/toeirei/acctvault/internal/logging"
)

// Store persists unlock passwords keyed by vault path.
type Store struct {
	// Enabled turns the keyring on; a disabled store finds nothing and
	// refuses to save.
	Enabled bool
}

// ErrDisabled is returned by Save when keyring use is turned off.
var ErrDisabled = errors.New("keyring support is disabled (keyring.enabled)")

var log = logging.Component("keyring")

// Get returns the remembered password for the vault at vaultPath.
func (s Store) Get(vaultPath string) (security.Secret, bool) {
	if !s.Enabled {
		return nil, false
	}
	pw, err := keyring.Get(itemID(vaultPath), username())
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Debug("keyring lookup failed", "err", err)
		}
		return nil, false
	}
	log.Debug("password retrieved from OS keyring", "vault", vaultPath)
	return security.FromString(pw), true
}

// Save remembers password for the vault at vaultPath.
func (s Store) Save(vaultPath string, password security.Secret) error {
	if !s.Enabled {
		return ErrDisabled
	}
	if err := keyring.Set(itemID(vaultPath), username(), string(password.Bytes())); err != nil {
		return errors.Wrap(err, "error saving password in key ring")
	}
	log.Debug("saved password in OS keyring", "vault", vaultPath)
	return nil
}

// Forget removes a remembered password. A missing item is not an error.
func (s Store) Forget(vaultPath string) error {
	if !s.Enabled {
		return nil
	}
	err := keyring.Delete(itemID(vaultPath), username())
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Wrapf(err, "unable to delete keyring item %v", itemID(vaultPath))
	}
	return nil
}

func itemID(vaultPath string) string {
	if abs, err := filepath.Abs(vaultPath); err == nil {
		vaultPath = abs
	}
	h := sha256.New()
	io.WriteString(h, vaultPath) //nolint:errcheck

	return fmt.Sprintf("acctvault-%v-%x", filepath.Base(vaultPath), h.Sum(nil)[0:8])
}

func username() string {
	currentUser, err := user.Current()
	if err != nil {
		log.Error("cannot determine keyring username", "err", err)
		return "nobody"
	}

	u := currentUser.Username
	if runtime.GOOS == "windows" {
		// Ignore the domain part.
		if p := strings.Index(u, "\\"); p >= 0 {
			u = u[p+1:]
		}
	}
	return u
}
