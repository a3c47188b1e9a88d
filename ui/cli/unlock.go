// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/toeirei/acctvault/core/security"
	"github.com/toeirei/acctvault/internal/i18n"
	"github.com/toeirei/acctvault/internal/keyring"
	"github.com/toeirei/acctvault/internal/logging"
	"github.com/toeirei/acctvault/internal/machineid"
	"github.com/toeirei/acctvault/internal/store"
	"github.com/toeirei/acctvault/internal/vault"
	"github.com/toeirei/acctvault/internal/vaultconfig"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

const (
	envPassword    = "ACCTVAULT_PASSWORD"
	envNewPassword = "ACCTVAULT_NEW_PASSWORD"
)

// identifier fingerprints the machine for the hardware method. Tests swap it
// for a fixed identity.
var identifier machineid.Identifier = machineid.NewHostProvider()

// readSecret reads a secret without echo. Tests replace it.
var readSecret = func(cmd *cobra.Command, prompt string) (security.Secret, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}
		return security.FromBytes(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return security.FromString(strings.TrimRight(line, "\r\n")), nil
}

// isInteractive reports whether stdin is a terminal.
var isInteractive = func(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func addUnlockFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("password", "", "Vault password (prefer "+envPassword+" or the prompt)")
	cmd.PersistentFlags().Bool("remember", false, "Save the password in the OS keyring after a successful unlock")
}

func openManager() (*vault.Manager, error) {
	return vault.New(vault.Options{
		DataDir:              appConfig.DataDir,
		Provider:             identifier,
		AllowWeakFingerprint: appConfig.Hardware.AllowWeakFingerprint,
		Logger:               logging.Component("vault"),
	})
}

func vaultPathFor(dataDir string) string {
	return filepath.Join(dataDir, store.FileName)
}

func keyringStore() keyring.Store {
	return keyring.Store{Enabled: appConfig.Keyring.Enabled}
}

// unlock opens and loads the vault. For the password method the password is
// taken from --password, then the environment, then the keyring, then a
// prompt.
func unlock(cmd *cobra.Command) (*vault.Manager, *store.Store, error) {
	mgr, err := openManager()
	if err != nil {
		return nil, nil, err
	}

	var (
		password    security.Secret
		fromKeyring bool
	)
	if mgr.Config().Method() == vaultconfig.MethodPassword {
		password, fromKeyring, err = resolvePassword(cmd, mgr.VaultPath())
		if err != nil {
			return nil, nil, err
		}
		defer password.Zero()
	}

	st, err := mgr.Open(password)
	if err != nil {
		if fromKeyring && errors.Is(err, vaulterr.ErrAuthentication) {
			// The saved password is stale.
			_ = keyringStore().Forget(mgr.VaultPath())
		}
		return nil, nil, err
	}
	if _, err := st.Load(); err != nil {
		return nil, nil, err
	}

	if remember, _ := cmd.Flags().GetBool("remember"); remember && !password.IsEmpty() && !fromKeyring {
		if err := keyringStore().Save(mgr.VaultPath(), password); err != nil {
			logging.Warnf("%s", i18n.T("keyring.save_failed", err))
		}
	}
	return mgr, st, nil
}

func resolvePassword(cmd *cobra.Command, vaultPath string) (security.Secret, bool, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return security.FromString(pw), false, nil
	}
	if pw := os.Getenv(envPassword); pw != "" {
		return security.FromString(pw), false, nil
	}
	if pw, ok := keyringStore().Get(vaultPath); ok {
		return pw, true, nil
	}
	pw, err := readSecret(cmd, i18n.T("prompt.password"))
	if err != nil {
		return nil, false, vaulterr.Configuration("read password", err)
	}
	return pw, false, nil
}

// newPassword resolves a password being set. Interactive input is asked
// twice.
func newPassword(cmd *cobra.Command, flag string) (security.Secret, error) {
	if pw, _ := cmd.Flags().GetString(flag); pw != "" {
		return security.FromString(pw), nil
	}
	if pw := os.Getenv(envNewPassword); pw != "" {
		return security.FromString(pw), nil
	}
	first, err := readSecret(cmd, i18n.T("prompt.new_password"))
	if err != nil {
		return nil, vaulterr.Configuration("read password", err)
	}
	if !isInteractive(cmd) {
		return first, nil
	}
	second, err := readSecret(cmd, i18n.T("prompt.confirm_password"))
	if err != nil {
		return nil, vaulterr.Configuration("read password", err)
	}
	defer second.Zero()
	if !first.Equal(second) {
		first.Zero()
		return nil, vaulterr.Configuration("read password", errors.New(i18n.T("error.password_mismatch")))
	}
	return first, nil
}

// confirm asks a yes/no question on a terminal. Non-interactive runs
// proceed.
func confirm(cmd *cobra.Command, question string) bool {
	if !isInteractive(cmd) {
		return true
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim", "si", "sí":
		return true
	}
	return false
}
