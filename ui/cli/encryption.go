// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toeirei/acctvault/core/security"
	"github.com/toeirei/acctvault/internal/i18n"
	"github.com/toeirei/acctvault/internal/vaultconfig"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

func newEncryptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encryption",
		Short: "Change how the vault is protected",
	}

	change := &cobra.Command{
		Use:       "change {none|hardware|password}",
		Short:     "Re-encrypt the vault under another method",
		Long:      `Change unlocks the vault with the current method and rewrites it under the new one. Choosing password again sets a new password.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"none", "hardware", "password"},
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := vaultconfig.ParseMethod(args[0])
			if err != nil {
				return vaulterr.Configuration("change method", err)
			}
			mgr, st, err := unlock(cmd)
			if err != nil {
				return err
			}
			current := mgr.Config().Method()
			out := cmd.OutOrStdout()
			if method == current && method != vaultconfig.MethodPassword {
				fmt.Fprintln(out, i18n.T("encryption.unchanged", methodBadge(out, method)))
				return nil
			}
			if method == vaultconfig.MethodNone && !confirm(cmd, i18n.T("setup.confirm_none")) {
				fmt.Fprintln(out, i18n.T("common.cancelled"))
				return nil
			}

			var password security.Secret
			if method == vaultconfig.MethodPassword {
				password, err = newPassword(cmd, "new-password")
				if err != nil {
					return err
				}
				defer password.Zero()
			}

			if err := mgr.ChangeMethod(st, method, password); err != nil {
				return err
			}
			// A remembered password no longer opens the vault.
			if current == vaultconfig.MethodPassword {
				_ = keyringStore().Forget(mgr.VaultPath())
			}
			fmt.Fprintln(out, i18n.T("encryption.changed", methodBadge(out, current), methodBadge(out, method)))
			return nil
		},
	}
	change.Flags().String("new-password", "", "New password for the password method (prefer "+envNewPassword+" or the prompt)")

	cmd.AddCommand(change)
	return cmd
}
