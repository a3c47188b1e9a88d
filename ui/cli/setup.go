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

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "setup {none|hardware|password}",
		Short:     "Choose how the vault is protected (first run only)",
		Long:      `Setup records the protection method for a new vault. An existing plain vault is re-encrypted under the chosen method. Use 'encryption change' afterwards.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"none", "hardware", "password"},
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := vaultconfig.ParseMethod(args[0])
			if err != nil {
				return vaulterr.Configuration("setup", err)
			}
			mgr, err := openManager()
			if err != nil {
				return err
			}
			if mgr.Config().Exists() {
				return vaulterr.Configurationf("setup", "%s", i18n.T("setup.already_configured"))
			}

			if method == vaultconfig.MethodNone && !confirm(cmd, i18n.T("setup.confirm_none")) {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("common.cancelled"))
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

			st, err := mgr.Setup(method, password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("setup.done", methodBadge(out, method), st.Len()))
			if method == vaultconfig.MethodPassword {
				fmt.Fprintln(out, warn(out, i18n.T("setup.password_warning")))
			}
			return nil
		},
	}
	cmd.Flags().String("new-password", "", "Password for the password method (prefer "+envNewPassword+" or the prompt)")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how the vault is protected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			s := mgr.Status()
			out := cmd.OutOrStdout()

			if !s.Configured {
				fmt.Fprintln(out, i18n.T("status.not_configured"))
			}
			fmt.Fprintln(out, i18n.T("status.method", methodBadge(out, s.Method)))
			fmt.Fprintln(out, i18n.T("status.vault_path", s.VaultPath))
			fmt.Fprintln(out, i18n.T("status.config_path", s.ConfigPath))
			if !s.VaultExists {
				fmt.Fprintln(out, i18n.T("status.no_vault"))
			}
			if s.WeakFingerprint {
				fmt.Fprintln(out, warn(out, i18n.T("status.weak_fingerprint")))
			}
			if s.PendingSwitch {
				fmt.Fprintln(out, warn(out, i18n.T("status.pending_switch")))
			}
			return nil
		},
	}
}
