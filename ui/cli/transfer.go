// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// transfer.go implements backup and restore of the vault directory.

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/acctvault/internal/backup"
	"github.com/toeirei/acctvault/internal/i18n"
)

// now is replaced in tests.
var now = time.Now

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [output-file]",
		Short: "Write a compressed backup of the vault",
		Long: `Backup copies the vault and its protection config into a Zstandard-compressed
JSON file. The vault is copied as stored: an encrypted vault stays encrypted
and a hardware-bound vault only opens on this machine.
If no output file is given, a default name is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFile := backup.DefaultFileName(now())
			if len(args) > 0 {
				outputFile = args[0]
			}

			b, err := backup.Create(appConfig.DataDir, now())
			if err != nil {
				return err
			}
			if err := backup.WriteFile(outputFile, b); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backup.written", outputFile))
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore the vault from a backup",
		Long:  `Restore replaces the vault and its protection config with the content of a backup. An existing vault is kept unless --force is given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backup.ReadFile(args[0])
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if force && !confirm(cmd, i18n.T("restore.confirm_force")) {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("common.cancelled"))
				return nil
			}
			if err := backup.Restore(appConfig.DataDir, b, force); err != nil {
				return err
			}
			// A remembered password belongs to the replaced vault.
			_ = keyringStore().Forget(vaultPathFor(appConfig.DataDir))
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("restore.done", args[0], b.Method))
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Replace an existing vault")
	return cmd
}
