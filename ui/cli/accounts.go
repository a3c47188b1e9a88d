// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// accounts.go holds the account commands: add, import, list, delete, note,
// cookie and move. Every command unlocks the vault first.

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/toeirei/acctvault/internal/i18n"
	"github.com/toeirei/acctvault/internal/store"
	"github.com/toeirei/acctvault/internal/vaulterr"
	"github.com/toeirei/acctvault/util/slicest"
)

// cookieWarningPrefix starts every session cookie the issuing site hands
// out. A pasted value without it is almost certainly not a cookie.
const cookieWarningPrefix = "_|WARNING:-DO-NOT-SHARE-THIS.--Sharing-this-will-allow-someone-to-log-in-as-you-and-to-steal-your-ROBUX-and-items.|"

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts", "acc"},
		Short:   "Manage stored accounts",
	}
	cmd.AddCommand(
		newAccountAddCmd(),
		newAccountImportCmd(),
		newAccountListCmd(),
		newAccountDeleteCmd(),
		newAccountNoteCmd(),
		newAccountCookieCmd(),
		newAccountMoveCmd(),
	)
	return cmd
}

func newAccountAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add an account or replace its cookie",
		Long:  `Add stores a cookie under username. An existing account keeps its position and, unless --note is given, its note.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cookie, err := cookieInput(cmd)
			if err != nil {
				return err
			}
			note, _ := cmd.Flags().GetString("note")
			return addAccount(cmd, args[0], cookie, note)
		},
	}
	cmd.Flags().String("cookie", "", "Session cookie")
	cmd.Flags().Bool("cookie-stdin", false, "Read the session cookie from standard input")
	cmd.Flags().String("note", "", "Free-text note")
	cmd.MarkFlagsMutuallyExclusive("cookie", "cookie-stdin")
	return cmd
}

func newAccountImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a raw session cookie",
		Long: `Import checks that the value looks like a session cookie before storing it.
The username cannot be looked up offline, so it must be given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cookie, err := cookieInput(cmd)
			if err != nil {
				return err
			}
			if err := checkCookieFormat(cookie); err != nil {
				return err
			}
			username, _ := cmd.Flags().GetString("username")
			note, _ := cmd.Flags().GetString("note")
			return addAccount(cmd, username, cookie, note)
		},
	}
	cmd.Flags().String("cookie", "", "Session cookie")
	cmd.Flags().Bool("cookie-stdin", false, "Read the session cookie from standard input")
	cmd.Flags().String("username", "", "Account username")
	cmd.Flags().String("note", "", "Free-text note")
	cmd.MarkFlagsMutuallyExclusive("cookie", "cookie-stdin")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// cookieInput returns the cookie from --cookie or standard input.
func cookieInput(cmd *cobra.Command) (string, error) {
	if fromStdin, _ := cmd.Flags().GetBool("cookie-stdin"); fromStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", vaulterr.Storage("read cookie", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	cookie, _ := cmd.Flags().GetString("cookie")
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return "", vaulterr.Configurationf("read cookie", "%s", i18n.T("account.cookie_required"))
	}
	return cookie, nil
}

func checkCookieFormat(cookie string) error {
	if !appConfig.Cookie.RequireWarningPrefix {
		return nil
	}
	if !strings.HasPrefix(cookie, cookieWarningPrefix) || len(cookie) == len(cookieWarningPrefix) {
		return vaulterr.Configurationf("import account", "%s", i18n.T("account.cookie_format"))
	}
	return nil
}

func addAccount(cmd *cobra.Command, username, cookie, note string) error {
	_, st, err := unlock(cmd)
	if err != nil {
		return err
	}
	_, existed := st.Get(username)
	if err := st.Add(store.Record{Username: username, Cookie: cookie, Note: note}); err != nil {
		return err
	}
	if existed {
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.updated", username))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.added", username))
	}
	return nil
}

func newAccountListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := unlock(cmd)
			if err != nil {
				return err
			}
			search, _ := cmd.Flags().GetString("search")
			search = strings.ToLower(search)

			rows := slicest.MapI(st.List(), func(i int, rec store.Record) []string {
				return []string{strconv.Itoa(i), rec.Username, rec.AddedDate.String(), rec.Note}
			})
			if search != "" {
				rows = slicest.Filter(rows, func(row []string) bool {
					return strings.Contains(strings.ToLower(row[1]), search) ||
						strings.Contains(strings.ToLower(row[3]), search)
				})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, i18n.T("account.none"))
				return nil
			}
			t := newTable(out,
				i18n.T("account.col_index"),
				i18n.T("account.col_username"),
				i18n.T("account.col_added"),
				i18n.T("account.col_note"),
			).Rows(rows...)
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
	cmd.Flags().String("search", "", "Only show accounts whose username or note contains this text")
	return cmd
}

func newAccountDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <username>",
		Aliases: []string{"rm"},
		Short:   "Delete an account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := unlock(cmd)
			if err != nil {
				return err
			}
			if err := st.Delete(args[0]); err != nil {
				return notFound(err, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.deleted", args[0]))
			return nil
		},
	}
}

func newAccountNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Read or change the note of an account",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <username>",
		Short: "Print the note of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := unlock(cmd)
			if err != nil {
				return err
			}
			note, err := st.Note(args[0])
			if err != nil {
				return notFound(err, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), note)
			return nil
		},
	}, &cobra.Command{
		Use:   "set <username> [note]",
		Short: "Replace the note of an account (omit the note to clear it)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := unlock(cmd)
			if err != nil {
				return err
			}
			var note string
			if len(args) == 2 {
				note = args[1]
			}
			if err := st.SetNote(args[0], note); err != nil {
				return notFound(err, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.note_saved", args[0]))
			return nil
		},
	})
	return cmd
}

func newAccountCookieCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookie <username>",
		Short: "Print or copy the cookie of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := unlock(cmd)
			if err != nil {
				return err
			}
			cookie, err := st.Cookie(args[0])
			if err != nil {
				return notFound(err, args[0])
			}
			defer cookie.Zero()

			if toClipboard, _ := cmd.Flags().GetBool("copy"); toClipboard {
				if err := copyToClipboard(string(cookie.Bytes())); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.cookie_copied", args[0]))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(cookie.Bytes()))
			return nil
		},
	}
	cmd.Flags().Bool("copy", false, "Copy the cookie to the clipboard instead of printing it")
	return cmd
}

func newAccountMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <username> <index>",
		Short: "Change the listing position of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return vaulterr.Configurationf("move account", "invalid index %q", args[1])
			}
			_, st, err := unlock(cmd)
			if err != nil {
				return err
			}
			if err := st.Move(args[0], index); err != nil {
				return notFound(err, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.moved", args[0], index))
			return nil
		},
	}
}

func notFound(err error, username string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", username, err)
	}
	return err
}
