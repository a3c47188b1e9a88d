// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"github.com/pkg/errors"

	"github.com/toeirei/acctvault/internal/i18n"
	"github.com/toeirei/acctvault/internal/store"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

// Process exit codes, one per failure kind.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitConfiguration  = 2
	ExitAuthentication = 3
	ExitIntegrity      = 4
	ExitStorage        = 5
)

// ExitCode maps err onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch vaulterr.KindOf(err) {
	case vaulterr.KindConfiguration:
		return ExitConfiguration
	case vaulterr.KindAuthentication:
		return ExitAuthentication
	case vaulterr.KindIntegrity:
		return ExitIntegrity
	case vaulterr.KindStorage:
		return ExitStorage
	default:
		return ExitFailure
	}
}

// ErrorMessage renders err for the terminal in the active language. The
// underlying cause is appended when verbose output is on.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var msg string
	switch vaulterr.KindOf(err) {
	case vaulterr.KindAuthentication:
		msg = i18n.T("error.authentication")
	case vaulterr.KindIntegrity:
		msg = i18n.T("error.integrity")
	case vaulterr.KindStorage:
		msg = i18n.T("error.storage", err)
	case vaulterr.KindConfiguration:
		msg = i18n.T("error.configuration", err)
	default:
		if errors.Is(err, store.ErrNotFound) {
			return i18n.T("error.not_found")
		}
		return i18n.T("error.generic", err)
	}
	if verbose && vaulterr.KindOf(err) != vaulterr.KindConfiguration && vaulterr.KindOf(err) != vaulterr.KindStorage {
		msg += " (" + err.Error() + ")"
	}
	return msg
}
