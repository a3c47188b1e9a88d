// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vaulterr defines the closed set of failure kinds surfaced by the
// vault so callers can branch on the kind of failure instead of matching
// message text.
package vaulterr

import (
	"github.com/pkg/errors"
)

// Kind classifies a vault failure.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in the vault.
	KindUnknown Kind = iota
	// KindConfiguration: password required but not supplied, method/file-format
	// mismatch, malformed config side-file.
	KindConfiguration
	// KindAuthentication: the entered password does not match the stored
	// verification hash.
	KindAuthentication
	// KindIntegrity: authenticated decryption failed (wrong key, different
	// machine, tampered or corrupted ciphertext).
	KindIntegrity
	// KindStorage: underlying read/write failure.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindIntegrity:
		return "integrity"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrConfiguration  = errors.New("vault configuration error")
	ErrAuthentication = errors.New("wrong password")
	ErrIntegrity      = errors.New("wrong credential or corrupted vault")
	ErrStorage        = errors.New("vault storage error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindAuthentication:
		return ErrAuthentication
	case KindIntegrity:
		return ErrIntegrity
	case KindStorage:
		return ErrStorage
	default:
		return nil
	}
}

// Error is a tagged vault failure. Op names the operation that failed and Err
// carries the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel()
	var text string
	if msg != nil {
		text = msg.Error()
	} else {
		text = "vault error"
	}
	if e.Op != "" {
		text = e.Op + ": " + text
	}
	if e.Err != nil {
		text += ": " + e.Err.Error()
	}
	return text
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(k Kind, op string, err error) error {
	return &Error{Kind: k, Op: op, Err: err}
}

// Configuration wraps err (may be nil) as a configuration failure of op.
func Configuration(op string, err error) error { return newError(KindConfiguration, op, err) }

// Configurationf builds a configuration failure from a formatted cause.
func Configurationf(op, format string, args ...any) error {
	return newError(KindConfiguration, op, errors.Errorf(format, args...))
}

// Authentication reports a rejected password for op.
func Authentication(op string) error { return newError(KindAuthentication, op, nil) }

// Integrity wraps err as an authenticated-decryption failure of op.
func Integrity(op string, err error) error { return newError(KindIntegrity, op, err) }

// Storage wraps err as an I/O failure of op.
func Storage(op string, err error) error { return newError(KindStorage, op, err) }

// KindOf returns the kind of the first *Error found in err's chain.
func KindOf(err error) Kind {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return KindUnknown
}
