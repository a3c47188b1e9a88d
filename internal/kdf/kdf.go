// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package kdf turns a secret (user password or machine fingerprint) and a
// salt into the 32-byte vault key.
package kdf

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"

	"github.com/toeirei/acctvault/core/security"
)

const (
	// Iterations is the fixed PBKDF2-HMAC-SHA-256 round count. Changing it
	// makes every existing vault undecryptable.
	Iterations = 100_000

	// KeySize is the derived key length (AES-256).
	KeySize = 32

	// SaltSize is the length of the random salt generated at password setup.
	SaltSize = 32
)

// HardwareSalt is the fixed, non-secret salt used with the machine
// fingerprint. Security of the hardware method rests on the fingerprint
// being hard to reproduce off-host, not on this value.
var HardwareSalt = []byte("roblox_account_manager_salt_v1")

// Derive returns PBKDF2-HMAC-SHA-256(secret, salt) with the fixed iteration
// count. Identical inputs always yield byte-identical keys.
func Derive(secret, salt []byte) security.Secret {
	return security.Secret(pbkdf2.Key(secret, salt, Iterations, KeySize, sha256.New))
}

// DeriveFromPassword derives the key for the password method.
func DeriveFromPassword(password security.Secret, salt []byte) (security.Secret, error) {
	if password.IsEmpty() {
		return nil, errors.New("password is empty")
	}
	if len(salt) == 0 {
		return nil, errors.New("password salt is missing")
	}
	var key security.Secret
	_ = password.Use(func(b []byte) error {
		key = Derive(b, salt)
		return nil
	})
	return key, nil
}

// DeriveFromFingerprint derives the key for the hardware method.
func DeriveFromFingerprint(fingerprint string) security.Secret {
	return Derive([]byte(fingerprint), HardwareSalt)
}

// NewSalt returns SaltSize cryptographically random bytes. It is called
// exactly once per vault, at password setup.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "unable to generate salt")
	}
	return salt, nil
}

// PasswordHash is the fast verification hash kept in the vault config: the
// lowercase hex SHA-256 of the password. It only gives early feedback on a
// mistyped password; the AEAD tag is the security boundary.
func PasswordHash(password security.Secret) string {
	sum := sha256.Sum256(password)
	return hex.EncodeToString(sum[:])
}

// VerifyPasswordHash compares password against a stored hash in constant
// time. Stored hashes are compared case-insensitively.
func VerifyPasswordHash(password security.Secret, stored string) bool {
	want := PasswordHash(password)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(strings.TrimSpace(stored)))) == 1
}
