// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package aead implements authenticated encryption of vault payloads with
// AES-256-GCM. Decryption is fail-closed: on any verification failure no
// plaintext byte is returned.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/toeirei/acctvault/core/security"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// NonceSize is the 96-bit nonce used for every new package.
	NonceSize = 12
	// LegacyNonceSize is a 128-bit nonce as used by some other GCM
	// implementations. Such packages are opened, never produced.
	LegacyNonceSize = 16
	// TagSize is the 128-bit authentication tag length.
	TagSize = 16
)

// ErrAuthFailed is the cause attached to integrity errors from Decrypt.
var ErrAuthFailed = errors.New("message authentication failed")

// Package is the output of one encryption call. Byte fields are encoded as
// standard base64 in JSON.
type Package struct {
	Nonce      []byte `json:"nonce"`
	Tag        []byte `json:"tag"`
	Ciphertext []byte `json:"ciphertext"`
}

// Cipher encrypts and decrypts packages under one derived key.
type Cipher struct {
	gcm    cipher.AEAD
	legacy cipher.AEAD
}

// New builds a cipher for a 32-byte key.
func New(key security.Secret) (*Cipher, error) {
	if key.Len() != KeySize {
		return nil, vaulterr.Configurationf("cipher", "key must be %d bytes, got %d", KeySize, key.Len())
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, vaulterr.Configuration("cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, vaulterr.Configuration("cipher", err)
	}
	legacy, err := cipher.NewGCMWithNonceSize(block, LegacyNonceSize)
	if err != nil {
		return nil, vaulterr.Configuration("cipher", err)
	}
	return &Cipher{gcm: gcm, legacy: legacy}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext []byte) (Package, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Package{}, errors.Wrap(err, "unable to generate nonce")
	}

	sealed := c.gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - TagSize
	return Package{
		Nonce:      nonce,
		Tag:        sealed[split:],
		Ciphertext: sealed[:split],
	}, nil
}

// Decrypt verifies the tag and returns the plaintext. Any failure yields an
// integrity error and nil plaintext.
func (c *Cipher) Decrypt(p Package) ([]byte, error) {
	var gcm cipher.AEAD
	switch len(p.Nonce) {
	case NonceSize:
		gcm = c.gcm
	case LegacyNonceSize:
		gcm = c.legacy
	default:
		return nil, vaulterr.Integrity("decrypt", errors.Errorf("invalid nonce length %d", len(p.Nonce)))
	}
	if len(p.Tag) != TagSize {
		return nil, vaulterr.Integrity("decrypt", errors.Errorf("invalid tag length %d", len(p.Tag)))
	}

	sealed := make([]byte, 0, len(p.Ciphertext)+TagSize)
	sealed = append(sealed, p.Ciphertext...)
	sealed = append(sealed, p.Tag...)

	plaintext, err := gcm.Open(nil, p.Nonce, sealed, nil)
	if err != nil {
		return nil, vaulterr.Integrity("decrypt", ErrAuthFailed)
	}
	return plaintext, nil
}

// Encrypt seals plaintext under key.
func Encrypt(key security.Secret, plaintext []byte) (Package, error) {
	c, err := New(key)
	if err != nil {
		return Package{}, err
	}
	return c.Encrypt(plaintext)
}

// Decrypt opens p under key.
func Decrypt(key security.Secret, p Package) ([]byte, error) {
	c, err := New(key)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(p)
}

// Unmarshal applies the payload convention to decrypted bytes: it first
// tries a structured JSON parse into v; if that fails it returns the bytes
// as a raw string with ok=false.
func Unmarshal(plaintext []byte, v any) (raw string, ok bool) {
	if err := json.Unmarshal(plaintext, v); err == nil {
		return "", true
	}
	return string(plaintext), false
}
