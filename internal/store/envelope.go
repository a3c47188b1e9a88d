// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/toeirei/acctvault/internal/aead"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

// envelope is the on-disk form of an encrypted vault.
type envelope struct {
	Encrypted bool          `json:"encrypted"`
	Data      *aead.Package `json:"data"`
}

// form is the shape of a vault file as found on disk.
type form int

const (
	formEmpty form = iota
	formPlain
	formEnvelope
)

func (f form) String() string {
	switch f {
	case formPlain:
		return "plain"
	case formEnvelope:
		return "encrypted"
	default:
		return "empty"
	}
}

// detectForm classifies raw vault bytes. An object whose "encrypted" member
// is literally true is an envelope; any other object is a plain record map.
func detectForm(data []byte) (form, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return formEmpty, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return 0, vaulterr.Configuration("read vault", errors.Wrap(err, "vault file is not a JSON object"))
	}
	if enc, ok := top["encrypted"]; ok && string(bytes.TrimSpace(enc)) == "true" {
		return formEnvelope, nil
	}
	return formPlain, nil
}

// parseEnvelope extracts the encrypted package. A damaged package is an
// integrity failure: the file claims to be encrypted but cannot be opened.
func parseEnvelope(data []byte) (aead.Package, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return aead.Package{}, vaulterr.Integrity("read vault", errors.Wrap(err, "malformed envelope"))
	}
	if env.Data == nil {
		return aead.Package{}, vaulterr.Integrity("read vault", errors.New("envelope has no data"))
	}
	return *env.Data, nil
}

// marshalEnvelope renders p in the envelope form.
func marshalEnvelope(p aead.Package) ([]byte, error) {
	data, err := json.MarshalIndent(envelope{Encrypted: true, Data: &p}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal envelope")
	}
	return append(data, '\n'), nil
}

// decodePayload turns decrypted bytes into records. The plaintext is parsed
// as JSON first; a JSON string is taken as a double-encoded record map.
// Anything else does not describe a vault and is a configuration error.
func decodePayload(plaintext []byte) (*Records, []MigrationNotice, error) {
	var structured json.RawMessage
	if raw, ok := aead.Unmarshal(plaintext, &structured); !ok {
		return nil, nil, vaulterr.Configurationf("read vault", "decrypted payload is not JSON (%d bytes)", len(raw))
	}

	body := []byte(structured)
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, nil, vaulterr.Configuration("read vault", err)
		}
		body = []byte(inner)
	}

	recs, notices, err := decodeRecords(body)
	if err != nil {
		return nil, nil, vaulterr.Configuration("read vault", err)
	}
	return recs, notices, nil
}

// IsEncrypted reports whether raw vault bytes are in the envelope form.
// Empty input is a plain (empty) vault.
func IsEncrypted(data []byte) (bool, error) {
	f, err := detectForm(data)
	if err != nil {
		return false, err
	}
	return f == formEnvelope, nil
}
