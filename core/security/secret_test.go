// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestSecretRedactionAndJSON(t *testing.T) {
	s := FromString("supersecret")
	if fmt.Sprintf("%v", s) != "[SECRET]" {
		t.Fatalf("unexpected fmt output: %q", fmt.Sprintf("%v", s))
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if string(b) != "\"[SECRET]\"" {
		t.Fatalf("unexpected json marshal: %s", string(b))
	}
}

func TestSecretZero(t *testing.T) {
	s := FromString("abc123")
	// Zero the underlying secret
	(&s).Zero()
	// Inspect the underlying bytes using Use to avoid creating copies.
	if err := s.Use(func(b []byte) error {
		for i := range b {
			if b[i] != 0 {
				t.Fatalf("expected zeroed byte at index %d, got %d", i, b[i])
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("s.Use failed: %v", err)
	}
}

// TestSecretBytes tests that Bytes() returns a copy of underlying bytes.
func TestSecretBytes(t *testing.T) {
	original := []byte("sensitive")
	s := Secret(original)

	// Get a copy
	copy1 := s.Bytes()

	// Verify copy matches original
	if !bytes.Equal(copy1, []byte("sensitive")) {
		t.Fatalf("copy doesn't match original: %v", copy1)
	}

	// Modify the copy and ensure original secret is not modified
	copy1[0] = 'X'
	if s[0] != 's' {
		t.Fatalf("modifying copy affected original: %v", s)
	}

	// Verify a second copy is independent of the first
	copy2 := s.Bytes()
	copy2[1] = 'Y'
	// copy1 and copy2 should be different (copy2[1] == 'Y', copy1[1] == 'e')
	if copy1[1] != 'e' || copy2[1] != 'Y' {
		t.Fatalf("copies are not independent: copy1=%v, copy2=%v", copy1, copy2)
	}
	if s[1] != 'e' {
		t.Fatalf("modifying a copy affected original")
	}
}

// TestSecretBytesEmpty tests Bytes() with empty secret.
func TestSecretBytesEmpty(t *testing.T) {
	s := Secret([]byte{})
	copy := s.Bytes()
	if len(copy) != 0 {
		t.Fatalf("expected empty copy, got %v", copy)
	}
}

// TestSecretUse tests that Use executes callback with underlying bytes without copying.
func TestSecretUse(t *testing.T) {
	s := FromString("testdata")
	callCount := 0

	err := s.Use(func(b []byte) error {
		callCount++
		if string(b) != "testdata" {
			return errors.New("unexpected byte slice content")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	if callCount != 1 {
		t.Fatalf("callback not called exactly once, count: %d", callCount)
	}
}

// TestSecretUseError tests that Use propagates callback errors.
func TestSecretUseError(t *testing.T) {
	s := FromString("testdata")
	testErr := errors.New("callback error")

	err := s.Use(func(b []byte) error {
		return testErr
	})

	if err != testErr {
		t.Fatalf("expected %v, got %v", testErr, err)
	}
}

// TestSecretUseModification tests that Use allows in-place modification of bytes.
func TestSecretUseModification(t *testing.T) {
	s := Secret([]byte{1, 2, 3, 4})

	err := s.Use(func(b []byte) error {
		for i := range b {
			b[i] = 0
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Use failed: %v", err)
	}

	// Verify original secret was modified
	if err := s.Use(func(b []byte) error {
		for _, v := range b {
			if v != 0 {
				t.Fatalf("expected all zeros, got %v", b)
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("verification Use failed: %v", err)
	}
}

// TestSecretFormat tests that Format redacts secrets.
func TestSecretFormat(t *testing.T) {
	s := FromString("mysecretvalue")

	// Test %v formatting
	output := fmt.Sprintf("%v", s)
	if output != "[SECRET]" {
		t.Fatalf("unexpected %%v output: %q", output)
	}

	// Test %s formatting
	output = fmt.Sprintf("%s", s)
	if output != "[SECRET]" {
		t.Fatalf("unexpected %%s output: %q", output)
	}

	// Test %#v formatting
	output = fmt.Sprintf("%#v", s)
	if output != "[SECRET]" {
		t.Fatalf("unexpected %%#v output: %q", output)
	}
}

// TestSecretString tests String() method redaction.
func TestSecretString(t *testing.T) {
	s := FromString("verysecret")
	if s.String() != "[SECRET]" {
		t.Fatalf("unexpected String output: %q", s.String())
	}
}

// TestSecretMarshalText tests MarshalText redaction.
func TestSecretMarshalText(t *testing.T) {
	s := FromString("textdata")
	bytes, err := s.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(bytes) != "[SECRET]" {
		t.Fatalf("unexpected MarshalText output: %q", string(bytes))
	}
}

func TestSecretEqual(t *testing.T) {
	a := FromString("k3y-material")
	if !a.Equal(FromString("k3y-material")) {
		t.Fatalf("expected equal secrets to compare equal")
	}
	if a.Equal(FromString("k3y-materiaL")) {
		t.Fatalf("expected different secrets to differ")
	}
	if a.Equal(nil) {
		t.Fatalf("expected nil secret to differ")
	}
}

func TestSecretLen(t *testing.T) {
	s := FromBytes(make([]byte, 32))
	if s.Len() != 32 || s.IsEmpty() {
		t.Fatalf("unexpected len %d", s.Len())
	}
	var empty Secret
	if !empty.IsEmpty() {
		t.Fatalf("expected nil secret to be empty")
	}
	// Zero on a nil secret must not panic.
	empty.Zero()
}
