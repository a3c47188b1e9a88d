// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/toeirei/acctvault/core/security"
	"github.com/toeirei/acctvault/internal/kdf"
	"github.com/toeirei/acctvault/internal/machineid"
	"github.com/toeirei/acctvault/internal/store"
	"github.com/toeirei/acctvault/internal/vaultconfig"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

const goodPassword = "Sup3rSecret!"

func newManager(t *testing.T, dir string, provider machineid.Identifier) *Manager {
	t.Helper()
	m, err := New(Options{
		DataDir:  dir,
		Provider: provider,
		Now:      func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func pw(s string) security.Secret { return security.FromString(s) }

func TestScenario_PasswordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := newManager(t, dir, machineid.Static("m")).Setup(vaultconfig.MethodPassword, pw(goodPassword))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := st.Add(store.Record{Username: "alice", Cookie: "COOKIE123"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := st.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := newManager(t, dir, machineid.Static("m")).Open(pw(goodPassword))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got["alice"].Cookie != "COOKIE123" {
		t.Fatalf("unexpected map %v", got)
	}
}

func TestScenario_WrongPasswordRejectedBeforeDecrypt(t *testing.T) {
	dir := t.TempDir()
	st, err := newManager(t, dir, nil).Setup(vaultconfig.MethodPassword, pw(goodPassword))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := st.Add(store.Record{Username: "alice", Cookie: "COOKIE123"}); err != nil {
		t.Fatal(err)
	}
	vaultFile := filepath.Join(dir, store.FileName)

	// Corrupt the vault: a rejection must come from the hash check, not
	// from decryption.
	if err := os.WriteFile(vaultFile, []byte(`{"encrypted": true}`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err = newManager(t, dir, nil).Open(pw("wrong password"))
	if !errors.Is(err, vaulterr.ErrAuthentication) {
		t.Fatalf("expected authentication rejection, got %v", err)
	}
	if vaulterr.KindOf(err) != vaulterr.KindAuthentication {
		t.Fatalf("unexpected kind %s", vaulterr.KindOf(err))
	}

	if _, err := newManager(t, dir, nil).Open(pw(goodPassword)); err != nil {
		t.Fatalf("correct password must pass the hash check: %v", err)
	}
}

func TestScenario_HardwareVaultOnOtherMachine(t *testing.T) {
	dir := t.TempDir()
	st, err := newManager(t, dir, machineid.Static("machine-a")).Setup(vaultconfig.MethodHardware, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := st.Add(store.Record{Username: "alice", Cookie: "COOKIE123"}); err != nil {
		t.Fatal(err)
	}

	other, err := newManager(t, dir, machineid.Static("machine-b")).Open(nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := other.Load()
	if !errors.Is(err, vaulterr.ErrIntegrity) {
		t.Fatalf("expected integrity error on another machine, got %v", err)
	}
	if got != nil {
		t.Fatalf("no map may be returned, got %v", got)
	}

	same, err := newManager(t, dir, machineid.Static("machine-a")).Open(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := same.Load(); err != nil || got["alice"].Cookie != "COOKIE123" {
		t.Fatalf("original machine must still open the vault: %v %v", got, err)
	}
}

func TestScenario_LegacyNoteMigration(t *testing.T) {
	dir := t.TempDir()
	if _, err := newManager(t, dir, nil).Setup(vaultconfig.MethodNone, nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	vaultFile := filepath.Join(dir, store.FileName)
	legacy := `{"bob": {"username": "bob", "cookie": "X", "added_date": "2024-01-02 03:04:05"}}`
	if err := os.WriteFile(vaultFile, []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}

	st, err := newManager(t, dir, nil).Open(nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec := got["bob"]; rec.Note != "" || rec.Cookie != "X" {
		t.Fatalf("unexpected record %#v", rec)
	}
	if n := st.MigrationNotices(); len(n) != 1 || n[0].Field != "note" {
		t.Fatalf("expected one note migration, got %v", n)
	}
	if err := st.Save(); err != nil {
		t.Fatal(err)
	}

	raw, _ := os.ReadFile(vaultFile)
	var onDisk map[string]map[string]any
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatal(err)
	}
	if note, ok := onDisk["bob"]["note"]; !ok || note != "" {
		t.Fatalf("note not persisted: %s", raw)
	}
}

func TestScenario_FlippedCiphertextByte(t *testing.T) {
	dir := t.TempDir()
	st, err := newManager(t, dir, nil).Setup(vaultconfig.MethodPassword, pw(goodPassword))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Add(store.Record{Username: "alice", Cookie: "COOKIE123"}); err != nil {
		t.Fatal(err)
	}

	vaultFile := filepath.Join(dir, store.FileName)
	raw, _ := os.ReadFile(vaultFile)
	var env struct {
		Encrypted bool `json:"encrypted"`
		Data      struct {
			Nonce      []byte `json:"nonce"`
			Tag        []byte `json:"tag"`
			Ciphertext []byte `json:"ciphertext"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatal(err)
	}
	env.Data.Ciphertext[len(env.Data.Ciphertext)/2] ^= 0x80
	tampered, _ := json.Marshal(env)
	if err := os.WriteFile(vaultFile, tampered, 0o600); err != nil {
		t.Fatal(err)
	}

	reopened, err := newManager(t, dir, nil).Open(pw(goodPassword))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := reopened.Load(); !errors.Is(err, vaulterr.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func TestSetup_OnlyOnce(t *testing.T) {
	dir := t.TempDir()
	if _, err := newManager(t, dir, nil).Setup(vaultconfig.MethodNone, nil); err != nil {
		t.Fatal(err)
	}
	_, err := newManager(t, dir, nil).Setup(vaultconfig.MethodPassword, pw(goodPassword))
	if !errors.Is(err, ErrAlreadyConfigured) || !errors.Is(err, vaulterr.ErrConfiguration) {
		t.Fatalf("expected ErrAlreadyConfigured, got %v", err)
	}
}

func TestSetup_PasswordRules(t *testing.T) {
	m := newManager(t, t.TempDir(), nil)
	if _, err := m.Setup(vaultconfig.MethodPassword, pw("short")); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := m.Setup(vaultconfig.MethodPassword, nil); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if m.Config().Exists() {
		t.Fatalf("a rejected setup must not write a config")
	}
	// Eight runes, more bytes.
	if _, err := m.Setup(vaultconfig.MethodPassword, pw("pässwörd")); err != nil {
		t.Fatalf("eight-character password rejected: %v", err)
	}
}

func TestSetup_EncryptsExistingPlainVault(t *testing.T) {
	dir := t.TempDir()
	vaultFile := filepath.Join(dir, store.FileName)
	plain := `{"alice": {"username": "alice", "cookie": "COOKIE123", "added_date": "2024-01-02 03:04:05", "note": "n"}}`
	if err := os.WriteFile(vaultFile, []byte(plain), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := newManager(t, dir, machineid.Static("m")).Setup(vaultconfig.MethodHardware, nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	raw, _ := os.ReadFile(vaultFile)
	if bytes.Contains(raw, []byte("COOKIE123")) {
		t.Fatalf("vault still plain after hardware setup")
	}
	st, err := newManager(t, dir, machineid.Static("m")).Open(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := st.Load(); err != nil || got["alice"].Note != "n" {
		t.Fatalf("records lost during setup: %v %v", got, err)
	}
}

func TestOpen_PasswordConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := newManager(t, dir, nil).Setup(vaultconfig.MethodPassword, pw(goodPassword)); err != nil {
		t.Fatal(err)
	}
	if _, err := newManager(t, dir, nil).Open(nil); !errors.Is(err, ErrPasswordRequired) || !errors.Is(err, vaulterr.ErrConfiguration) {
		t.Fatalf("expected missing password configuration error, got %v", err)
	}

	cfgPath := filepath.Join(dir, vaultconfig.FileName)
	body := `{"encryption_enabled": true, "encryption_method": "password", "password_hash": "` + kdf.PasswordHash(pw(goodPassword)) + `"}`
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{DataDir: dir}); !errors.Is(err, vaulterr.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing salt, got %v", err)
	}
}

func TestHardware_WeakFingerprintPolicy(t *testing.T) {
	weak := machineid.NewHostProviderWithProbes(nil, func() (string, error) { return "desk", nil }, "amd64")

	m := newManager(t, t.TempDir(), weak)
	if _, err := m.Setup(vaultconfig.MethodHardware, nil); !errors.Is(err, ErrWeakFingerprint) {
		t.Fatalf("expected ErrWeakFingerprint, got %v", err)
	}

	allowed, err := New(Options{DataDir: t.TempDir(), Provider: weak, AllowWeakFingerprint: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := allowed.Setup(vaultconfig.MethodHardware, nil); err != nil {
		t.Fatalf("allowed weak fingerprint: %v", err)
	}
	if !allowed.Status().WeakFingerprint {
		t.Fatalf("status should report the weak fingerprint")
	}
}

func TestChangeMethod_KeepsRecords(t *testing.T) {
	dir := t.TempDir()
	provider := machineid.Static("m")
	m := newManager(t, dir, provider)
	st, err := m.Setup(vaultconfig.MethodNone, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Add(store.Record{Username: "alice", Cookie: "COOKIE123"}); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		method   vaultconfig.Method
		password string
	}{
		{vaultconfig.MethodPassword, goodPassword},
		{vaultconfig.MethodPassword, "An0therSecret"},
		{vaultconfig.MethodHardware, ""},
		{vaultconfig.MethodNone, ""},
	}
	for _, step := range steps {
		var p security.Secret
		if step.password != "" {
			p = pw(step.password)
		}
		if err := m.ChangeMethod(st, step.method, p); err != nil {
			t.Fatalf("ChangeMethod(%s): %v", step.method, err)
		}

		reopened, err := newManager(t, dir, provider).Open(p)
		if err != nil {
			t.Fatalf("Open after %s: %v", step.method, err)
		}
		got, err := reopened.Load()
		if err != nil || got["alice"].Cookie != "COOKIE123" {
			t.Fatalf("records lost after switch to %s: %v %v", step.method, got, err)
		}
	}

	if _, err := os.Stat(store.PendingPath(filepath.Join(dir, store.FileName))); !os.IsNotExist(err) {
		t.Fatalf("pending file left behind")
	}
}

func TestChangeMethod_RequiresSetup(t *testing.T) {
	m := newManager(t, t.TempDir(), nil)
	st, err := store.New(store.Options{Path: m.VaultPath()})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.ChangeMethod(st, vaultconfig.MethodHardware, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestOpen_PromotesCommittedPendingVault(t *testing.T) {
	dir := t.TempDir()
	provider := machineid.Static("m")
	st, err := newManager(t, dir, provider).Setup(vaultconfig.MethodHardware, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Add(store.Record{Username: "old", Cookie: "c"}); err != nil {
		t.Fatal(err)
	}

	// Simulate a switch that committed its config but crashed before the
	// final rename: the pending copy is valid under the committed method.
	vaultFile := filepath.Join(dir, store.FileName)
	pending, err := store.New(store.Options{
		Path:   store.PendingPath(vaultFile),
		Method: vaultconfig.MethodHardware,
		Key:    kdf.DeriveFromFingerprint("m"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := pending.Add(store.Record{Username: "new", Cookie: "c"}); err != nil {
		t.Fatal(err)
	}

	m := newManager(t, dir, provider)
	if !m.Status().PendingSwitch {
		t.Fatalf("status should report the pending file")
	}
	reopened, err := m.Open(nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got["new"]; !ok || len(got) != 1 {
		t.Fatalf("pending vault was not promoted: %v", got)
	}
	if m.Status().PendingSwitch {
		t.Fatalf("pending file still present")
	}
}

func TestStatus(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir, machineid.Static("m"))
	if s := m.Status(); s.Configured || s.Encrypted || s.VaultExists {
		t.Fatalf("fresh status %+v", s)
	}
	if _, err := m.Setup(vaultconfig.MethodHardware, nil); err != nil {
		t.Fatal(err)
	}
	s := m.Status()
	if !s.Configured || !s.Encrypted || s.Method != vaultconfig.MethodHardware || s.WeakFingerprint || !s.VaultExists {
		t.Fatalf("unexpected status %+v", s)
	}
}
