// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadKeysFromLocale_FlatAndNested(t *testing.T) {
	p := filepath.Join(t.TempDir(), "en.yaml")
	writeFile(t, p, "\"account.added\": \"Added %s.\"\nstatus:\n  method: \"Protection: %s\"\n")

	got, err := loadKeysFromLocale(p)
	if err != nil {
		t.Fatalf("loadKeysFromLocale: %v", err)
	}
	want := map[string]struct{}{"account.added": {}, "status.method": {}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestLint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ui", "a.go"), `package ui
func f() {
	_ = i18n.T("account.added", name)
	_ = i18n.T("account.gone")
}`)
	writeFile(t, filepath.Join(root, "ui", "a_test.go"), `package ui
func g() { _ = i18n.T("test.only") }`)
	locales := filepath.Join(root, "locales")
	writeFile(t, filepath.Join(locales, "en.yaml"), "\"account.added\": \"Added\"\n\"account.unused\": \"x\"\n")
	writeFile(t, filepath.Join(locales, "es.yaml"), "\"account.unused\": \"x\"\n")

	report, err := lint(root, locales)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if _, ok := report.Undefined["account.gone"]; !ok || len(report.Undefined) != 1 {
		t.Fatalf("expected only account.gone undefined, got %v", report.Undefined)
	}
	if loc := report.Undefined["account.gone"]; loc.Line != 4 {
		t.Fatalf("expected line 4, got %d", loc.Line)
	}
	if diff := cmp.Diff([]string{"account.added"}, report.Missing["es.yaml"]); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"account.unused"}, report.Orphaned); diff != "" {
		t.Fatalf("orphaned mismatch (-want +got):\n%s", diff)
	}
	if !report.Failed() {
		t.Fatalf("expected report to fail")
	}
}
