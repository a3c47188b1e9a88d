// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import (
	"io/fs"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitFallsBackToEnglish(t *testing.T) {
	Init("xx-YY")
	if got := GetLang(); got != "en" {
		t.Fatalf("expected fallback to en, got %q", got)
	}
	if got := T("error.authentication"); got != "Wrong password." {
		t.Fatalf("unexpected English text %q", got)
	}
}

func TestTFormatsArguments(t *testing.T) {
	Init("en")
	if got := T("account.moved", "alice", 2); got != "Moved alice to position 2." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestTUnknownIDIsReturned(t *testing.T) {
	Init("en")
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("expected the id back, got %q", got)
	}
}

func TestSetLang(t *testing.T) {
	t.Cleanup(func() { Init("en") })

	SetLang("pt_BR")
	if got := GetLang(); got != "pt-BR" {
		t.Fatalf("expected pt-BR, got %q", got)
	}
	if got := T("error.authentication"); got != "Senha incorreta." {
		t.Fatalf("unexpected Portuguese text %q", got)
	}

	SetLang("es-MX")
	if got := T("error.authentication"); got != "Contraseña incorrecta." {
		t.Fatalf("expected Spanish for es-MX, got %q", got)
	}
}

func TestGetAvailableLocales(t *testing.T) {
	Init("en")
	av := GetAvailableLocales()
	for _, tag := range []string{"en", "pt-BR", "es"} {
		if name, ok := av[tag]; !ok || name == "" {
			t.Errorf("missing display name for %s: %v", tag, av)
		}
	}
	if got := strings.Join(Languages(), ","); got != "en,es,pt-BR" {
		t.Fatalf("unexpected language list %q", got)
	}
}

// Every locale must carry the same message IDs as English.
func TestLocalesAreComplete(t *testing.T) {
	load := func(name string) map[string]string {
		data, err := fs.ReadFile(localeFS, "locales/"+name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var m map[string]string
		if err := yaml.Unmarshal(data, &m); err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		return m
	}

	en := load("en.yaml")
	for _, name := range []string{"pt-BR.yaml", "es.yaml"} {
		other := load(name)
		for id := range en {
			if _, ok := other[id]; !ok {
				t.Errorf("%s: missing %q", name, id)
			}
		}
		for id := range other {
			if _, ok := en[id]; !ok {
				t.Errorf("%s: unknown id %q", name, id)
			}
		}
	}
}
