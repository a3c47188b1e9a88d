// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package i18n provides localisation for the CLI. It uses the go-i18n library
// to load the embedded translation files and falls back to English for
// missing messages.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"

	"github.com/toeirei/acctvault/util/mapst"
)

// localeFS embeds the YAML translation files from the 'locales' directory
// into the application binary.
//
//go:embed locales/*.yaml
var localeFS embed.FS

var (
	mu        sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	current   string
)

// Init loads every embedded locale and selects lang. Unknown languages
// resolve to English.
func Init(lang string) {
	lang = strings.ReplaceAll(lang, "_", "-")
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			continue
		}
		_, _ = b.ParseMessageFileBytes(data, f.Name())
	}

	mu.Lock()
	defer mu.Unlock()
	bundle = b
	localizer = i18n.NewLocalizer(b, lang, "en")
	current = resolve(b, lang)
}

// resolve maps lang onto the best matching loaded tag.
func resolve(b *i18n.Bundle, lang string) string {
	tags := b.LanguageTags()
	want, err := language.Parse(lang)
	if err != nil {
		return "en"
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		return "en"
	}
	return tags[idx].String()
}

// T translates messageID. A single map argument fills named template fields;
// other arguments are applied fmt-style to the translated text. Unknown IDs
// are returned unchanged.
func T(messageID string, args ...any) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()
	if l == nil {
		Init("en")
		mu.RLock()
		l = localizer
		mu.RUnlock()
	}

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(args) == 1 {
		if data, ok := args[0].(map[string]any); ok {
			cfg.TemplateData = data
			args = nil
		}
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// SetLang changes the active language.
func SetLang(lang string) {
	Init(lang)
}

// GetLang returns the active language tag.
func GetLang() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == "" {
		return "en"
	}
	return current
}

// GetAvailableLocales maps every embedded language tag to its name in that
// language.
func GetAvailableLocales() map[string]string {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil {
		Init("en")
		mu.RLock()
		b = bundle
		mu.RUnlock()
	}

	out := make(map[string]string)
	for _, tag := range b.LanguageTags() {
		out[tag.String()] = display.Self.Name(tag)
	}
	return out
}

// Languages returns the embedded language tags, sorted.
func Languages() []string {
	return mapst.SortedKeys(GetAvailableLocales())
}
