// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the translation files against the code. It scans the Go
// sources for i18n.T("id") calls and reports ids missing from the primary
// locale, ids missing from the other locales, and orphaned ids nobody uses.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
	projectRoot   = "."
)

// Location stores the file and line number of a found id.
type Location struct {
	Filepath string
	Line     int
}

// Report is the outcome of one lint run.
type Report struct {
	// Undefined ids are used in code but absent from the primary locale.
	Undefined map[string]Location
	// Missing maps a secondary locale file to the primary ids it lacks.
	Missing map[string][]string
	// Orphaned ids are defined in the primary locale but never used.
	Orphaned []string
}

// Failed reports whether the run found errors. Orphans are only warnings.
func (r Report) Failed() bool {
	if len(r.Undefined) > 0 {
		return true
	}
	for _, ids := range r.Missing {
		if len(ids) > 0 {
			return true
		}
	}
	return false
}

var keyCall = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

func main() {
	fmt.Println("🔍 Running i18n linter...")

	report, err := lint(projectRoot, localesDir)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- Ids used in code but not defined ---")
	if len(report.Undefined) == 0 {
		fmt.Println("  ✨ None found.")
	}
	for _, id := range sortedKeys(report.Undefined) {
		loc := report.Undefined[id]
		fmt.Printf("  - Undefined: %s (%s:%d)\n", id, loc.Filepath, loc.Line)
	}

	fmt.Println("\n--- Ids missing from other locales ---")
	for _, file := range sortedKeys(report.Missing) {
		ids := report.Missing[file]
		if len(ids) == 0 {
			fmt.Printf("%s: ✨ All keys present.\n", file)
			continue
		}
		for _, id := range ids {
			fmt.Printf("%s: - Missing: %s\n", file, id)
		}
	}

	fmt.Println("\n--- Orphaned ids ---")
	if len(report.Orphaned) == 0 {
		fmt.Println("  ✨ None found.")
	}
	for _, id := range report.Orphaned {
		fmt.Printf("  - Orphaned: %s\n", id)
	}

	fmt.Println("\n--- Linter Finished ---")
	switch {
	case report.Failed():
		fmt.Println("❌ Found issues that need to be addressed.")
		os.Exit(1)
	case len(report.Orphaned) > 0:
		fmt.Println("⚠️  Found orphaned keys. Please consider removing them.")
	default:
		fmt.Println("✅ All translation files are consistent!")
	}
}

// lint compares the ids used under root with the locale files in locales.
func lint(root, locales string) (Report, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return Report{}, fmt.Errorf("finding used keys: %w", err)
	}
	primary, err := loadKeysFromLocale(filepath.Join(locales, primaryLocale))
	if err != nil {
		return Report{}, fmt.Errorf("loading primary locale %s: %w", primaryLocale, err)
	}

	report := Report{
		Undefined: make(map[string]Location),
		Missing:   make(map[string][]string),
	}
	for id, loc := range used {
		if _, ok := primary[id]; !ok {
			report.Undefined[id] = loc
		}
	}
	for id := range primary {
		if _, ok := used[id]; !ok {
			report.Orphaned = append(report.Orphaned, id)
		}
	}
	sort.Strings(report.Orphaned)

	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return Report{}, err
	}
	for _, file := range files {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		secondary, err := loadKeysFromLocale(file)
		if err != nil {
			return Report{}, fmt.Errorf("loading %s: %w", file, err)
		}
		missing := []string{}
		for id := range primary {
			if _, ok := secondary[id]; !ok {
				missing = append(missing, id)
			}
		}
		sort.Strings(missing)
		report.Missing[filepath.Base(file)] = missing
	}
	return report, nil
}

// findUsedKeys scans non-test .go files for i18n.T("id") calls and records
// the first place each id is used.
func findUsedKeys(root string) (map[string]Location, error) {
	keys := make(map[string]Location)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "tools", "_examples", ".git":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for i, line := range strings.Split(string(content), "\n") {
			for _, match := range keyCall.FindAllStringSubmatch(line, -1) {
				if _, seen := keys[match[1]]; !seen {
					keys[match[1]] = Location{Filepath: path, Line: i + 1}
				}
			}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a locale file. Ids are the top-level keys; nested
// maps are flattened with dots.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

func flattenYAML(prefix string, node any, keys map[string]struct{}) {
	m, ok := node.(map[string]any)
	if !ok {
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
		return
	}
	for k, val := range m {
		if prefix != "" {
			k = prefix + "." + k
		}
		flattenYAML(k, val, keys)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
