// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package machineid

import (
	"bufio"
	"strings"
)

// cpuInfoKeys are the /proc/cpuinfo fields that identify the processor
// model. Frequency and per-core counters are left out on purpose: they change
// between reads.
var cpuInfoKeys = []string{"vendor_id", "cpu family", "model", "model name", "CPU implementer", "CPU part", "Hardware", "Serial"}

// parseCPUInfo extracts a stable processor descriptor from /proc/cpuinfo
// text. Only the first occurrence of each key is used.
func parseCPUInfo(text string) string {
	seen := make(map[string]string, len(cpuInfoKeys))
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = strings.TrimSpace(value)
	}

	var parts []string
	for _, k := range cpuInfoKeys {
		if v, ok := seen[k]; ok && v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, ";")
}

// parseIoreg returns the quoted value of key from `ioreg -rd1 -c
// IOPlatformExpertDevice` output, e.g. `"IOPlatformUUID" = "ABCD-..."`.
func parseIoreg(text, key string) string {
	needle := `"` + key + `"`
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, needle) {
			continue
		}
		_, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"`)
	}
	return ""
}
