// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package machineid produces a stable per-host fingerprint used as the secret
// for hardware-bound vault encryption. Probing never fails: when the
// platform probes are unavailable the provider degrades to a weaker
// hostname/architecture fingerprint and reports that it did so.
package machineid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/toeirei/acctvault/internal/logging"
)

// separator joins descriptors before hashing. It must never change: the
// fingerprint of existing hardware-encrypted vaults depends on it.
const separator = "-"

// Provider yields the machine fingerprint.
type Provider interface {
	Fingerprint() string
}

// Identity describes a computed fingerprint and how it was obtained.
type Identity struct {
	Fingerprint string
	// Sources names the descriptors that contributed, in order.
	Sources []string
	// Fallback is set when the platform probes were unavailable and the
	// fingerprint was derived from hostname and CPU architecture only.
	Fallback bool
}

// Identifier is implemented by providers that can report how the
// fingerprint was produced.
type Identifier interface {
	Provider
	Identify() Identity
}

// Probe reads one hardware descriptor. A failing required probe sends the
// provider to the fallback path; a failing optional probe contributes an
// empty descriptor so the positions of the others stay stable.
type Probe struct {
	Name     string
	Read     func() (string, error)
	Optional bool
}

// HostProvider fingerprints the running host.
type HostProvider struct {
	probes   []Probe
	hostname func() (string, error)
	arch     string
}

// NewHostProvider returns a provider using the probe set of the platform
// family this binary was built for.
func NewHostProvider() *HostProvider {
	return &HostProvider{
		probes:   platformProbes(),
		hostname: os.Hostname,
		arch:     runtime.GOARCH,
	}
}

// NewHostProviderWithProbes builds a provider with explicit probes, hostname
// source and architecture string.
func NewHostProviderWithProbes(probes []Probe, hostname func() (string, error), arch string) *HostProvider {
	if hostname == nil {
		hostname = os.Hostname
	}
	if arch == "" {
		arch = runtime.GOARCH
	}
	return &HostProvider{probes: probes, hostname: hostname, arch: arch}
}

// Fingerprint returns the hex SHA-256 fingerprint of this host.
func (p *HostProvider) Fingerprint() string {
	return p.Identify().Fingerprint
}

// Identify recomputes the fingerprint. Nothing is cached: a changed host
// yields a changed fingerprint on the next request.
func (p *HostProvider) Identify() Identity {
	if len(p.probes) == 0 {
		return p.fallback("no probes for " + runtime.GOOS)
	}

	parts := make([]string, 0, len(p.probes))
	sources := make([]string, 0, len(p.probes))
	for _, probe := range p.probes {
		value, err := readProbe(probe)
		if err != nil || value == "" {
			if probe.Optional {
				logging.Debugf("machineid: optional probe %s unavailable: %v", probe.Name, err)
				parts = append(parts, "")
				continue
			}
			return p.fallback(fmt.Sprintf("probe %s unavailable: %v", probe.Name, err))
		}
		parts = append(parts, value)
		sources = append(sources, probe.Name)
	}

	return Identity{Fingerprint: Hash(parts), Sources: sources}
}

func (p *HostProvider) fallback(reason string) Identity {
	logging.Warnf("machineid: using weak hostname/architecture fingerprint (%s)", reason)
	host, err := p.hostname()
	if err != nil {
		host = ""
	}
	return Identity{
		Fingerprint: Hash([]string{host, p.arch}),
		Sources:     []string{"hostname", "arch"},
		Fallback:    true,
	}
}

// readProbe shields the provider from panicking probes.
func readProbe(probe Probe) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = "", fmt.Errorf("probe panicked: %v", r)
		}
	}()
	if probe.Read == nil {
		return "", fmt.Errorf("probe has no reader")
	}
	value, err = probe.Read()
	return strings.TrimSpace(value), err
}

// Hash joins descriptors with the fixed separator and returns the hex
// SHA-256 digest.
func Hash(parts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, separator)))
	return hex.EncodeToString(sum[:])
}

// portableProbes is the cross-platform set: hostname plus the OS user id.
func portableProbes() []Probe {
	return []Probe{
		{Name: "hostname", Read: os.Hostname},
		{Name: "uid", Read: func() (string, error) {
			uid := os.Getuid()
			if uid < 0 {
				return "0", nil
			}
			return strconv.Itoa(uid), nil
		}},
	}
}

// Static is a Provider returning a fixed fingerprint.
type Static string

// Fingerprint returns the fixed value.
func (s Static) Fingerprint() string { return string(s) }

// Identify reports the fixed value as a non-fallback identity.
func (s Static) Identify() Identity {
	return Identity{Fingerprint: string(s), Sources: []string{"static"}}
}
