// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build linux

package machineid

import (
	"errors"
	"os"
	"strings"
)

// platformProbes on Linux: the systemd/dbus machine id, the processor model
// and the DMI board identity. DMI serial numbers are root-only and would make
// the fingerprint depend on privilege, so only world-readable fields are used.
func platformProbes() []Probe {
	return []Probe{
		{Name: "machine-id", Read: readMachineID},
		{Name: "cpu", Read: readCPU, Optional: true},
		{Name: "board", Read: readBoard, Optional: true},
	}
}

func readMachineID() (string, error) {
	for _, p := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		b, err := os.ReadFile(p)
		if err == nil && strings.TrimSpace(string(b)) != "" {
			return string(b), nil
		}
	}
	return "", errors.New("no machine-id available")
}

func readCPU() (string, error) {
	b, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return "", err
	}
	return parseCPUInfo(string(b)), nil
}

func readBoard() (string, error) {
	vendor, err := os.ReadFile("/sys/class/dmi/id/board_vendor")
	if err != nil {
		return "", err
	}
	name, err := os.ReadFile("/sys/class/dmi/id/board_name")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(vendor)) + " " + strings.TrimSpace(string(name)), nil
}
