// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build darwin

package machineid

import (
	"errors"
	"os/exec"
)

func platformProbes() []Probe {
	return []Probe{
		{Name: "platform-uuid", Read: ioregValue("IOPlatformUUID")},
		{Name: "cpu", Read: readCPUBrand, Optional: true},
		{Name: "serial", Read: ioregValue("IOPlatformSerialNumber"), Optional: true},
	}
}

func ioregValue(key string) func() (string, error) {
	return func() (string, error) {
		out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
		if err != nil {
			return "", err
		}
		v := parseIoreg(string(out), key)
		if v == "" {
			return "", errors.New(key + " not reported by ioreg")
		}
		return v, nil
	}
}

func readCPUBrand() (string, error) {
	out, err := exec.Command("sysctl", "-n", "machdep.cpu.brand_string").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
