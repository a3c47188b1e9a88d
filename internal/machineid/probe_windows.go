// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build windows

package machineid

import (
	"golang.org/x/sys/windows/registry"
)

// platformProbes on Windows read the registry instead of shelling out to
// wmic, which is missing from current releases.
func platformProbes() []Probe {
	return []Probe{
		{Name: "machine-guid", Read: registryString(`SOFTWARE\Microsoft\Cryptography`, "MachineGuid")},
		{Name: "cpu", Read: registryString(`HARDWARE\DESCRIPTION\System\CentralProcessor\0`, "Identifier"), Optional: true},
		{Name: "board", Read: registryString(`HARDWARE\DESCRIPTION\System\BIOS`, "BaseBoardProduct"), Optional: true},
	}
}

func registryString(path, name string) func() (string, error) {
	return func() (string, error) {
		k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE|registry.WOW64_64KEY)
		if err != nil {
			return "", err
		}
		defer k.Close()
		v, _, err := k.GetStringValue(name)
		return v, err
	}
}
