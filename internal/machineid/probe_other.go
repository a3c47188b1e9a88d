// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !linux && !darwin && !windows

package machineid

func platformProbes() []Probe {
	return portableProbes()
}
