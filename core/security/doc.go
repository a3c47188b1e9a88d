// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package security provides the in-memory wrapper used for derived vault keys
// and unlock passwords so they are redacted wherever they get formatted.
package security
