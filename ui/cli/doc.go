// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Acctvault using Cobra.
// It wires configuration, logging and translations, then delegates to the
// vault packages under internal/. CLI code should remain thin: it resolves
// input (flags, environment, keyring, prompts) and renders results.
package cli
