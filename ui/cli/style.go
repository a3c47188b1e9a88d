// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/toeirei/acctvault/internal/vaultconfig"
)

// renderer writes lipgloss output for w so that colour is dropped when w
// is not a terminal.
func renderer(w io.Writer) *lipgloss.Renderer {
	return lipgloss.NewRenderer(w)
}

// methodBadge renders the protection method as a coloured label.
func methodBadge(w io.Writer, m vaultconfig.Method) string {
	colour := lipgloss.Color("1")
	switch m {
	case vaultconfig.MethodPassword:
		colour = lipgloss.Color("2")
	case vaultconfig.MethodHardware:
		colour = lipgloss.Color("4")
	}
	return renderer(w).NewStyle().Bold(true).Foreground(colour).Render(string(m))
}

// warn renders a warning line.
func warn(w io.Writer, text string) string {
	return renderer(w).NewStyle().Foreground(lipgloss.Color("3")).Render(text)
}

// newTable returns a borderless table styled like the rest of the CLI.
func newTable(w io.Writer, headers ...string) *table.Table {
	r := renderer(w)
	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
