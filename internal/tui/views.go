package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state {
	case StateDetail:
		body = m.detail.View()
	default:
		body = m.list.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	src := m.response.Source
	title := m.theme.Title.Render(fmt.Sprintf("Equivalents for %s (%s)", src.Name(), src.SupplierName))

	scope := "other suppliers"
	if m.includesSameSupplier() {
		scope = "all suppliers"
	}
	if m.config.Request.TargetSupplier != "" {
		scope = m.config.Request.TargetSupplier
	}
	subtitle := m.theme.Subtitle.Render(fmt.Sprintf("Profile %s · %d of %d candidates · %s",
		m.response.Profile.Name, len(m.response.Candidates), m.response.TotalCandidates, scope))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

func (m Model) renderFooter() string {
	var status string
	switch {
	case m.loading:
		status = m.theme.StatusInfo.Render("Searching...")
	case m.lastError != nil:
		status = m.theme.StatusError.Render("Error: " + m.lastError.Error())
	}

	helpView := m.help.View(m.keymap)
	if status == "" {
		return "\n" + helpView
	}
	return "\n" + status + "\n" + helpView
}
