package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the results browser.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Selected      lipgloss.Style
	RoundedBox    lipgloss.Style
	Label         lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Override      lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
	Accent        lipgloss.Color
}

// ScoreStyle picks the status style for a similarity score.
func (t Theme) ScoreStyle(score int, overridden bool) lipgloss.Style {
	switch {
	case overridden:
		return t.Override
	case score >= 85:
		return t.StatusSuccess
	case score >= 60:
		return t.StatusWarning
	default:
		return t.StatusError
	}
}

// ScoreColor is the bar color for a score.
func (t Theme) ScoreColor(score int, overridden bool) lipgloss.Color {
	switch {
	case overridden:
		return t.Accent
	case score >= 85:
		return t.Success
	case score >= 60:
		return t.Warning
	default:
		return t.Error
	}
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#00A6D6"),
	Success: lipgloss.Color("#10b981"),
	Warning: lipgloss.Color("#f59e0b"),
	Error:   lipgloss.Color("#ef4444"),
	Accent:  lipgloss.Color("#C792EA"),
	Border:  lipgloss.Color("#404040"),
	Muted:   lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00A6D6")).
		MarginBottom(1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Label: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#a3a3a3")).
		Width(16),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#00A6D6")).
		Foreground(lipgloss.Color("#1a1a1a")).
		Bold(true),
	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),

	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")).
		Bold(true),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
	Override: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#C792EA")).
		Bold(true),
}
