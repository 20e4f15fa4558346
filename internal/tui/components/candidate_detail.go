package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/tui/themes"
)

const barWidth = 24

// CandidateDetailModel compares one candidate against the source plate.
type CandidateDetailModel struct {
	theme     themes.Theme
	source    model.Plate
	candidate model.ScoredCandidate
	viewport  viewport.Model
	width     int
	height    int
}

// NewCandidateDetail creates a detail view for source.
func NewCandidateDetail(source model.Plate, theme themes.Theme) CandidateDetailModel {
	return CandidateDetailModel{
		theme:    theme,
		source:   source,
		viewport: viewport.New(80, 16),
		width:    80,
		height:   16,
	}
}

// SetCandidate shows c and scrolls to the top.
func (m *CandidateDetailModel) SetCandidate(c model.ScoredCandidate) {
	m.candidate = c
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Candidate returns the candidate being shown.
func (m CandidateDetailModel) Candidate() model.ScoredCandidate {
	return m.candidate
}

// Resize adjusts the viewport to the available space.
func (m *CandidateDetailModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 3)
	m.viewport.SetContent(m.renderContent())
}

// Update handles messages.
func (m CandidateDetailModel) Update(msg tea.Msg) (CandidateDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "backspace", "h", "left":
			return m, func() tea.Msg { return BackToListMsg{} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m CandidateDetailModel) View() string {
	return m.viewport.View()
}

func (m CandidateDetailModel) renderContent() string {
	c := m.candidate
	if c.Plate.ID == "" {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf("%s vs %s", c.Plate.Name(), m.source.Name())
	b.WriteString(m.theme.Title.Render(title))
	b.WriteString("\n")

	scoreText := fmt.Sprintf("Similarity %d/100", c.Score)
	if c.Overridden {
		scoreText += " (reviewer override)"
	}
	b.WriteString(m.theme.ScoreStyle(c.Score, c.Overridden).Render(scoreText))
	b.WriteString("\n\n")

	b.WriteString(m.renderComparison())
	b.WriteString("\n")

	if len(c.Attributes) > 0 {
		b.WriteString(m.theme.Bold.Render("Attribute scores"))
		b.WriteString("\n")
		for _, a := range c.Attributes {
			b.WriteString(m.renderAttribute(a))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.theme.Bold.Render("Notes"))
	b.WriteString("\n")
	for _, n := range c.Notes {
		b.WriteString(m.renderNote(n))
		b.WriteString("\n")
	}
	return b.String()
}

func (m CandidateDetailModel) renderComparison() string {
	src, dst := m.source, m.candidate.Plate
	rows := [][3]string{
		{"Supplier", src.SupplierName, dst.SupplierName},
		{"Family", src.FamilyName, dst.FamilyName},
		{"Thickness", fmt.Sprintf("%.2f mm", src.ThicknessMM), fmt.Sprintf("%.2f mm", dst.ThicknessMM)},
		{"Hardness", shore(src.HardnessShore), shore(dst.HardnessShore)},
		{"Process", string(src.ProcessType), string(dst.ProcessType)},
		{"Surface", deref(src.SurfaceType), deref(dst.SurfaceType)},
		{"LPI", lpi(src.LPI), lpi(dst.LPI)},
		{"Applications", strings.Join(src.Applications, ", "), strings.Join(dst.Applications, ", ")},
		{"Inks", strings.Join(src.InkCompatibility, ", "), strings.Join(dst.InkCompatibility, ", ")},
		{"Substrates", strings.Join(src.Substrates, ", "), strings.Join(dst.Substrates, ", ")},
	}

	colWidth := max((m.width-18)/2, 16)
	cell := lipgloss.NewStyle().Width(colWidth)

	lines := []string{
		m.theme.Label.Render("") + cell.Bold(true).Render("Source") + cell.Bold(true).Render("Candidate"),
	}
	for _, r := range rows {
		lines = append(lines, m.theme.Label.Render(r[0])+cell.Render(r[1])+cell.Render(r[2]))
	}
	return strings.Join(lines, "\n")
}

func (m CandidateDetailModel) renderAttribute(a model.AttributeScore) string {
	label := m.theme.Label.Render(a.Attribute.Label())
	if !a.Compared {
		return label + m.theme.Subtitle.Render("not compared")
	}
	bar := progress.New(
		progress.WithSolidFill(string(m.theme.ScoreColor(int(a.Score*100), false))),
		progress.WithoutPercentage(),
		progress.WithWidth(barWidth),
	)
	return fmt.Sprintf("%s%s %3.0f%%  weight %g", label, bar.ViewAs(a.Score), a.Score*100, a.Weight)
}

func (m CandidateDetailModel) renderNote(n model.MatchNote) string {
	switch n.Kind {
	case model.NoteOverride:
		return m.theme.Override.Render("✎ " + n.Text)
	case model.NoteAffirmative:
		return m.theme.StatusSuccess.Render("✓ ") + n.Text
	case model.NoteCaution:
		return m.theme.StatusWarning.Render("! ") + n.Text
	default:
		return m.theme.Subtitle.Render("· " + n.Text)
	}
}

func shore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f Shore A", *v)
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func lpi(r *model.LPIRange) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}
