package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/tui/themes"
)

// ListMode represents the current mode of the list.
type ListMode int

// List modes.
const (
	ModeNormal ListMode = iota
	ModeSearch
)

// CandidateListModel manages the ranked candidate table.
type CandidateListModel struct {
	theme       themes.Theme
	search      string
	lastKey     string
	candidates  model.ScoredCandidates
	filtered    model.ScoredCandidates
	searchInput textinput.Model
	table       table.Model
	mode        ListMode
	width       int
	height      int
	cursor      int
}

// NewCandidateList creates a list over already ranked candidates.
func NewCandidateList(candidates model.ScoredCandidates, theme themes.Theme) CandidateListModel {
	t := table.New(
		table.WithColumns(candidateColumns(80)),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)

	searchInput := textinput.New()
	searchInput.Placeholder = "Filter by plate or supplier..."
	searchInput.CharLimit = 50

	m := CandidateListModel{
		candidates:  candidates,
		filtered:    candidates,
		table:       t,
		searchInput: searchInput,
		theme:       theme,
		width:       80,
		height:      16,
	}
	m.syncTable()
	return m
}

func candidateColumns(width int) []table.Column {
	plateWidth := max(width-52, 18)
	return []table.Column{
		{Title: "#", Width: 3},
		{Title: "Score", Width: 7},
		{Title: "Plate", Width: plateWidth},
		{Title: "Supplier", Width: 12},
		{Title: "Thickness", Width: 10},
		{Title: "Process", Width: 10},
	}
}

// Update handles messages.
func (m CandidateListModel) Update(msg tea.Msg) (CandidateListModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case ModeNormal:
			cmd = m.handleNormalMode(msg)
		case ModeSearch:
			cmd = m.handleSearchMode(msg)
		}
		m.lastKey = msg.String()

	case tea.WindowSizeMsg:
		m.Resize(msg.Width, msg.Height)

	default:
		if m.mode == ModeSearch {
			m.searchInput, cmd = m.searchInput.Update(msg)
		}
	}

	m.syncTable()
	return m, cmd
}

func (m *CandidateListModel) handleNormalMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down":
		m.cursor = min(m.cursor+1, max(len(m.filtered)-1, 0))

	case "k", "up":
		m.cursor = max(m.cursor-1, 0)

	case "pgdown", "ctrl+f":
		m.cursor = min(m.cursor+m.pageSize(), max(len(m.filtered)-1, 0))

	case "pgup", "ctrl+b":
		m.cursor = max(m.cursor-m.pageSize(), 0)

	case "G", "end":
		m.cursor = max(len(m.filtered)-1, 0)

	case "home":
		m.cursor = 0

	case "g":
		if m.lastKey == "g" {
			m.cursor = 0
		}

	case "/":
		m.mode = ModeSearch
		m.searchInput.SetValue(m.search)
		m.searchInput.Focus()
		return textinput.Blink

	case "enter":
		if m.cursor < len(m.filtered) {
			selected := CandidateSelectedMsg{Candidate: m.filtered[m.cursor], Index: m.cursor}
			return func() tea.Msg { return selected }
		}
	}
	return nil
}

func (m *CandidateListModel) handleSearchMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.search = strings.TrimSpace(m.searchInput.Value())
		m.applyFilter()
		m.mode = ModeNormal
		m.searchInput.Blur()

	case "esc":
		m.mode = ModeNormal
		m.searchInput.Blur()

	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return cmd
	}
	return nil
}

// applyFilter keeps candidates whose plate, family or supplier contains the
// search text. Ranking order is preserved.
func (m *CandidateListModel) applyFilter() {
	m.cursor = 0
	if m.search == "" {
		m.filtered = m.candidates
		return
	}

	needle := strings.ToLower(m.search)
	filtered := make(model.ScoredCandidates, 0, len(m.candidates))
	for _, c := range m.candidates {
		haystack := strings.ToLower(c.Plate.Name() + " " + c.Plate.FamilyName + " " + c.Plate.SupplierName)
		if strings.Contains(haystack, needle) {
			filtered = append(filtered, c)
		}
	}
	m.filtered = filtered
}

func (m *CandidateListModel) syncTable() {
	rows := make([]table.Row, len(m.filtered))
	for i, c := range m.filtered {
		score := strconv.Itoa(c.Score)
		if c.Overridden {
			score += " ✎"
		}
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			score,
			c.Plate.Name(),
			c.Plate.SupplierName,
			fmt.Sprintf("%.2fmm", c.Plate.ThicknessMM),
			string(c.Plate.ProcessType),
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(m.cursor)
	}
}

func (m CandidateListModel) pageSize() int {
	return max(m.table.Height()-1, 1)
}

// Resize adjusts the table to the available space.
func (m *CandidateListModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(candidateColumns(width))
	m.table.SetHeight(max(height-4, 3))
}

// Cursor returns the highlighted row in the filtered list.
func (m CandidateListModel) Cursor() int {
	return m.cursor
}

// Selected returns the highlighted candidate.
func (m CandidateListModel) Selected() (model.ScoredCandidate, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return model.ScoredCandidate{}, false
	}
	return m.filtered[m.cursor], true
}

// Visible returns the candidates passing the current filter.
func (m CandidateListModel) Visible() model.ScoredCandidates {
	return m.filtered
}

// IsSearching reports whether the filter input has focus.
func (m CandidateListModel) IsSearching() bool {
	return m.mode == ModeSearch
}

// View renders the list.
func (m CandidateListModel) View() string {
	var sections []string

	if m.mode == ModeSearch {
		sections = append(sections, m.theme.Bold.Render("Filter: ")+m.searchInput.View())
	} else if m.search != "" {
		sections = append(sections, m.theme.Subtitle.Render(fmt.Sprintf("Filter: %q (%d of %d)", m.search, len(m.filtered), len(m.candidates))))
	}

	if len(m.filtered) == 0 {
		sections = append(sections, m.theme.StatusWarning.Render("No candidates match"))
	} else {
		sections = append(sections, m.table.View())
	}

	if c, ok := m.Selected(); ok {
		sections = append(sections, m.renderPreview(c))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderPreview shows the first notes of the highlighted candidate.
func (m CandidateListModel) renderPreview(c model.ScoredCandidate) string {
	score := m.theme.ScoreStyle(c.Score, c.Overridden).Render(fmt.Sprintf("%d", c.Score))
	lines := []string{fmt.Sprintf("%s %s", score, m.theme.Bold.Render(c.Plate.Name()))}
	for i, n := range c.Notes {
		if i == 2 {
			lines = append(lines, m.theme.Subtitle.Render(fmt.Sprintf("  +%d more, press enter for details", len(c.Notes)-2)))
			break
		}
		lines = append(lines, "  "+n.Text)
	}
	return strings.Join(lines, "\n")
}
