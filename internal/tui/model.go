package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/tui/components"
	"github.com/Veraticus/flexoplate-iq/internal/tui/themes"
)

// State represents the current state of the TUI.
type State int

const (
	StateList State = iota
	StateDetail
)

// Model holds the browser state.
type Model struct {
	ctx       context.Context
	lastError error
	theme     themes.Theme
	response  engine.Response
	config    Config
	help      help.Model
	list      components.CandidateListModel
	detail    components.CandidateDetailModel
	keymap    KeyMap
	width     int
	height    int
	state     State
	loading   bool
	quitting  bool
}

// newModel creates a browser over resp.
func newModel(ctx context.Context, resp engine.Response, cfg Config) Model {
	h := help.New()
	h.ShowAll = cfg.ShowHelp

	m := Model{
		ctx:    ctx,
		config: cfg,
		theme:  cfg.Theme,
		keymap: DefaultKeyMap(),
		help:   h,
		width:  cfg.Width,
		height: cfg.Height,
		state:  StateList,
	}
	m.setResponse(resp)
	return m
}

func (m *Model) setResponse(resp engine.Response) {
	m.response = resp
	m.list = components.NewCandidateList(resp.Candidates, m.theme)
	m.detail = components.NewCandidateDetail(resp.Source, m.theme)
	m.state = StateList
	m.handleResize()
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case components.CandidateSelectedMsg:
		m.detail.SetCandidate(msg.Candidate)
		m.state = StateDetail
		return m, nil

	case components.BackToListMsg:
		m.state = StateList
		return m, nil

	case resultsLoadedMsg:
		m.loading = false
		m.lastError = nil
		m.setResponse(msg.response)
		return m, nil

	case errorMsg:
		m.loading = false
		m.lastError = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case StateList:
		m.list, cmd = m.list.Update(msg)
	case StateDetail:
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

// handleGlobalKeys handles keys that work in any state. Typing into the
// filter input only honors force quit.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return true, tea.Quit
	}
	if m.list.IsSearching() {
		return false, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return true, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.handleResize()
		return true, nil
	case key.Matches(msg, m.keymap.ClearScreen):
		return true, tea.ClearScreen
	case key.Matches(msg, m.keymap.ToggleSupplier):
		if m.config.Search == nil || m.loading {
			return true, nil
		}
		m.loading = true
		return true, m.toggleSameSupplier()
	}
	return false, nil
}

// toggleSameSupplier re-runs the search with same-supplier matching flipped.
func (m *Model) toggleSameSupplier() tea.Cmd {
	include := !m.includesSameSupplier()
	m.config.Request.IncludeSameSupplier = &include

	ctx, req, search := m.ctx, m.config.Request, m.config.Search
	return func() tea.Msg {
		resp, err := search(ctx, req)
		if err != nil {
			return errorMsg{err: err}
		}
		return resultsLoadedMsg{response: resp}
	}
}

func (m Model) includesSameSupplier() bool {
	if v := m.config.Request.IncludeSameSupplier; v != nil {
		return *v
	}
	return false
}

// handleResize gives the active component everything below the header and
// above the footer.
func (m *Model) handleResize() {
	reserved := 5
	if m.help.ShowAll {
		reserved += 3
	}
	bodyHeight := max(m.height-reserved, 6)
	m.help.Width = m.width
	m.list.Resize(m.width, bodyHeight)
	m.detail.Resize(m.width, bodyHeight)
}

// Response returns the results currently shown.
func (m Model) Response() engine.Response {
	return m.response
}

// State returns the active screen.
func (m Model) State() State {
	return m.state
}
