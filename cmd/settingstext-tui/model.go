package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
	"github.com/dd0wney/cluso-settingstext/pkg/report"
)

// renderFunc produces the report preview for a selection
type renderFunc func(entries []report.Entry) string

// row is one visible line of the node list. param is -1 on a node header.
type row struct {
	cand  int
	param int
}

type model struct {
	candidates []report.Candidate
	picker     *report.Picker
	expanded   map[graph.NodeRef]bool
	cursor     int

	filter    textinput.Model
	filtering bool

	preview viewport.Model
	help    help.Model
	keys    keyMap
	render  renderFunc

	width  int
	height int
	saved  bool
}

func newModel(candidates []report.Candidate, initial []report.Entry, render renderFunc) model {
	fi := textinput.New()
	fi.Placeholder = "filter by title, type or id"
	fi.Prompt = "/ "
	fi.CharLimit = 64

	m := model{
		candidates: candidates,
		picker:     report.NewPicker(initial),
		expanded:   make(map[graph.NodeRef]bool),
		filter:     fi,
		preview:    viewport.New(60, 20),
		help:       help.New(),
		keys:       keys,
		render:     render,
	}
	m.refreshPreview()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

// matches reports whether c passes the current filter
func (m model) matches(c report.Candidate) bool {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), q) ||
		strings.Contains(strings.ToLower(c.Type), q) ||
		strings.Contains(c.ID, q)
}

func (m model) rows() []row {
	var rows []row
	for i, c := range m.candidates {
		if !m.matches(c) {
			continue
		}
		rows = append(rows, row{cand: i, param: -1})
		if m.expanded[c.ID] {
			for j := range c.Params {
				rows = append(rows, row{cand: i, param: j})
			}
		}
	}
	return rows
}

func (m *model) clampCursor(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) refreshPreview() {
	if m.render == nil {
		return
	}
	m.preview.SetContent(m.render(m.picker.Entries()))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.preview.Width = max(msg.Width/2-4, 20)
		m.preview.Height = max(msg.Height-8, 5)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()

	switch {
	case key.Matches(msg, m.keys.Abort):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Save):
		m.saved = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++

	case key.Matches(msg, m.keys.Expand):
		if len(rows) > 0 {
			m.expanded[m.candidates[rows[m.cursor].cand].ID] = true
		}

	case key.Matches(msg, m.keys.Collapse):
		if len(rows) > 0 {
			cur := rows[m.cursor]
			m.expanded[m.candidates[cur.cand].ID] = false
			// land on the header of the collapsed node
			for i, r := range m.rows() {
				if r.cand == cur.cand && r.param == -1 {
					m.cursor = i
					break
				}
			}
		}

	case key.Matches(msg, m.keys.ExpandAll):
		open := false
		for _, c := range m.candidates {
			if !m.expanded[c.ID] {
				open = true
				break
			}
		}
		for _, c := range m.candidates {
			m.expanded[c.ID] = open
		}

	case key.Matches(msg, m.keys.Toggle):
		if len(rows) == 0 {
			break
		}
		cur := rows[m.cursor]
		c := m.candidates[cur.cand]
		if cur.param < 0 {
			m.picker.ToggleNode(c)
		} else {
			m.picker.Toggle(c.ID, c.Params[cur.param], c.Title)
		}
		m.refreshPreview()

	case key.Matches(msg, m.keys.All):
		for _, c := range m.candidates {
			if m.picker.SelectedCount(c) < len(c.Params) {
				m.picker.ToggleNode(c)
			}
		}
		m.refreshPreview()

	case key.Matches(msg, m.keys.Reset):
		m.picker.Reset()
		m.refreshPreview()

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		cmd := m.filter.Focus()
		return m, cmd

	default:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	m.clampCursor(len(m.rows()))
	return m, nil
}

// Entries is the selection to save
func (m model) Entries() []report.Entry {
	return m.picker.Entries()
}
