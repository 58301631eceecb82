package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	previewStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFFF00")).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

// checkbox renders a full, partial or empty selection mark
func checkbox(selected, total int) string {
	switch {
	case total > 0 && selected == total:
		return "[x]"
	case selected > 0:
		return "[-]"
	default:
		return "[ ]"
	}
}

func (m model) listView() string {
	var s strings.Builder
	rows := m.rows()
	if len(rows) == 0 {
		s.WriteString(dimStyle.Render("no nodes"))
	}

	for i, r := range rows {
		c := m.candidates[r.cand]
		var line string
		if r.param < 0 {
			arrow := "▸"
			if m.expanded[c.ID] {
				arrow = "▾"
			}
			line = fmt.Sprintf("%s %s #%s %s %s", arrow,
				checkbox(m.picker.SelectedCount(c), len(c.Params)),
				c.ID, c.Title, dimStyle.Render(fmt.Sprintf("(%d)", len(c.Params))))
		} else {
			mark := checkbox(0, 1)
			if m.picker.Selected(c.ID, c.Params[r.param]) {
				mark = checkbox(1, 1)
			}
			line = fmt.Sprintf("    %s %s", mark, c.Params[r.param])
		}
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	return strings.TrimRight(s.String(), "\n")
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Settings to text  ·  %d selected", m.picker.Len())))
	s.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		s.WriteString("  " + m.filter.View() + "\n")
	}

	left := paneStyle.Width(max(m.width/2-4, 30)).Render(m.listView())
	right := previewStyle.Render(m.preview.View())
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}
