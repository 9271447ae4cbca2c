package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Faint(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Reverse(true)
)

// View implements tea.Model. Every row is clipped to the viewport width by
// display cells, so overwide content degrades to a truncated row instead of
// wrapping and shoving the layout around.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var rows []string
	switch m.mode {
	case modeChapter:
		rows = m.chapterRows()
	default:
		rows = m.tocRows()
	}

	for len(rows) < m.viewHeight() {
		rows = append(rows, "")
	}
	rows = append(rows, m.statusLine(), m.helpLine())
	return strings.Join(rows, "\n")
}

func (m Model) tocRows() []string {
	rows := make([]string, 0, m.viewHeight())
	for r := 0; r < m.viewHeight(); r++ {
		i := m.windowStart + r
		if i >= len(m.toc) {
			break
		}
		entry := m.toc[i]

		var text string
		if i == 0 {
			text = "      " + entry.Title
		} else {
			text = fmt.Sprintf("%5d %s", i, strings.TrimSpace(entry.Title))
		}
		text = runewidth.Truncate(text, m.width, "")

		style := lipgloss.NewStyle()
		switch {
		case r == m.cursorRow:
			style = cursorStyle
		case i == 0:
			style = titleStyle
		case entry.ContentRef == "":
			style = headerStyle
		}
		rows = append(rows, style.Render(text))
	}
	return rows
}

func (m Model) chapterRows() []string {
	cc := m.cache[m.entry]
	if cc == nil {
		return nil
	}
	rows := make([]string, 0, m.viewHeight())
	for _, line := range m.visibleLines(cc) {
		rows = append(rows, runewidth.Truncate(line, m.width, ""))
	}
	return rows
}

func (m Model) statusLine() string {
	if m.status != "" {
		return errorStyle.Render(runewidth.Truncate(m.status, m.width, ""))
	}

	var text string
	switch m.mode {
	case modeChapter:
		total := 0
		if cc := m.cache[m.entry]; cc != nil {
			total = len(cc.lines)
		}
		title := strings.TrimSpace(m.toc[m.entry].Title)
		if title == "" {
			title = m.toc[m.entry].ContentRef
		}
		text = fmt.Sprintf("%s - line %d of %d", title, min(m.offsets[m.entry]+1, total), total)
	default:
		text = fmt.Sprintf("%s - %d entries", m.toc[0].Title, len(m.toc)-1)
	}
	return statusStyle.Render(runewidth.Truncate(text, m.width, ""))
}

func (m Model) helpLine() string {
	if m.mode == modeChapter {
		return m.helpView.View(m.chapKeys)
	}
	return m.helpView.View(m.tocKeys)
}
