package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/reorder"
)

// serviceGlyphs maps well-known service names to a glyph. Unknown names get
// fallbackGlyph.
var serviceGlyphs = map[string]string{
	"minecraft":    "⛏",
	"transmission": "⇅",
	"updog":        "☁",
	"vpn":          "⛨",
}

const fallbackGlyph = "?"

// glyphFor returns the glyph shown next to a configured service.
func glyphFor(name string) string {
	if g, ok := serviceGlyphs[strings.ToLower(strings.TrimSpace(name))]; ok {
		return g
	}
	return fallbackGlyph
}

// renderMain renders the full dashboard.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	linksHeight := m.chips.rows() + 2
	b.WriteString(m.renderTitledBox(m.linksTitle(), m.renderChips(), m.width, linksHeight, m.focus == PanelLinks))
	b.WriteString("\n")

	lower := m.focus
	if lower == PanelLinks {
		lower = PanelHosts
	}
	height := m.height - chromeRows - linksHeight
	if height < 3 {
		height = 3
	}
	b.WriteString(m.renderPanel(lower, m.width, height))

	return b.String()
}

func (m Model) linksTitle() string {
	title := fmt.Sprintf("Links (%d)", len(m.snapshot.Links))
	if phase := m.links.Phase(); phase != reorder.PhaseIdle {
		title += " · " + phase.String()
	}
	return title
}

// renderChips draws the link chips at the positions computed by relayout.
// Column zero of each line is the first column inside the box border.
func (m Model) renderChips() string {
	display := m.links.Display()
	rects := m.chips.rects
	if len(display) == 0 || len(rects) != len(display) {
		return m.theme.Styles().MutedText.Render(" No links")
	}

	styles := m.theme.Styles()
	dragged, dragging := m.draggedDisplayIndex()
	bg := NewBgStyle(m.panelBg(m.focus == PanelLinks))

	var lines []string
	var line strings.Builder
	row, cursor := rects[0].Row, 1
	for i, r := range rects {
		if r.Row != row {
			lines = append(lines, line.String())
			line.Reset()
			row, cursor = r.Row, 1
		}
		line.WriteString(bg.Spaces(max(r.Col-cursor, 0)))

		style := styles.Chip
		switch {
		case dragging && i == dragged:
			style = styles.DraggedChip
		case !dragging && m.focus == PanelLinks && i == m.selected[PanelLinks]:
			style = styles.Selected
		}
		pad := strings.Repeat(" ", chipPadding)
		line.WriteString(style.Render(pad + chipLabel(display[i].Name) + pad))
		cursor = r.Col + r.Width
	}
	lines = append(lines, line.String())
	return strings.Join(lines, "\n")
}

// renderPanel renders one list panel inside a titled box.
func (m Model) renderPanel(p Panel, width, height int) string {
	focused := m.focus == p
	rows := m.panelRows(p, width-4)
	title := fmt.Sprintf("%s (%d)", p, len(rows))

	var content string
	if len(rows) == 0 {
		content = m.theme.Styles().MutedText.Render(" Nothing to show")
	} else {
		content = m.renderRows(rows, m.selected[p], focused, width-2, height-2)
	}
	return m.renderTitledBox(title, content, width, height, focused)
}

// renderRows renders plain rows, highlighting the selected one when focused
// and scrolling so that it stays visible.
func (m Model) renderRows(rows []string, selected int, focused bool, width, height int) string {
	if height < 1 {
		return ""
	}
	offset := 0
	if selected >= height {
		offset = selected - height + 1
	}
	end := min(len(rows), offset+height)

	styles := m.theme.Styles()
	bgColor := m.panelBg(focused)
	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		text := " " + truncate(rows[i], width-2)
		if focused && i == selected {
			lines = append(lines, styles.Selected.Width(width).Render(text))
			continue
		}
		lines = append(lines, styles.Text.Background(lipgloss.Color(bgColor)).Width(width).Render(text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) panelBg(focused bool) string {
	if focused {
		return m.theme.FocusBg
	}
	return m.theme.SurfaceAlt
}

// panelRows formats the rows of a list panel.
func (m Model) panelRows(p Panel, width int) []string {
	wide := width >= LayoutWideWidth
	var rows []string

	switch p {
	case PanelHosts:
		statuses := make(map[string]homeapi.NodeStatus, len(m.snapshot.Statuses))
		for _, st := range m.snapshot.Statuses {
			statuses[st.Host.ID] = st.Item
		}
		for _, h := range m.snapshot.Hosts {
			mark := "○"
			if h.Online {
				mark = "●"
			}
			row := fmt.Sprintf("%s %-12s %-22s", mark, h.Host.ID, h.Host.Address)
			if st, ok := statuses[h.Host.ID]; ok {
				row += " " + hostSummary(st, wide)
			} else if h.Error != "" {
				row += " " + h.Error
			} else {
				row += " waiting for first poll"
			}
			rows = append(rows, row)
		}

	case PanelContainers:
		for _, ct := range m.snapshot.Containers {
			state := "stopped"
			if ct.Item.Running {
				state = "running"
			}
			row := fmt.Sprintf("%-12s %-8s %-24s", ct.Host.ID, state, ct.Item.Name)
			if wide {
				row += " " + ct.Item.Image
			}
			rows = append(rows, row)
		}

	case PanelServices:
		for _, u := range m.sortedServices() {
			mark := " "
			if m.snapshot.IsPinned(u.Host.Address, u.Item.Name) {
				mark = "★"
			}
			row := fmt.Sprintf("%s %-32s %-10s %-12s", mark, u.Item.Name, u.Item.State, u.Host.ID)
			if wide {
				row += " " + u.Item.Description
			}
			rows = append(rows, row)
		}

	case PanelTodos:
		for _, t := range m.snapshot.Todos {
			rows = append(rows, fmt.Sprintf("%-12s %s", t.Host.ID, t.Item.Content))
		}

	case PanelWeather:
		for _, w := range m.snapshot.Weather {
			place := w.City
			if w.Country != "" {
				place += ", " + w.Country
			}
			rows = append(rows, fmt.Sprintf("%-28s %6.1f°  %s", place, w.Temperature, w.Description))
		}

	case PanelLinks:
		for _, l := range m.links.Display() {
			rows = append(rows, fmt.Sprintf("%-24s %s", l.Name, l.URL))
		}
	}
	return rows
}

// hostSummary condenses a status payload into one line.
func hostSummary(st homeapi.NodeStatus, wide bool) string {
	hw := st.Hardware
	parts := []string{fmt.Sprintf("cpu %3.0f%%", hw.CPUAll())}
	if len(hw.RAM) >= 2 {
		parts = append(parts, "ram "+hw.RAM[1]+"/"+hw.RAM[0])
	}
	if hw.Temperature != "" && hw.Temperature != "N/A" {
		parts = append(parts, hw.Temperature)
	}
	if wide {
		if hw.Uptime != "" {
			parts = append(parts, hw.Uptime)
		}
		for _, svc := range st.Services {
			parts = append(parts, glyphFor(svc.Name)+" "+svc.Name+" "+svc.Status)
		}
	}
	return strings.Join(parts, "  ")
}

// sortedServices lists units with pinned ones first, then by name.
func (m Model) sortedServices() []cache.Tagged[homeapi.SystemdUnit] {
	units := append([]cache.Tagged[homeapi.SystemdUnit](nil), m.snapshot.Services...)
	sort.SliceStable(units, func(i, j int) bool {
		pi := m.snapshot.IsPinned(units[i].Host.Address, units[i].Item.Name)
		pj := m.snapshot.IsPinned(units[j].Host.Address, units[j].Item.Name)
		if pi != pj {
			return pi
		}
		return units[i].Item.Name < units[j].Item.Name
	})
	return units
}

// selectedContainer returns the container under the cursor.
func (m Model) selectedContainer() (cache.Tagged[homeapi.Container], bool) {
	idx := m.selected[PanelContainers]
	if idx < 0 || idx >= len(m.snapshot.Containers) {
		return cache.Tagged[homeapi.Container]{}, false
	}
	return m.snapshot.Containers[idx], true
}

// renderTitledBox renders a box with the title embedded in its top border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr := m.theme.Border
	if focused {
		borderColorStr = m.theme.BorderFocus
	}
	bgColorStr := m.panelBg(focused)
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}
