package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/homedash/internal/reorder"
)

// Screen position of the first chip: below the chrome and the top border of
// the links box, one column inside its left border.
const (
	chipOriginCol = 2
	chipOriginRow = chromeRows + 1
)

// handleMouse drives link reordering. A left press on a chip begins a drag,
// motion previews the drop slot and release commits it in the background.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		idx, ok := m.chips.hit(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		if err := m.links.Begin(idx); err != nil {
			// A commit is still pending; ignore the press.
			return m, nil
		}
		m.focus = PanelLinks
		m.selected[PanelLinks] = idx
		m.setStatus("", false)
		m.relayout()

	case tea.MouseActionMotion:
		if _, ok := m.links.Session(); !ok {
			return m, nil
		}
		m.links.Move(reorder.CellPoint(msg.X, msg.Y))
		m.relayout()

	case tea.MouseActionRelease:
		if _, ok := m.links.Session(); !ok {
			return m, nil
		}
		commit, ok := m.links.End()
		m.relayout()
		if !ok {
			return m, nil
		}
		m.selected[PanelLinks] = commit.Index
		return m, m.commitOrderCmd(commit)
	}

	return m, nil
}

// relayout recomputes chip positions from the order currently displayed.
func (m Model) relayout() {
	display := m.links.Display()
	labels := make([]string, len(display))
	for i, l := range display {
		labels[i] = chipLabel(l.Name)
	}
	width := m.width - 2*chipOriginCol
	if width < 1 {
		width = 1
	}
	m.chips.rects = layoutChips(labels, width, chipOriginCol, chipOriginRow)
}

// draggedDisplayIndex returns the display position of the chip being dragged.
func (m Model) draggedDisplayIndex() (int, bool) {
	s, ok := m.links.Session()
	if !ok {
		return 0, false
	}
	if s.HasCandidate {
		return s.CandidateIndex, true
	}
	return s.DraggedIndex, true
}
